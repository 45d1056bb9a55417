package evolution

import (
	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

// ring is a fixed-capacity buffer of convergence samples. When full, the
// oldest sample is overwritten, so history stays bounded regardless of how
// long a persona is tracked.
type ring struct {
	buf  []core.ConvergenceSample
	head int
	n    int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]core.ConvergenceSample, capacity)}
}

func (r *ring) push(s core.ConvergenceSample) {
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *ring) len() int {
	return r.n
}

// last returns up to k most recent samples in chronological order.
func (r *ring) last(k int) []core.ConvergenceSample {
	if k > r.n {
		k = r.n
	}
	out := make([]core.ConvergenceSample, 0, k)
	start := r.head - k
	for i := 0; i < k; i++ {
		idx := (start + i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// all returns every retained sample in chronological order.
func (r *ring) all() []core.ConvergenceSample {
	return r.last(r.n)
}

// latest returns the most recent sample, if any.
func (r *ring) latest() (core.ConvergenceSample, bool) {
	if r.n == 0 {
		return core.ConvergenceSample{}, false
	}
	idx := (r.head - 1 + len(r.buf)) % len(r.buf)
	return r.buf[idx], true
}
