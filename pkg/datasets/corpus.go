// Package datasets loads bulk observation corpora for import into the
// engine. A corpus is an ordered list of (persona_id, sample) rows read
// from JSONL or Parquet files and served through the sources contract.
package datasets

import (
	"sort"

	"github.com/XiaoConstantine/mimic-go/pkg/sources"
)

// Sample is a single corpus row.
type Sample struct {
	PersonaID string `json:"persona_id"`
	Sample    string `json:"sample"`
}

// Corpus holds samples in file order.
type Corpus struct {
	samples []Sample
	origin  string
}

// NewCorpus builds a corpus from the given samples.
func NewCorpus(samples ...Sample) *Corpus {
	c := &Corpus{samples: make([]Sample, len(samples)), origin: "corpus"}
	copy(c.samples, samples)
	return c
}

// Len reports the number of samples.
func (c *Corpus) Len() int {
	return len(c.samples)
}

// Samples returns a copy of the rows in file order.
func (c *Corpus) Samples() []Sample {
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Personas returns the distinct persona ids, sorted.
func (c *Corpus) Personas() []string {
	seen := make(map[string]struct{}, len(c.samples))
	for _, s := range c.samples {
		seen[s.PersonaID] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Filter returns a new corpus holding only the rows for one persona.
func (c *Corpus) Filter(personaID string) *Corpus {
	out := &Corpus{origin: c.origin}
	for _, s := range c.samples {
		if s.PersonaID == personaID {
			out.samples = append(out.samples, s)
		}
	}
	return out
}

// Source exposes the corpus as an observation source. The origin records
// which loader produced the corpus.
func (c *Corpus) Source() *sources.ObservationSource {
	observations := make([]sources.Observation, len(c.samples))
	for i, s := range c.samples {
		observations[i] = sources.Observation{PersonaID: s.PersonaID, Sample: s.Sample}
	}
	return sources.NewObservationSource(c.origin, observations)
}
