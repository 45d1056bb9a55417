package generation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

const (
	// DefaultMaxLength bounds rendered output in runes.
	DefaultMaxLength = 4096

	// headingWordLimit caps how many prompt words become the blend heading.
	headingWordLimit = 6
)

// Renderer turns a persona snapshot and a prompt into styled text. The zero
// configuration selects the strategy from the profile and clamps output to
// DefaultMaxLength runes.
type Renderer struct {
	strategy  Strategy
	maxLength int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStrategy pins every render to one concrete strategy instead of
// selecting per profile. StrategyAuto restores per-profile selection.
func WithStrategy(s Strategy) Option {
	return func(r *Renderer) {
		if ValidStrategy(s) {
			r.strategy = s
		}
	}
}

// WithMaxLength sets the rune clamp on rendered output. Zero or negative
// disables the clamp.
func WithMaxLength(n int) Option {
	return func(r *Renderer) {
		r.maxLength = n
	}
}

// NewRenderer creates a renderer with the supplied options applied over the
// defaults.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		strategy:  StrategyAuto,
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate renders prompt through the persona's compiled templates. Output
// is deterministic given the same profile state, template set and prompt.
func (r *Renderer) Generate(profile *core.Profile, set *TemplateSet, prompt string) (string, error) {
	if profile == nil {
		return "", errors.New(errors.InvalidInput, "generate requires a profile")
	}
	if set == nil {
		return "", errors.New(errors.InvalidInput, "generate requires a compiled template set")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New(errors.InvalidInput, "generate requires a non-empty prompt")
	}

	strategy := r.strategy
	if strategy == "" || strategy == StrategyAuto {
		strategy = SelectStrategy(profile)
	}

	out, err := set.Render(strategy, buildRenderData(prompt, strategy))
	if err != nil {
		return "", err
	}
	return clampRunes(out, r.maxLength), nil
}

// buildRenderData restates the prompt for the chosen strategy. The hedged
// scaffold prefixes its own opener, so its body starts lowercase; the other
// scaffolds start the sentence themselves.
func buildRenderData(prompt string, strategy Strategy) RenderData {
	body := strings.TrimRight(prompt, ".!? \t\n")
	if body == "" {
		body = prompt
	}

	data := RenderData{
		Heading: headline(body),
		Points:  splitPoints(body),
	}
	if strategy == StrategyHedgedRewrite {
		data.Body = lowerFirst(body)
	} else {
		data.Body = upperFirst(body)
	}
	return data
}

// headline takes the leading words of the body as a short title.
func headline(body string) string {
	words := strings.Fields(body)
	if len(words) > headingWordLimit {
		words = words[:headingWordLimit]
	}
	return upperFirst(strings.Join(words, " "))
}

// splitPoints decomposes the body on clause separators for bullet
// scaffolding. Fewer than two clauses means no list, leaving the paragraph
// form intact.
func splitPoints(body string) []string {
	raw := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ';'
	})
	points := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		points = append(points, upperFirst(p))
	}
	if len(points) < 2 {
		return nil
	}
	return points
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// clampRunes bounds s to max runes. Non-positive max disables the clamp.
func clampRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
