package generation

import (
	"strings"
	"text/template"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

// RenderData is the per-prompt input to a compiled template. The renderer
// derives it from the prompt alone; every persona-derived fragment is baked
// into the template text at compile time.
type RenderData struct {
	// Heading is a short title derived from the prompt, used by the blend
	// scaffold when the profile prefers headers.
	Heading string
	// Body is the prompt restated as a sentence core, case-adjusted for the
	// strategy that will render it.
	Body string
	// Points carries the prompt's clauses for bullet scaffolding. Empty when
	// the prompt does not decompose into at least two clauses.
	Points []string
}

// TemplateSet is the compiled, immutable template handle stored on a cache
// entry. Compile bakes all profile- and signature-derived fragments into the
// template text, so the set needs no locking and renders deterministically.
type TemplateSet struct {
	root *template.Template
}

// Compile builds the persona's template set from a profile and signature
// snapshot. Fragment choices are pure functions of the snapshot: hedge
// openers follow HedgingLevel, scaffolding follows the response style flags.
func Compile(profile *core.Profile, sig core.Signature) (*TemplateSet, error) {
	if profile == nil {
		return nil, errors.New(errors.InvalidInput, "cannot compile templates for a nil profile")
	}

	mark := "."
	if profile.ResponseStyle.Emotive {
		mark = "!"
	}

	texts := map[Strategy]string{
		StrategyDirectCopy:    directText(mark),
		StrategyTemplateBlend: blendText(profile.ResponseStyle, mark),
		StrategyHedgedRewrite: hedgedText(sig.HedgingLevel, mark),
	}

	root := template.New(profile.ID)
	for strategy, text := range texts {
		if _, err := root.New(string(strategy)).Parse(text); err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.Unknown, "template compilation failed"),
				errors.Fields{"persona_id": profile.ID, "strategy": string(strategy)},
			)
		}
	}

	return &TemplateSet{root: root}, nil
}

// Render executes the named strategy template. The strategy must be one of
// the three concrete members; callers resolve StrategyAuto before rendering.
func (ts *TemplateSet) Render(strategy Strategy, data RenderData) (string, error) {
	if ts == nil || ts.root == nil {
		return "", errors.New(errors.InvalidInput, "render on an uncompiled template set")
	}
	var sb strings.Builder
	if err := ts.root.ExecuteTemplate(&sb, string(strategy), data); err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "no compiled template for strategy"),
			errors.Fields{"strategy": string(strategy)},
		)
	}
	return sb.String(), nil
}

func directText(mark string) string {
	return "{{.Body}}" + mark
}

// blendText assembles the structural scaffold. Sections appear only when the
// profile asks for them, so a plain profile renders a bare paragraph.
func blendText(style core.ResponseStyle, mark string) string {
	var b strings.Builder
	if style.PreferHeaders {
		b.WriteString("## {{.Heading}}\n\n")
	}
	b.WriteString("{{.Body}}")
	b.WriteString(mark)
	if style.PreferLists {
		b.WriteString("{{if .Points}}\n{{range .Points}}\n- {{.}}{{end}}{{end}}")
	}
	return b.String()
}

func hedgedText(hedgingLevel float64, mark string) string {
	opener, softener := hedgeFragments(hedgingLevel)
	return opener + "{{.Body}}" + mark + " " + softener
}

// hedgeFragments grades the opener and trailing softener by the observed
// hedging level. Thresholds are fixed so recompiling the same snapshot
// always yields the same text.
func hedgeFragments(level float64) (opener, softener string) {
	switch {
	case level >= 0.75:
		return "Perhaps ", "I could be wrong, though."
	case level >= 0.45:
		return "It seems that ", "That is my best reading of it."
	default:
		return "I think ", "That said, there may be more to it."
	}
}
