package analysis

import (
	"math"
	"testing"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matcherFor(t *testing.T, tag core.PatternTag) matcher {
	t.Helper()
	for _, m := range defaultMatchers() {
		if m.tag == tag {
			return m
		}
	}
	t.Fatalf("no matcher registered for tag %q", tag)
	return matcher{}
}

func TestMatcherLibrary(t *testing.T) {
	tests := []struct {
		name     string
		tag      core.PatternTag
		sample   string
		detected bool
	}{
		{"HedgingPresent", core.PatternHedging, "perhaps this might work, maybe", true},
		{"HedgingAbsent", core.PatternHedging, "this works and that is final", false},
		{"ListPresent", core.PatternList, "- first item\n- second item", true},
		{"NumberedListPresent", core.PatternList, "1. first\n2. second", true},
		{"ListAbsent", core.PatternList, "no lists anywhere in this text", false},
		{"HeaderPresent", core.PatternHeaders, "# overview\nsome text", true},
		{"HeaderAbsent", core.PatternHeaders, "plain paragraph #notaheader", false},
		{"CodeBlockPresent", core.PatternCodeBlock, "```\nfmt.println(1)\n```", true},
		{"UnclosedFence", core.PatternCodeBlock, "``` only one fence", false},
		{"QuestionPresent", core.PatternQuestion, "does this work? are you sure?", true},
		{"QuestionAbsent", core.PatternQuestion, "this is a statement.", false},
		{"ExclamationPresent", core.PatternExclamation, "this is great!", true},
		{"EmphasisBold", core.PatternEmphasis, "this is **important** text", true},
		{"EmphasisItalic", core.PatternEmphasis, "this is _subtle_ emphasis", true},
		{"EmphasisAbsent", core.PatternEmphasis, "nothing emphasized here", false},
		{"FirstPersonPresent", core.PatternFirstPerson, "i checked my notes and we agreed", true},
		{"FirstPersonAbsent", core.PatternFirstPerson, "the system processes requests", false},
		{"CitationBracket", core.PatternCitation, "shown previously [1] and [2]", true},
		{"CitationEtAl", core.PatternCitation, "smith et al. demonstrated this", true},
		{"CitationAbsent", core.PatternCitation, "no sources were given", false},
		{"EmojiPresent", core.PatternEmoji, "shipped it 🎉", true},
		{"EmojiAbsent", core.PatternEmoji, "shipped it, plain text only", false},
		{"QualifierStacked", core.PatternQualifier, "this is very very good.", true},
		{"QualifierSingle", core.PatternQualifier, "this is very good. and that is fine.", false},
		{"ParentheticalPresent", core.PatternParenthetical, "it works (mostly) in practice (for now)", true},
		{"ParentheticalAbsent", core.PatternParenthetical, "it works in practice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := matcherFor(t, tt.tag)
			conf := safeMatch(m, tt.sample)

			if tt.detected {
				assert.Greater(t, conf, 0.0, "expected %q detected in %q", tt.tag, tt.sample)
			} else {
				assert.Zero(t, conf, "expected %q not detected in %q", tt.tag, tt.sample)
			}
			assert.GreaterOrEqual(t, conf, 0.0)
			assert.LessOrEqual(t, conf, 1.0)
		})
	}
}

func TestMatcherLibraryOrderIsStable(t *testing.T) {
	first := defaultMatchers()
	second := defaultMatchers()

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].tag, second[i].tag)
	}
}

func TestSafeMatchPanicRecovery(t *testing.T) {
	panicky := matcher{
		tag: core.PatternHedging,
		fn:  func(string) float64 { panic("matcher exploded") },
	}

	assert.NotPanics(t, func() {
		conf := safeMatch(panicky, "any sample")
		assert.Zero(t, conf)
	})
}

func TestSafeMatchClampsConfidence(t *testing.T) {
	tests := []struct {
		name string
		out  float64
		want float64
	}{
		{"AboveOne", 5.0, 1.0},
		{"Negative", -0.5, 0.0},
		{"NaN", math.NaN(), 0.0},
		{"InRange", 0.42, 0.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := matcher{tag: core.PatternHedging, fn: func(string) float64 { return tt.out }}
			assert.Equal(t, tt.want, safeMatch(m, "sample"))
		})
	}
}

func TestSaturate(t *testing.T) {
	assert.Zero(t, saturate(0, 3))
	assert.Zero(t, saturate(5, 0))
	assert.InDelta(t, 1.0/3.0, saturate(1, 3), 1e-12)
	assert.Equal(t, 1.0, saturate(3, 3))
	assert.Equal(t, 1.0, saturate(10, 3))
}
