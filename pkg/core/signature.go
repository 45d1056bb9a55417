// Package core defines the data model shared by every mimic-go component:
// behavioral Signatures, mutable Profiles, bounded PersonalityDeltas,
// convergence samples and the persona phase machine.
package core

import (
	"fmt"
	"sort"
	"strings"
)

// PatternTag identifies a structural or lexical pattern detected in samples.
type PatternTag string

const (
	PatternHedging       PatternTag = "hedging"
	PatternList          PatternTag = "list_structure"
	PatternHeaders       PatternTag = "headers"
	PatternCodeBlock     PatternTag = "code_block"
	PatternQuestion      PatternTag = "question"
	PatternExclamation   PatternTag = "exclamation"
	PatternEmphasis      PatternTag = "emphasis"
	PatternFirstPerson   PatternTag = "first_person"
	PatternCitation      PatternTag = "citation"
	PatternEmoji         PatternTag = "emoji"
	PatternQualifier     PatternTag = "qualifier_stacking"
	PatternParenthetical PatternTag = "parenthetical"

	// PatternNoneDetected is the explicit sentinel recorded when no pattern
	// clears the retention threshold. A Signature with SampleCount >= 1
	// always carries at least this tag, never an empty set.
	PatternNoneDetected PatternTag = "none_detected"
)

// Pattern pairs a detected tag with the aggregated confidence of its
// detection across the analyzed samples.
type Pattern struct {
	Tag        PatternTag `json:"tag"`
	Confidence float64    `json:"confidence"`
}

// StructuralFlags summarizes the coarse shape of observed responses.
// The set is closed so downstream dispatch stays enumerable.
type StructuralFlags struct {
	HasLists      bool `json:"has_lists"`
	HasHeaders    bool `json:"has_headers"`
	HasCodeBlocks bool `json:"has_code_blocks"`
	HasQuestions  bool `json:"has_questions"`
	HasEmphasis   bool `json:"has_emphasis"`
}

// Signature is the immutable structural fingerprint derived from one or more
// text samples. Refinement never mutates a Signature in place: the analyzer
// returns a fresh value with SampleCount incremented and confidences
// re-blended, and the cache swaps snapshots wholesale.
type Signature struct {
	Patterns          []Pattern       `json:"patterns"`
	HedgingLevel      float64         `json:"hedging_level"`
	AvgResponseLength float64         `json:"avg_response_length"`
	MaxResponseLength int             `json:"max_response_length"`
	StructuralFlags   StructuralFlags `json:"structural_flags"`
	SampleCount       int             `json:"sample_count"`
}

// Clone returns a deep copy; the patterns slice is never shared.
func (s Signature) Clone() Signature {
	out := s
	out.Patterns = make([]Pattern, len(s.Patterns))
	copy(out.Patterns, s.Patterns)
	return out
}

// PatternConfidence returns the confidence for a tag and whether it is present.
func (s Signature) PatternConfidence(tag PatternTag) (float64, bool) {
	for _, p := range s.Patterns {
		if p.Tag == tag {
			return p.Confidence, true
		}
	}
	return 0, false
}

// HasPattern reports whether the tag survived retention.
func (s Signature) HasPattern(tag PatternTag) bool {
	_, ok := s.PatternConfidence(tag)
	return ok
}

// SortPatterns orders patterns by tag so equal signatures serialize and
// compare identically regardless of detection order.
func (s *Signature) SortPatterns() {
	sort.Slice(s.Patterns, func(i, j int) bool {
		return s.Patterns[i].Tag < s.Patterns[j].Tag
	})
}

// Validate checks the Signature invariants.
func (s Signature) Validate() error {
	if s.HedgingLevel < 0 || s.HedgingLevel > 1 {
		return fmt.Errorf("hedging_level %f outside [0,1]", s.HedgingLevel)
	}
	if s.SampleCount >= 1 && len(s.Patterns) == 0 {
		return fmt.Errorf("signature with %d samples has an empty pattern set", s.SampleCount)
	}
	for _, p := range s.Patterns {
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("pattern %q confidence %f outside [0,1]", p.Tag, p.Confidence)
		}
	}
	return nil
}

// String renders a compact human-readable fingerprint summary.
func (s Signature) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Signature{samples=%d hedging=%.3f avg_len=%.1f patterns=[", s.SampleCount, s.HedgingLevel, s.AvgResponseLength)
	for i, p := range s.Patterns {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s:%.2f", p.Tag, p.Confidence)
	}
	sb.WriteString("]}")
	return sb.String()
}
