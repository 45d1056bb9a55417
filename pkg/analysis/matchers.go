package analysis

import (
	"math"
	"regexp"
	"strings"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

// matcher pairs a pattern tag with its detection function. Detection
// functions return a confidence in [0,1]; zero means not detected.
type matcher struct {
	tag core.PatternTag
	fn  func(sample string) float64
}

// Saturation points: the occurrence count at which a matcher reports
// full confidence. Chosen so a single weak occurrence reads as a low
// confidence rather than a hard yes.
const (
	hedgeSaturation       = 3.0
	listSaturation        = 3.0
	headerSaturation      = 2.0
	fenceSaturation       = 2.0
	questionSaturation    = 2.0
	exclamationSaturation = 2.0
	emphasisSaturation    = 3.0
	firstPersonSaturation = 5.0
	citationSaturation    = 2.0
	emojiSaturation       = 2.0
	qualifierSaturation   = 2.0
	parenSaturation       = 3.0
)

var (
	hedgeRe = regexp.MustCompile(`(?i)\b(perhaps|maybe|might|possibly|probably|likely|arguably|presumably|conceivably|i think|i believe|i suspect|it seems|seems like|sort of|kind of|not sure|would suggest|could be)\b`)

	listItemRe = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+\S`)

	headerRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]+\S`)

	emphasisRe = regexp.MustCompile(`\*\*[^*\n]+\*\*|\*[^*\s][^*\n]*\*|__[^_\n]+__|_[^_\s][^_\n]*_`)

	firstPersonRe = regexp.MustCompile(`(?i)\b(i|i'm|i've|i'll|i'd|my|me|mine|we|we're|our)\b`)

	citationRe = regexp.MustCompile(`(?i)\[\d+\]|\bet al\.|\baccording to\b|\(see\b|\bcf\.`)

	qualifierRe = regexp.MustCompile(`(?i)\b(very|quite|rather|fairly|somewhat|pretty|really|extremely|highly)\b`)

	parentheticalRe = regexp.MustCompile(`\([^()\n]+\)`)

	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
)

// defaultMatchers returns the fixed matcher library in registration order.
func defaultMatchers() []matcher {
	return []matcher{
		{core.PatternHedging, matchHedging},
		{core.PatternList, matchListStructure},
		{core.PatternHeaders, matchHeaders},
		{core.PatternCodeBlock, matchCodeBlock},
		{core.PatternQuestion, matchQuestion},
		{core.PatternExclamation, matchExclamation},
		{core.PatternEmphasis, matchEmphasis},
		{core.PatternFirstPerson, matchFirstPerson},
		{core.PatternCitation, matchCitation},
		{core.PatternEmoji, matchEmoji},
		{core.PatternQualifier, matchQualifierStacking},
		{core.PatternParenthetical, matchParenthetical},
	}
}

// saturate maps an occurrence count onto [0,1], reaching 1 at the
// saturation point.
func saturate(count, saturation float64) float64 {
	if saturation <= 0 || count <= 0 {
		return 0
	}
	if count >= saturation {
		return 1
	}
	return count / saturation
}

// safeMatch runs a matcher with panic isolation. A panicking matcher
// reads as "pattern not detected" and never aborts analysis.
func safeMatch(m matcher, sample string) (conf float64) {
	defer func() {
		if r := recover(); r != nil {
			conf = 0
		}
	}()

	conf = m.fn(sample)
	if math.IsNaN(conf) || conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

func matchHedging(sample string) float64 {
	return saturate(float64(len(hedgeRe.FindAllString(sample, -1))), hedgeSaturation)
}

func matchListStructure(sample string) float64 {
	return saturate(float64(len(listItemRe.FindAllString(sample, -1))), listSaturation)
}

func matchHeaders(sample string) float64 {
	return saturate(float64(len(headerRe.FindAllString(sample, -1))), headerSaturation)
}

func matchCodeBlock(sample string) float64 {
	// Fences come in pairs; an unclosed fence counts as no block
	pairs := strings.Count(sample, "```") / 2
	return saturate(float64(pairs), fenceSaturation)
}

func matchQuestion(sample string) float64 {
	return saturate(float64(strings.Count(sample, "?")), questionSaturation)
}

func matchExclamation(sample string) float64 {
	return saturate(float64(strings.Count(sample, "!")), exclamationSaturation)
}

func matchEmphasis(sample string) float64 {
	return saturate(float64(len(emphasisRe.FindAllString(sample, -1))), emphasisSaturation)
}

func matchFirstPerson(sample string) float64 {
	return saturate(float64(len(firstPersonRe.FindAllString(sample, -1))), firstPersonSaturation)
}

func matchCitation(sample string) float64 {
	return saturate(float64(len(citationRe.FindAllString(sample, -1))), citationSaturation)
}

func matchEmoji(sample string) float64 {
	count := 0
	for _, r := range sample {
		if isEmojiRune(r) {
			count++
		}
	}
	return saturate(float64(count), emojiSaturation)
}

// isEmojiRune covers the common emoji blocks; flag sequences and
// modifiers count as individual runes, which is fine for confidence.
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // symbols, pictographs, supplemental
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		return true
	case r == 0x2764: // heavy black heart
		return true
	default:
		return false
	}
}

func matchQualifierStacking(sample string) float64 {
	stacked := 0
	for _, sentence := range sentenceSplitRe.Split(sample, -1) {
		if len(qualifierRe.FindAllString(sentence, -1)) >= 2 {
			stacked++
		}
	}
	return saturate(float64(stacked), qualifierSaturation)
}

func matchParenthetical(sample string) float64 {
	return saturate(float64(len(parentheticalRe.FindAllString(sample, -1))), parenSaturation)
}
