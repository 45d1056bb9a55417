package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

func TestValidStrategy(t *testing.T) {
	tests := []struct {
		strategy Strategy
		valid    bool
	}{
		{StrategyAuto, true},
		{StrategyTemplateBlend, true},
		{StrategyDirectCopy, true},
		{StrategyHedgedRewrite, true},
		{Strategy(""), false},
		{Strategy("markov_chain"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidStrategy(tt.strategy), "strategy %q", tt.strategy)
	}
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyTemplateBlend, ParseStrategy("template_blend"))
	assert.Equal(t, StrategyDirectCopy, ParseStrategy("direct_copy"))
	assert.Equal(t, StrategyHedgedRewrite, ParseStrategy("hedged_rewrite"))
	assert.Equal(t, StrategyAuto, ParseStrategy("auto"))
	assert.Equal(t, StrategyAuto, ParseStrategy("no_such_strategy"))
	assert.Equal(t, StrategyAuto, ParseStrategy(""))
}

func TestSelectStrategyExhaustive(t *testing.T) {
	tests := []struct {
		name    string
		style   core.ReasoningStyle
		hedging float64
		want    Strategy
	}{
		{"DirectLowHedging", core.ReasoningDirect, 0.2, StrategyDirectCopy},
		{"DirectHighHedging", core.ReasoningDirect, 0.7, StrategyHedgedRewrite},
		{"AnalyticalLowHedging", core.ReasoningAnalytical, 0.2, StrategyTemplateBlend},
		{"AnalyticalHighHedging", core.ReasoningAnalytical, 0.7, StrategyHedgedRewrite},
		{"ExploratoryLowHedging", core.ReasoningExploratory, 0.2, StrategyTemplateBlend},
		{"ExploratoryHighHedging", core.ReasoningExploratory, 0.7, StrategyHedgedRewrite},
		{"CautiousLowHedging", core.ReasoningCautious, 0.2, StrategyHedgedRewrite},
		{"CautiousHighHedging", core.ReasoningCautious, 0.7, StrategyHedgedRewrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := core.NewProfile("select-test")
			profile.ReasoningStyle = tt.style
			profile.PersonalityAxes[core.AxisHedging] = tt.hedging

			assert.Equal(t, tt.want, SelectStrategy(profile))
		})
	}
}

func TestSelectStrategyNilProfile(t *testing.T) {
	assert.Equal(t, StrategyTemplateBlend, SelectStrategy(nil))
}

func TestSelectStrategyHedgingFloorBoundary(t *testing.T) {
	profile := core.NewProfile("boundary")
	profile.ReasoningStyle = core.ReasoningAnalytical

	profile.PersonalityAxes[core.AxisHedging] = 0.6
	assert.Equal(t, StrategyHedgedRewrite, SelectStrategy(profile))

	profile.PersonalityAxes[core.AxisHedging] = 0.59
	assert.Equal(t, StrategyTemplateBlend, SelectStrategy(profile))
}
