// Package interaction derives conditional exclusion effects from fitted
// interaction models. Purely arithmetic: no fitting happens here.
package interaction

import (
	"math"

	"conflictlens/domain/stats"
)

// Calculator derives conditional total effects from interaction
// coefficients.
type Calculator struct{}

// NewCalculator creates an interaction-effect calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// ConditionalEffects computes the effect of exclusion at each level of a
// binary moderator from a fitted model containing the interaction term:
//
//	effect(level) = b_excluded + level * b_interaction
//
// The difference between levels is exactly the interaction coefficient.
func (c *Calculator) ConditionalEffects(model *stats.ModelResult, moderator, interaction stats.Term) (*stats.InteractionSummary, error) {
	base, err := model.MustEstimate(stats.TermExcluded)
	if err != nil {
		return nil, err
	}
	inter, err := model.MustEstimate(interaction)
	if err != nil {
		return nil, err
	}

	summary := &stats.InteractionSummary{
		Model:     model.Name,
		Outcome:   model.Outcome,
		Moderator: moderator,
		Base:      base.Coefficient,
		Interact:  inter.Coefficient,
		PValue:    inter.PValue,
	}

	for _, level := range []float64{0, 1} {
		effect := base.Coefficient + level*inter.Coefficient
		summary.Effects = append(summary.Effects, stats.ConditionalEffect{
			Moderator: moderator,
			Level:     level,
			Effect:    effect,
			OddsRatio: math.Exp(effect),
		})
	}
	summary.Difference = summary.Effects[1].Effect - summary.Effects[0].Effect
	return summary, nil
}
