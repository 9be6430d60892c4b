package validation

import (
	"github.com/formhive/formhive/internal/models"
)

// PartitionSteps distributes an ordered field list across the named steps:
// ceil(len(fields)/len(steps)) fields per step, assigned in sequence. The
// trailing steps may come up short or empty when the counts do not divide
// evenly. The function is pure; identical inputs always produce identical
// step membership.
func PartitionSteps(fields []models.FormField, stepNames []string) [][]models.FormField {
	if len(stepNames) == 0 {
		return nil
	}
	perStep := (len(fields) + len(stepNames) - 1) / len(stepNames)
	steps := make([][]models.FormField, len(stepNames))
	for i := range stepNames {
		lo := i * perStep
		hi := lo + perStep
		if lo > len(fields) {
			lo = len(fields)
		}
		if hi > len(fields) {
			hi = len(fields)
		}
		steps[i] = fields[lo:hi]
	}
	return steps
}
