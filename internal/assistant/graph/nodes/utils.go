package nodes

import (
	"github.com/depato-store/shopper-assistant/internal/assistant/model"
)

const DefaultMaxSteps = 10

// ===== Small helpers to keep handlers simple/readable =====
// normalizeMaxSteps returns a sane default when the provided value is invalid.
func normalizeMaxSteps(n int) int {
	if n <= 0 {
		return DefaultMaxSteps
	}
	return n
}

// checkAndMarkStepBudget evaluates whether another tool round trip would
// exceed the budget and, if so, marks the state accordingly. Returns true
// when marked now.
func checkAndMarkStepBudget(state *model.AppState, max int) bool {
	max = normalizeMaxSteps(max)
	if !state.BudgetExceeded && state.StepCount >= max {
		state.BudgetExceeded = true
		return true
	}
	return false
}

// incrementStepAndCheck increments the step count and marks the state if it
// exceeds the budget after incrementing. Returns true when exceeded.
func incrementStepAndCheck(state *model.AppState, max int) bool {
	max = normalizeMaxSteps(max)
	state.StepCount++
	if state.StepCount > max {
		state.BudgetExceeded = true
		return true
	}
	return false
}
