// internal/wizard/guard_test.go
package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"drivecash/internal/common/logger"
)

type fakeSource struct {
	loans     map[string]bool
	completed map[string]bool
}

func (f *fakeSource) HasLoan(id string) bool { return f.loans[id] }

func (f *fakeSource) IsStepComplete(step, loanID string) bool {
	return f.completed[loanID+"/"+step]
}

func newTestGuard(t *testing.T, source *fakeSource) *Guard {
	return NewGuard(source, "/loan/apply", logger.NewTestLogger(t))
}

func TestGuardStepOneAlwaysReachable(t *testing.T) {
	source := &fakeSource{loans: map[string]bool{"loan_1": true}, completed: map[string]bool{}}
	g := newTestGuard(t, source)

	decision := g.Check("loan_1", "step-1")

	assert.True(t, decision.Allowed)
}

func TestGuardRedirectsToFirstIncompleteStep(t *testing.T) {
	source := &fakeSource{
		loans: map[string]bool{"loan_1": true},
		completed: map[string]bool{
			"loan_1/personal": true,
			// income incomplete, vehicle complete: the gap wins
			"loan_1/vehicle": true,
		},
	}
	g := newTestGuard(t, source)

	decision := g.Check("loan_1", "photos")

	assert.False(t, decision.Allowed)
	assert.Equal(t, StepIncome, decision.BlockingStep)
	assert.Equal(t, "/loan/apply/loan_1/step-2", decision.RedirectPath)
}

func TestGuardAllowsWhenPredecessorsComplete(t *testing.T) {
	source := &fakeSource{
		loans: map[string]bool{"loan_1": true},
		completed: map[string]bool{
			"loan_1/personal": true,
			"loan_1/income":   true,
			"loan_1/vehicle":  true,
			"loan_1/photos":   true,
		},
	}
	g := newTestGuard(t, source)

	assert.True(t, g.Check("loan_1", "review").Allowed)
	assert.True(t, g.Check("loan_1", "submit").Allowed)
}

func TestGuardUnknownLoanRedirectsToLanding(t *testing.T) {
	source := &fakeSource{loans: map[string]bool{}, completed: map[string]bool{}}
	g := newTestGuard(t, source)

	decision := g.Check("loan_gone", "step-2")

	assert.False(t, decision.Allowed)
	assert.Equal(t, "/loan/apply", decision.RedirectPath)
}

func TestGuardUnknownSlugIsAllowed(t *testing.T) {
	source := &fakeSource{loans: map[string]bool{}, completed: map[string]bool{}}
	g := newTestGuard(t, source)

	assert.True(t, g.Check("", "not-a-step").Allowed)
}

func TestGuardHistoricalSlugAliases(t *testing.T) {
	source := &fakeSource{
		loans: map[string]bool{"loan_1": true},
		completed: map[string]bool{
			"loan_1/personal": true,
		},
	}
	g := newTestGuard(t, source)

	// co-applicant shares income's ordinal, so only personal gates it.
	assert.True(t, g.Check("loan_1", "co-applicant").Allowed)

	// condition shares vehicle's ordinal and income is still open.
	decision := g.Check("loan_1", "condition")
	assert.False(t, decision.Allowed)
	assert.Equal(t, StepIncome, decision.BlockingStep)
}
