// internal/wizard/guard.go
package wizard

import (
	"fmt"

	"drivecash/internal/common/logger"
)

// StepSource is the read-side of the loan store the guard consults.
type StepSource interface {
	IsStepComplete(step, loanID string) bool
	HasLoan(id string) bool
}

// Decision is the outcome of a guard check. When access is denied,
// RedirectPath points at the first incomplete step in sequence order so
// users are funneled through gaps instead of skipping them.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	RedirectPath string `json:"redirectPath,omitempty"`
	Reason       string `json:"reason,omitempty"`
	BlockingStep string `json:"blockingStep,omitempty"`
}

// Guard decides whether a requested wizard step is reachable for a loan.
type Guard struct {
	source      StepSource
	landingPath string
	logger      logger.Logger
}

func NewGuard(source StepSource, landingPath string, log logger.Logger) *Guard {
	return &Guard{
		source:      source,
		landingPath: landingPath,
		logger:      log.WithFields(map[string]interface{}{"component": "stepguard"}),
	}
}

// Check evaluates whether slug is reachable for loanID. Step 1 is always
// reachable; an unknown loan id redirects to the landing entry point; an
// unknown slug is treated as the landing page and allowed.
func (g *Guard) Check(loanID, slug string) Decision {
	ordinal, ok := requiredOrdinal[slug]
	if !ok {
		return Decision{Allowed: true}
	}

	if !g.source.HasLoan(loanID) {
		g.logger.Warn("loan id from route not found, redirecting to landing", map[string]interface{}{
			"loanId": loanID,
			"slug":   slug,
		})
		return Decision{
			Allowed:      false,
			RedirectPath: g.landingPath,
			Reason:       "loan not found",
		}
	}

	if ordinal == 1 {
		return Decision{Allowed: true}
	}

	for _, def := range Definitions[:ordinal-1] {
		if g.source.IsStepComplete(def.Name, loanID) {
			continue
		}
		first := g.firstIncomplete(loanID)
		g.logger.Debug("step blocked", map[string]interface{}{
			"loanId":    loanID,
			"slug":      slug,
			"blockedBy": first.Name,
		})
		return Decision{
			Allowed:      false,
			RedirectPath: g.StepPath(loanID, first.Slug),
			Reason:       fmt.Sprintf("complete %s first", first.Label),
			BlockingStep: first.Name,
		}
	}

	return Decision{Allowed: true}
}

// firstIncomplete returns the earliest canonical step that is not
// complete, falling back to step 1.
func (g *Guard) firstIncomplete(loanID string) StepDefinition {
	for _, def := range Definitions {
		if !g.source.IsStepComplete(def.Name, loanID) {
			return def
		}
	}
	return Definitions[0]
}

// StepPath builds the route for a step slug of a loan.
func (g *Guard) StepPath(loanID, slug string) string {
	if loanID == "" {
		return fmt.Sprintf("%s/%s", g.landingPath, slug)
	}
	return fmt.Sprintf("%s/%s/%s", g.landingPath, loanID, slug)
}
