// internal/wizard/steps.go
package wizard

// Step names. The condition section is still tracked per-loan but sits
// outside the canonical sequence and the progress denominator.
const (
	StepPersonal = "personal"
	StepIncome   = "income"
	StepVehicle  = "vehicle"
	StepPhotos   = "photos"
	StepReview   = "review"
	StepSubmit   = "submit"

	StepCondition = "condition"
)

// StepDefinition binds one wizard screen to its route slug and its
// position in the canonical sequence.
type StepDefinition struct {
	Number int
	Label  string
	Slug   string
	Name   string
}

// Definitions is the canonical ordered step sequence. Reaching a step
// requires every earlier step to be complete; submit additionally shares
// review's requirement so a finished application can be submitted
// directly from review.
var Definitions = []StepDefinition{
	{Number: 1, Label: "Personal", Slug: "step-1", Name: StepPersonal},
	{Number: 2, Label: "Income", Slug: "step-2", Name: StepIncome},
	{Number: 3, Label: "Vehicle", Slug: "vehicle", Name: StepVehicle},
	{Number: 4, Label: "Photos", Slug: "photos", Name: StepPhotos},
	{Number: 5, Label: "Review", Slug: "review", Name: StepReview},
	{Number: 6, Label: "Submit", Slug: "submit", Name: StepSubmit},
}

// requiredOrdinal maps every recognized route slug to the highest step
// ordinal whose predecessors must be complete before the slug is
// reachable. The extra segments (co-applicant, condition, step-3,
// step-4) are historical aliases still present in saved links.
var requiredOrdinal = map[string]int{
	"step-1":       1,
	"step-2":       2,
	"co-applicant": 2,
	"vehicle":      3,
	"step-3":       3,
	"condition":    3,
	"photos":       4,
	"step-4":       4,
	"review":       5,
	"submit":       5,
}

// StepNames returns the canonical step keys in order.
func StepNames() []string {
	names := make([]string, len(Definitions))
	for i, d := range Definitions {
		names[i] = d.Name
	}
	return names
}

// KnownSegment reports whether a path segment is a step slug rather
// than a loan id.
func KnownSegment(segment string) bool {
	_, ok := requiredOrdinal[segment]
	return ok
}

// ByName returns the definition for a canonical step name.
func ByName(name string) (StepDefinition, bool) {
	for _, d := range Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return StepDefinition{}, false
}
