// internal/submit/validate.go
package submit

import (
	"drivecash/internal/models"
)

// MissingField identifies one unmet requirement and the wizard step
// where the applicant can fix it.
type MissingField struct {
	Field    string `json:"field"`
	Step     int    `json:"step"`
	StepName string `json:"stepName"`
}

// fieldRule describes one logical required field. Historic step screens
// wrote different key names for the same datum, so each rule carries the
// accepted aliases in preference order.
type fieldRule struct {
	label    string
	step     int
	stepName string
	// sections are checked in order; the first alias hit anywhere wins.
	aliases []string
}

const (
	stepNamePersonal = "Personal Information"
	stepNameIncome   = "Income & Employment"
	stepNameVehicle  = "Vehicle Information"
)

var personalRules = []fieldRule{
	{"Full Name or First Name", 1, stepNamePersonal, []string{"fullName", "firstName"}},
	{"Email Address", 1, stepNamePersonal, []string{"email"}},
	{"Phone Number", 1, stepNamePersonal, []string{"phoneNumber", "phone"}},
	{"Date of Birth", 1, stepNamePersonal, []string{"dob", "dateOfBirth"}},
	{"Social Security Number", 1, stepNamePersonal, []string{"ssn", "socialSecurity"}},
	{"ID Number", 1, stepNamePersonal, []string{"driverLicense", "idNumber", "identificationNumber"}},
	{"Street Address", 1, stepNamePersonal, []string{"homeAddress", "streetAddress", "address"}},
	{"City", 1, stepNamePersonal, []string{"city"}},
	{"State", 1, stepNamePersonal, []string{"state"}},
	{"ZIP Code", 1, stepNamePersonal, []string{"zipCode", "postalCode"}},
	{"Loan Amount", 1, stepNamePersonal, []string{"loanAmount"}},
}

var vehicleRules = []fieldRule{
	{"Vehicle Make", 3, stepNameVehicle, []string{"make"}},
	{"Vehicle Model", 3, stepNameVehicle, []string{"model"}},
	{"Vehicle Year", 3, stepNameVehicle, []string{"year"}},
	{"Vehicle VIN", 3, stepNameVehicle, []string{"vin"}},
	{"Vehicle Mileage", 3, stepNameVehicle, []string{"odometerMileage", "mileage"}},
}

// mandatoryDocuments are the photo slots every submission must fill,
// keyed by field name with the applicant-facing label.
var mandatoryDocuments = []struct {
	Field string
	Label string
}{
	{"govIdFront", "Government ID (Front)"},
	{"govIdBack", "Government ID (Back)"},
	{"title", "Vehicle Title - Front"},
	{"backOfTitle", "Vehicle Title - Back"},
	{"vinFromTitle", "VIN from Title"},
	{"vinFromDash", "VIN from Dashboard"},
	{"vinFromSticker", "VIN from Door Sticker"},
	{"odometer", "Odometer Reading"},
}

// ValidateRequiredFields checks every logical required field against
// its alias set and returns one entry per unmet requirement, in
// step order.
func ValidateRequiredFields(loan *models.LoanDraft) []MissingField {
	var missing []MissingField

	for _, rule := range personalRules {
		if !sectionHasAny(loan.Personal, rule.aliases) {
			missing = append(missing, MissingField{Field: rule.label, Step: rule.step, StepName: rule.stepName})
		}
	}

	// Employment status and monthly income historically landed in
	// either the income or the personal section.
	if !sectionHasAny(loan.Income, []string{"employmentStatus"}) &&
		!sectionHasAny(loan.Personal, []string{"employmentStatus"}) {
		missing = append(missing, MissingField{Field: "Employment Status", Step: 2, StepName: stepNameIncome})
	}
	if !sectionHasAny(loan.Income, []string{"monthlyIncome", "grossMonthlyIncome"}) &&
		!sectionHasAny(loan.Personal, []string{"monthlyIncome"}) {
		missing = append(missing, MissingField{Field: "Monthly Income", Step: 2, StepName: stepNameIncome})
	}

	for _, rule := range vehicleRules {
		if !sectionHasAny(loan.Vehicle, rule.aliases) {
			missing = append(missing, MissingField{Field: rule.label, Step: rule.step, StepName: rule.stepName})
		}
	}

	return missing
}

// ValidateMandatoryDocuments returns the labels of required document
// slots with no attachment. A slot is satisfied by a photo under its
// field name or by a document whose kind or field matches.
func ValidateMandatoryDocuments(loan *models.LoanDraft) []string {
	var missing []string
	for _, slot := range mandatoryDocuments {
		if len(loan.Photos[slot.Field]) > 0 {
			continue
		}
		if documentMatches(loan.Documents, slot.Field) {
			continue
		}
		missing = append(missing, slot.Label)
	}
	return missing
}

func documentMatches(documents []models.Upload, field string) bool {
	for _, doc := range documents {
		if string(doc.Kind) == field || doc.Field == field {
			return true
		}
	}
	return false
}

// sectionHasAny reports whether any alias resolves to a present,
// non-empty value.
func sectionHasAny(sec models.Section, aliases []string) bool {
	for _, key := range aliases {
		v, ok := sec[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val != "" {
				return true
			}
		case bool:
			if val {
				return true
			}
		case int:
			if val != 0 {
				return true
			}
		case float64:
			if val != 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}
