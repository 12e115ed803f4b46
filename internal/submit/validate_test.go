// internal/submit/validate_test.go
package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"drivecash/internal/models"
)

func completeDraft() *models.LoanDraft {
	loan := &models.LoanDraft{
		ID:     "loan_1",
		Status: models.StatusDraft,
		Personal: models.Section{
			"fullName":      "Jane Doe",
			"email":         "jane@example.com",
			"phoneNumber":   "555-0100",
			"dob":           "1990-04-01",
			"ssn":           "123-45-6789",
			"driverLicense": "D1234567",
			"homeAddress":   "1 Main St",
			"city":          "Austin",
			"state":         "TX",
			"zipCode":       "78701",
			"loanAmount":    2500.0,
		},
		Income: models.Section{
			"employmentStatus": "employed",
			"monthlyIncome":    4200.0,
		},
		Vehicle: models.Section{
			"make":            "Toyota",
			"model":           "Camry",
			"year":            "2019",
			"vin":             "1HGCM82633A004352",
			"odometerMileage": 42000.0,
		},
		Photos: map[string][]models.Upload{},
	}
	for _, slot := range mandatoryDocuments {
		loan.Photos[slot.Field] = []models.Upload{
			{
				ID:       "upl_" + slot.Field,
				Field:    slot.Field,
				Filename: slot.Field + ".jpg",
				Source:   models.AttachmentLocal,
				Data:     []byte("jpeg-bytes"),
			},
		}
	}
	return loan
}

func TestCompleteDraftHasNoMissingFields(t *testing.T) {
	assert.Empty(t, ValidateRequiredFields(completeDraft()))
	assert.Empty(t, ValidateMandatoryDocuments(completeDraft()))
}

func TestMissingVINReportsOneVehicleField(t *testing.T) {
	loan := completeDraft()
	delete(loan.Vehicle, "vin")

	missing := ValidateRequiredFields(loan)

	assert.Len(t, missing, 1)
	assert.Equal(t, "Vehicle VIN", missing[0].Field)
	assert.Equal(t, 3, missing[0].Step)
	assert.Equal(t, "Vehicle Information", missing[0].StepName)
}

func TestAliasesSatisfyRequirements(t *testing.T) {
	loan := completeDraft()
	delete(loan.Personal, "fullName")
	loan.Personal["firstName"] = "Jane"
	delete(loan.Personal, "phoneNumber")
	loan.Personal["phone"] = "555-0100"
	delete(loan.Personal, "zipCode")
	loan.Personal["postalCode"] = "78701"
	delete(loan.Vehicle, "odometerMileage")
	loan.Vehicle["mileage"] = 42000.0

	assert.Empty(t, ValidateRequiredFields(loan))
}

func TestEmptyStringDoesNotSatisfyRequirement(t *testing.T) {
	loan := completeDraft()
	loan.Personal["email"] = ""

	missing := ValidateRequiredFields(loan)

	assert.Len(t, missing, 1)
	assert.Equal(t, "Email Address", missing[0].Field)
}

func TestIncomeFieldsFallBackToPersonalSection(t *testing.T) {
	loan := completeDraft()
	loan.Income = models.Section{}
	loan.Personal["employmentStatus"] = "self-employed"
	loan.Personal["monthlyIncome"] = 3800.0

	assert.Empty(t, ValidateRequiredFields(loan))
}

func TestEmptyDraftReportsEveryRequirement(t *testing.T) {
	loan := &models.LoanDraft{ID: "loan_1"}

	missing := ValidateRequiredFields(loan)

	// 11 personal, 2 income, 5 vehicle.
	assert.Len(t, missing, 18)
}

func TestMissingDocumentSlots(t *testing.T) {
	loan := completeDraft()
	delete(loan.Photos, "odometer")
	delete(loan.Photos, "backOfTitle")

	missing := ValidateMandatoryDocuments(loan)

	assert.ElementsMatch(t, []string{"Odometer Reading", "Vehicle Title - Back"}, missing)
}

func TestDocumentKindSatisfiesSlot(t *testing.T) {
	loan := completeDraft()
	delete(loan.Photos, "odometer")
	loan.Documents = []models.Upload{
		{ID: "upl_x", Kind: models.UploadKind("odometer"), Filename: "odo.jpg"},
	}

	assert.Empty(t, ValidateMandatoryDocuments(loan))
}

func TestDocumentFieldSatisfiesSlot(t *testing.T) {
	loan := completeDraft()
	delete(loan.Photos, "govIdBack")
	loan.Documents = []models.Upload{
		{ID: "upl_y", Field: "govIdBack", Filename: "id-back.jpg"},
	}

	assert.Empty(t, ValidateMandatoryDocuments(loan))
}
