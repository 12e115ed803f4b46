// internal/backend/transform_test.go
package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drivecash/internal/models"
)

func testDraft() *models.LoanDraft {
	return &models.LoanDraft{
		ID:     "loan_1",
		Status: models.StatusDraft,
		Personal: models.Section{
			"fullName":   "Jane Doe",
			"email":      "jane@example.com",
			"ssn":        "",
			"city":       "Austin",
			"loanAmount": 2500.0,
		},
		Income: models.Section{
			"employmentStatus": "employed",
			"monthlyIncome":    4200.0,
		},
		Vehicle: models.Section{
			"make": "Toyota",
			"vin":  "1HGCM82633A004352",
		},
	}
}

func TestTransformSplitsFullName(t *testing.T) {
	payload := transformLoanAt(testDraft(), time.Now().UTC())

	assert.Equal(t, "Jane", payload["first_name"])
	assert.Equal(t, "Doe", payload["last_name"])
}

func TestTransformFullNameWithoutSurname(t *testing.T) {
	loan := testDraft()
	loan.Personal["fullName"] = "Cher"

	payload := transformLoanAt(loan, time.Now().UTC())

	assert.Equal(t, "Cher", payload["first_name"])
	assert.Equal(t, "Cher", payload["last_name"])
}

func TestTransformStripsEmptyValues(t *testing.T) {
	payload := transformLoanAt(testDraft(), time.Now().UTC())

	// ssn was empty and must not reach the wire.
	_, present := payload["social_security"]
	assert.False(t, present)
	// vehicle model was never set.
	_, present = payload["vehicle_model"]
	assert.False(t, present)
	// signature defaults to nil and is stripped too.
	_, present = payload["signature"]
	assert.False(t, present)
}

func TestTransformCoreFields(t *testing.T) {
	payload := transformLoanAt(testDraft(), time.Now().UTC())

	assert.Equal(t, "loan_1", payload["application_id"])
	assert.Equal(t, true, payload["is_draft"])
	assert.Equal(t, models.StatusDraft, payload["status"])
	assert.Equal(t, "jane@example.com", payload["email"])
	assert.Equal(t, 2500.0, payload["amount"])
	assert.Equal(t, 4200.0, payload["gross_monthly_income"])
	assert.Equal(t, "Toyota", payload["vehicle_make"])
	assert.Equal(t, "1HGCM82633A004352", payload["vehicle_vin"])
	assert.Equal(t, false, payload["accept_terms"])
}

func TestTransformAliasPreference(t *testing.T) {
	loan := testDraft()
	loan.Personal["phoneNumber"] = "555-0100"
	loan.Personal["phone"] = "555-0199"
	loan.Vehicle["odometerMileage"] = 88000.0
	loan.Vehicle["mileage"] = 99000.0

	payload := transformLoanAt(loan, time.Now().UTC())

	assert.Equal(t, "555-0100", payload["phone"])
	assert.Equal(t, 88000.0, payload["vehicle_mileage"])
}

func TestTransformDefaults(t *testing.T) {
	loan := &models.LoanDraft{ID: "loan_2"}

	payload := transformLoanAt(loan, time.Now().UTC())

	assert.Equal(t, "drivers_license", payload["identification_type"])
	assert.Equal(t, "employed", payload["employment_status"])
	assert.Equal(t, "No", payload["active_bankruptcy"])
	assert.Equal(t, 1000, payload["amount"])
	assert.Equal(t, 36, payload["term"])
}

func TestTransformDynamicSectionPrefixes(t *testing.T) {
	loan := testDraft()
	loan.Personal["referralCode"] = "FRIEND10"
	loan.Income["sideGigIncome"] = 300.0
	loan.Vehicle["keyCount"] = 2
	loan.CoApplicant = models.Section{"fullName": "John Doe"}
	loan.Condition = models.Section{"engineRuns": "yes"}

	payload := transformLoanAt(loan, time.Now().UTC())

	assert.Equal(t, "FRIEND10", payload["personal_referral_code"])
	assert.Equal(t, 300.0, payload["income_side_gig_income"])
	assert.Equal(t, 2, payload["vehicle_key_count"])
	assert.Equal(t, "John Doe", payload["co_applicant_full_name"])
	assert.Equal(t, "yes", payload["condition_engine_runs"])
}

func TestTransformPhotoMetadata(t *testing.T) {
	loan := testDraft()
	loan.Photos = map[string][]models.Upload{
		"govIdFront": {
			{ID: "upl_1", Filename: "id-front.jpg", MimeType: "image/jpeg", Size: 1024},
		},
	}
	loan.Documents = []models.Upload{
		{ID: "upl_2", Filename: "statement.pdf"},
	}

	payload := transformLoanAt(loan, time.Now().UTC())

	assert.Equal(t, true, payload["has_documents"])
	assert.Equal(t, 2, payload["document_count"])
	meta := payload["photo_metadata"].(map[string]interface{})
	entries := meta["govIdFront"].([]map[string]interface{})
	assert.Equal(t, "id-front.jpg", entries[0]["name"])
	assert.Equal(t, int64(1024), entries[0]["size"])
}

func TestTransformSubmittedLoanAcceptsTerms(t *testing.T) {
	loan := testDraft()
	loan.Status = models.StatusPending

	payload := transformLoanAt(loan, time.Now().UTC())

	assert.Equal(t, false, payload["is_draft"])
	assert.Equal(t, true, payload["accept_terms"])
}

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"odometerMileage", "odometer_mileage"},
		{"vin", "vin"},
		{"estimatedCarValue", "estimated_car_value"},
		{"x", "x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, camelToSnake(tt.in))
	}
}
