// internal/backend/transform.go
package backend

import (
	"strings"
	"time"
	"unicode"

	"drivecash/internal/models"
)

// coreKeys are the snake_case fields the adapter maps explicitly. Dynamic
// section fields whose snake form collides with one of these are not
// duplicated under a section prefix.
var coreKeys = map[string]struct{}{
	"application_id": {}, "is_draft": {}, "status": {},
	"first_name": {}, "last_name": {}, "email": {}, "phone": {},
	"dob": {}, "social_security": {}, "banks_name": {},
	"street": {}, "city": {}, "state": {}, "zip_code": {},
	"identification_type": {}, "identification_no": {}, "id_issuing_agency": {},
	"employment_status": {}, "income_source": {}, "income": {},
	"gross_monthly_income": {}, "employment_length": {}, "pay_frequency": {},
	"next_pay_date": {}, "last_pay_date": {}, "active_bankruptcy": {},
	"direct_deposit": {}, "military_status": {},
	"amount": {}, "term": {}, "purpose": {},
	"vehicle_make": {}, "vehicle_model": {}, "vehicle_year": {}, "vehicle_vin": {},
	"vehicle_mileage": {}, "vehicle_color": {}, "license_plate": {}, "registration_state": {},
	"applicant_estimated_value": {}, "credit_score": {},
	"accept_terms": {}, "signature": {},
}

// TransformLoan flattens a draft into the snake_case payload the loan
// service accepts. Null, empty-string, empty-slice and empty-map values
// are stripped before the payload goes on the wire.
func TransformLoan(loan *models.LoanDraft) map[string]interface{} {
	return transformLoanAt(loan, time.Now().UTC())
}

func transformLoanAt(loan *models.LoanDraft, now time.Time) map[string]interface{} {
	personal := loan.Personal
	income := loan.Income
	vehicle := loan.Vehicle
	coApplicant := loan.CoApplicant
	condition := loan.Condition

	status := loan.Status
	if status == "" {
		status = models.StatusDraft
	}

	fullName := strField(personal, "fullName")
	firstName := strField(personal, "firstName")
	lastName := strField(personal, "lastName")
	if fullName != "" {
		parts := strings.SplitN(fullName, " ", 2)
		firstName = parts[0]
		if len(parts) > 1 {
			lastName = parts[1]
		} else if lastName == "" {
			lastName = fullName
		}
	}

	payload := map[string]interface{}{
		"application_id": loan.ID,
		"is_draft":       status == models.StatusDraft,
		"status":         status,

		"first_name":      firstName,
		"last_name":       lastName,
		"email":           strField(personal, "email"),
		"phone":           strField(personal, "phoneNumber", "phone"),
		"dob":             firstValue(personal, "dob", "dateOfBirth"),
		"social_security": strField(personal, "ssn", "socialSecurity"),
		"banks_name":      strField(personal, "bankName"),

		"street":   strField(personal, "homeAddress", "streetAddress", "address"),
		"city":     strField(personal, "city"),
		"state":    strField(personal, "state"),
		"zip_code": strField(personal, "zipCode", "postalCode"),

		"identification_type": strFieldDefault(personal, "drivers_license", "identificationType"),
		"identification_no":   strField(personal, "driverLicense", "idNumber"),
		"id_issuing_agency":   strField(personal, "idIssuingAgency"),

		"employment_status":    firstValueDefault("employed", income["employmentStatus"], personal["employmentStatus"]),
		"income_source":        firstValue2(income, personal, "employerName", "employer"),
		"income":               firstValue2(income, personal, "annualIncome"),
		"gross_monthly_income": firstValue2(personal, income, "monthlyIncome"),
		"employment_length":    firstValue2(income, personal, "yearsEmployed"),
		"pay_frequency":        firstValue2(income, personal, "payFrequency"),
		"next_pay_date":        firstValue2(income, personal, "nextPayDate"),
		"last_pay_date":        firstValue2(income, personal, "lastPayDate"),
		"active_bankruptcy":    firstValueDefault("No", income["activeBankruptcy"], personal["activeBankruptcy"]),
		"direct_deposit":       firstValue2(income, personal, "directDeposit"),
		"military_status":      firstValue2(income, personal, "militaryStatus"),

		"amount":  firstValueDefault(1000, personal["loanAmount"]),
		"term":    firstValueDefault(36, personal["loanTerm"]),
		"purpose": strField(personal, "loanPurpose"),

		"vehicle_make":    strField(vehicle, "make"),
		"vehicle_model":   strField(vehicle, "model"),
		"vehicle_year":    firstValue(vehicle, "year"),
		"vehicle_vin":     strField(vehicle, "vin"),
		"vehicle_mileage": firstValue(vehicle, "odometerMileage", "mileage"),
		"vehicle_color":   strField(vehicle, "vehicleColor", "color"),

		"license_plate":      strField(vehicle, "licensePlate"),
		"registration_state": strField(vehicle, "registrationState"),

		"applicant_estimated_value": firstValue(vehicle, "estimatedCarValue", "estimatedValue"),
		"credit_score":              firstValue2(personal, income, "creditScore"),

		"accept_terms": status != models.StatusDraft,
		"signature":    nil,
	}

	if v, ok := personal["acceptTerms"]; ok {
		payload["accept_terms"] = v
	}
	if sig := strField(personal, "signature"); sig != "" {
		payload["signature"] = sig
	}

	addPrefixed(payload, "personal", personal, nil)
	addPrefixed(payload, "income", income, nil)
	addPrefixed(payload, "vehicle", vehicle, func(key string) bool {
		return strings.HasPrefix(key, "vehicle_")
	})

	for key, value := range coApplicant {
		if isFalsy(value) {
			continue
		}
		payload["co_applicant_"+camelToSnake(key)] = value
	}
	for key, value := range condition {
		if isFalsy(value) {
			continue
		}
		payload["condition_"+camelToSnake(key)] = value
	}

	documentCount := len(loan.Documents)
	photoMeta := map[string]interface{}{}
	for field, uploads := range loan.Photos {
		if len(uploads) == 0 {
			continue
		}
		documentCount += len(uploads)
		entries := make([]map[string]interface{}, 0, len(uploads))
		for _, u := range uploads {
			entries = append(entries, map[string]interface{}{
				"name": u.Filename,
				"size": u.Size,
				"type": u.MimeType,
			})
		}
		photoMeta[field] = entries
	}
	if documentCount > 0 {
		payload["has_documents"] = true
		payload["document_count"] = documentCount
		payload["photo_metadata"] = photoMeta
	}

	payload["submission_metadata"] = map[string]interface{}{
		"submitted_from_review": true,
		"review_timestamp":      now.Format(time.RFC3339),
		"all_fields_reviewed":   true,
		"fields_in_review": map[string]interface{}{
			"personal":    len(personal),
			"income":      len(income),
			"vehicle":     len(vehicle),
			"coApplicant": len(coApplicant),
			"condition":   len(condition),
			"photos":      len(loan.Photos),
		},
	}

	return RemoveNullValues(payload)
}

// addPrefixed copies dynamic section fields not covered by the explicit
// mapping under "{section}_{snake_key}".
func addPrefixed(payload map[string]interface{}, section string, fields models.Section, skip func(string) bool) {
	for key, value := range fields {
		if skip != nil && skip(key) {
			continue
		}
		if isFalsy(value) {
			continue
		}
		snake := camelToSnake(key)
		if _, core := coreKeys[snake]; core {
			continue
		}
		prefixed := section + "_" + snake
		if _, exists := payload[prefixed]; exists {
			continue
		}
		payload[prefixed] = value
	}
}

// RemoveNullValues strips nil, empty-string, empty-slice and empty-map
// entries so partially filled drafts do not overwrite backend fields
// with blanks.
func RemoveNullValues(payload map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case []interface{}:
			if len(v) == 0 {
				continue
			}
		case []map[string]interface{}:
			if len(v) == 0 {
				continue
			}
		case map[string]interface{}:
			if len(v) == 0 {
				continue
			}
		case models.Section:
			if len(v) == 0 {
				continue
			}
		}
		cleaned[key] = value
	}
	return cleaned
}

func camelToSnake(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isFalsy mirrors the loose emptiness rules of the legacy payload
// builder: nil, empty string, zero numbers and false all count as unset.
func isFalsy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	}
	return false
}

func strField(sec models.Section, keys ...string) string {
	for _, key := range keys {
		if s, ok := sec[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func strFieldDefault(sec models.Section, fallback string, keys ...string) string {
	if s := strField(sec, keys...); s != "" {
		return s
	}
	return fallback
}

func firstValue(sec models.Section, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := sec[key]; ok && !isFalsy(v) {
			return v
		}
	}
	return nil
}

// firstValue2 checks each key in the primary section, then the secondary.
func firstValue2(primary, secondary models.Section, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := primary[key]; ok && !isFalsy(v) {
			return v
		}
	}
	for _, key := range keys {
		if v, ok := secondary[key]; ok && !isFalsy(v) {
			return v
		}
	}
	return nil
}

func firstValueDefault(fallback interface{}, values ...interface{}) interface{} {
	for _, v := range values {
		if !isFalsy(v) {
			return v
		}
	}
	return fallback
}
