// internal/store/actions.go
package store

import "drivecash/internal/models"

// Action is one typed mutation applied to the draft store through
// Dispatch. The reducer treats unknown loan ids as no-ops so a stale
// reference can never crash the store.
type Action interface {
	actionName() string
}

// Seed carries the optional initial contents of a new draft.
type Seed struct {
	ID             string
	Personal       models.Section
	Income         models.Section
	Vehicle        models.Section
	CoApplicant    models.Section
	Condition      models.Section
	Vehicles       []models.Vehicle
	Documents      []models.Upload
	StepCompletion map[string]bool
}

type CreateLoan struct {
	Seed Seed
	// id is resolved before dispatch so CreateLoan can return it
	// synchronously to the caller.
	id string
}

type SetActiveLoan struct {
	LoanID string
}

type UpdateLoanSection struct {
	LoanID  string
	Section string
	Patch   models.Section
}

type AddVehicle struct {
	LoanID  string
	Vehicle models.Vehicle
}

type UpdateVehicle struct {
	LoanID    string
	VehicleID string
	Patch     models.Section
}

type RemoveVehicle struct {
	LoanID    string
	VehicleID string
}

type AddUpload struct {
	LoanID string
	Upload models.Upload
}

type RemoveUpload struct {
	LoanID   string
	UploadID string
}

type SetStepCompletion struct {
	LoanID    string
	Step      string
	Completed bool
}

type DeleteLoan struct {
	LoanID string
}

type SetBackendID struct {
	LoanID    string
	BackendID string
}

type UpdateLoanStatus struct {
	LoanID string
	Status models.Status
}

func (CreateLoan) actionName() string        { return "CREATE_LOAN" }
func (SetActiveLoan) actionName() string     { return "SET_ACTIVE_LOAN" }
func (UpdateLoanSection) actionName() string { return "UPDATE_LOAN_SECTION" }
func (AddVehicle) actionName() string        { return "ADD_VEHICLE" }
func (UpdateVehicle) actionName() string     { return "UPDATE_VEHICLE" }
func (RemoveVehicle) actionName() string     { return "REMOVE_VEHICLE" }
func (AddUpload) actionName() string         { return "ADD_UPLOAD" }
func (RemoveUpload) actionName() string      { return "REMOVE_UPLOAD" }
func (SetStepCompletion) actionName() string { return "SET_STEP_COMPLETION" }
func (DeleteLoan) actionName() string        { return "DELETE_LOAN" }
func (SetBackendID) actionName() string      { return "SET_BACKEND_ID" }
func (UpdateLoanStatus) actionName() string  { return "UPDATE_LOAN_STATUS" }
