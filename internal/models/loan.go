// internal/models/loan.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a loan draft. Until the first
// submission the value is client-local; afterwards the backend copy is
// authoritative and the local one is an advisory cache.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusQuery     Status = "query"
	StatusWithdrawn Status = "withdrawn"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusQuery, StatusWithdrawn:
		return true
	}
	return false
}

// Section holds the free-form keyed fields of one wizard step. Keys are
// dynamic: whatever the step UI wrote is preserved and later flattened
// for the backend.
type Section map[string]interface{}

// Clone returns a shallow copy of the section.
func (s Section) Clone() Section {
	if s == nil {
		return Section{}
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Vehicle is one entry of the alternate multi-vehicle flow.
type Vehicle struct {
	ID     string   `json:"id"`
	VIN    string   `json:"vin"`
	Year   string   `json:"year"`
	Make   string   `json:"make"`
	Model  string   `json:"model"`
	Photos []Upload `json:"photos"`
}

// LoanDraft is one in-progress or submitted application.
type LoanDraft struct {
	ID        string `json:"id"`
	BackendID string `json:"backendId,omitempty"`
	Status    Status `json:"status"`

	Personal    Section `json:"personal"`
	Income      Section `json:"income"`
	Vehicle     Section `json:"vehicle"`
	CoApplicant Section `json:"coApplicant"`
	Condition   Section `json:"condition"`

	// Photos maps a document field name (govIdFront, odometer, ...) to the
	// files attached for it. Uploads not tied to a field land in Documents.
	Photos    map[string][]Upload `json:"photos"`
	Vehicles  []Vehicle           `json:"vehicles"`
	Documents []Upload            `json:"documents"`

	StepCompletion map[string]bool `json:"stepCompletion"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the whole persisted state: every draft of the current session
// plus the active-loan pointer. Invariant: a non-empty ActiveLoanID must
// reference a key of Loans; hydration discards snapshots that violate it.
type Store struct {
	ActiveLoanID string                `json:"activeLoanId,omitempty"`
	Loans        map[string]*LoanDraft `json:"loans"`
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{Loans: map[string]*LoanDraft{}}
}

// Consistent reports whether the active-loan pointer references an
// existing draft.
func (s *Store) Consistent() bool {
	if s.ActiveLoanID == "" {
		return true
	}
	_, ok := s.Loans[s.ActiveLoanID]
	return ok
}

// NewLoanID generates a fresh client-side draft identifier.
func NewLoanID() string {
	return "loan_" + uuid.New().String()
}

// NewVehicleID generates an identifier for a vehicle sub-entity.
func NewVehicleID() string {
	return "veh_" + uuid.New().String()
}

// Clone returns a deep copy of the draft. The store hands out clones so
// no caller can mutate state outside a dispatch.
func (l *LoanDraft) Clone() *LoanDraft {
	if l == nil {
		return nil
	}
	out := *l
	out.Personal = l.Personal.Clone()
	out.Income = l.Income.Clone()
	out.Vehicle = l.Vehicle.Clone()
	out.CoApplicant = l.CoApplicant.Clone()
	out.Condition = l.Condition.Clone()

	out.Photos = make(map[string][]Upload, len(l.Photos))
	for field, uploads := range l.Photos {
		out.Photos[field] = append([]Upload(nil), uploads...)
	}
	out.Vehicles = make([]Vehicle, len(l.Vehicles))
	for i, v := range l.Vehicles {
		v.Photos = append([]Upload(nil), v.Photos...)
		out.Vehicles[i] = v
	}
	out.Documents = append([]Upload(nil), l.Documents...)

	out.StepCompletion = make(map[string]bool, len(l.StepCompletion))
	for k, v := range l.StepCompletion {
		out.StepCompletion[k] = v
	}
	return &out
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	out := &Store{
		ActiveLoanID: s.ActiveLoanID,
		Loans:        make(map[string]*LoanDraft, len(s.Loans)),
	}
	for id, loan := range s.Loans {
		out.Loans[id] = loan.Clone()
	}
	return out
}
