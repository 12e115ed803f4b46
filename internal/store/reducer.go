// internal/store/reducer.go
package store

import (
	"time"

	"drivecash/internal/models"
)

// reduce applies one action to the state and returns the next state.
// The input state is never mutated; every change path clones the draft it
// touches. Actions referencing an unknown loan return the state unchanged.
func reduce(state *models.Store, action Action, now time.Time) *models.Store {
	switch a := action.(type) {
	case CreateLoan:
		loan := &models.LoanDraft{
			ID:             a.id,
			Status:         models.StatusDraft,
			Personal:       a.Seed.Personal.Clone(),
			Income:         a.Seed.Income.Clone(),
			Vehicle:        a.Seed.Vehicle.Clone(),
			CoApplicant:    a.Seed.CoApplicant.Clone(),
			Condition:      a.Seed.Condition.Clone(),
			Photos:         map[string][]models.Upload{},
			Vehicles:       append([]models.Vehicle(nil), a.Seed.Vehicles...),
			Documents:      append([]models.Upload(nil), a.Seed.Documents...),
			StepCompletion: map[string]bool{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for k, v := range a.Seed.StepCompletion {
			loan.StepCompletion[k] = v
		}
		next := shallowCopy(state)
		next.Loans[loan.ID] = loan
		next.ActiveLoanID = loan.ID
		return next

	case SetActiveLoan:
		// The id must reference an existing draft; an unknown id is a
		// no-op rather than a dangling pointer.
		if _, ok := state.Loans[a.LoanID]; !ok {
			return state
		}
		next := shallowCopy(state)
		next.ActiveLoanID = a.LoanID
		return next

	case UpdateLoanSection:
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			section, ok := sectionOf(loan, a.Section)
			if !ok {
				return false
			}
			merged := section.Clone()
			for k, v := range a.Patch {
				merged[k] = v
			}
			setSection(loan, a.Section, merged)
			return true
		})

	case AddVehicle:
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			v := a.Vehicle
			if v.ID == "" {
				v.ID = models.NewVehicleID()
			}
			if v.Photos == nil {
				v.Photos = []models.Upload{}
			}
			loan.Vehicles = append(loan.Vehicles, v)
			return true
		})

	case UpdateVehicle:
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			for i := range loan.Vehicles {
				if loan.Vehicles[i].ID == a.VehicleID {
					applyVehiclePatch(&loan.Vehicles[i], a.Patch)
					return true
				}
			}
			return false
		})

	case RemoveVehicle:
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			kept := loan.Vehicles[:0]
			for _, v := range loan.Vehicles {
				if v.ID != a.VehicleID {
					kept = append(kept, v)
				}
			}
			loan.Vehicles = kept
			return true
		})

	case AddUpload:
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			u := a.Upload
			if u.ID == "" {
				u.ID = models.NewUploadID()
			}
			if u.VehicleID != "" {
				for i := range loan.Vehicles {
					if loan.Vehicles[i].ID == u.VehicleID {
						loan.Vehicles[i].Photos = append(loan.Vehicles[i].Photos, u)
						return true
					}
				}
			}
			if u.Field != "" {
				loan.Photos[u.Field] = append(loan.Photos[u.Field], u)
				return true
			}
			loan.Documents = append(loan.Documents, u)
			return true
		})

	case RemoveUpload:
		// Sweeps every storage location; removing an absent id is a no-op.
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			removed := false
			for i := range loan.Vehicles {
				kept := dropUpload(loan.Vehicles[i].Photos, a.UploadID)
				if len(kept) != len(loan.Vehicles[i].Photos) {
					removed = true
				}
				loan.Vehicles[i].Photos = kept
			}
			for field, uploads := range loan.Photos {
				kept := dropUpload(uploads, a.UploadID)
				if len(kept) != len(uploads) {
					removed = true
				}
				loan.Photos[field] = kept
			}
			kept := dropUpload(loan.Documents, a.UploadID)
			if len(kept) != len(loan.Documents) {
				removed = true
			}
			loan.Documents = kept
			return removed
		})

	case SetStepCompletion:
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			loan.StepCompletion[a.Step] = a.Completed
			return true
		})

	case DeleteLoan:
		if _, ok := state.Loans[a.LoanID]; !ok {
			return state
		}
		next := shallowCopy(state)
		delete(next.Loans, a.LoanID)
		if next.ActiveLoanID == a.LoanID {
			next.ActiveLoanID = ""
		}
		return next

	case SetBackendID:
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			loan.BackendID = a.BackendID
			return true
		})

	case UpdateLoanStatus:
		if !models.ValidStatus(a.Status) {
			return state
		}
		return withLoan(state, a.LoanID, now, func(loan *models.LoanDraft) bool {
			loan.Status = a.Status
			return true
		})
	}

	return state
}

// withLoan clones the addressed draft, applies fn, and refreshes
// updatedAt when fn reports a change. Unknown loan ids fall through to
// the unchanged state.
func withLoan(state *models.Store, loanID string, now time.Time, fn func(*models.LoanDraft) bool) *models.Store {
	loan, ok := state.Loans[loanID]
	if !ok {
		return state
	}
	clone := loan.Clone()
	if !fn(clone) {
		return state
	}
	clone.UpdatedAt = now
	next := shallowCopy(state)
	next.Loans[loanID] = clone
	return next
}

func shallowCopy(state *models.Store) *models.Store {
	next := &models.Store{
		ActiveLoanID: state.ActiveLoanID,
		Loans:        make(map[string]*models.LoanDraft, len(state.Loans)),
	}
	for id, loan := range state.Loans {
		next.Loans[id] = loan
	}
	return next
}

func sectionOf(loan *models.LoanDraft, name string) (models.Section, bool) {
	switch name {
	case "personal":
		return loan.Personal, true
	case "income":
		return loan.Income, true
	case "vehicle":
		return loan.Vehicle, true
	case "coApplicant":
		return loan.CoApplicant, true
	case "condition":
		return loan.Condition, true
	}
	return nil, false
}

func setSection(loan *models.LoanDraft, name string, section models.Section) {
	switch name {
	case "personal":
		loan.Personal = section
	case "income":
		loan.Income = section
	case "vehicle":
		loan.Vehicle = section
	case "coApplicant":
		loan.CoApplicant = section
	case "condition":
		loan.Condition = section
	}
}

func applyVehiclePatch(v *models.Vehicle, patch models.Section) {
	for key, raw := range patch {
		val, ok := raw.(string)
		if !ok {
			continue
		}
		switch key {
		case "vin":
			v.VIN = val
		case "year":
			v.Year = val
		case "make":
			v.Make = val
		case "model":
			v.Model = val
		}
	}
}

func dropUpload(uploads []models.Upload, id string) []models.Upload {
	kept := uploads[:0]
	for _, u := range uploads {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	return kept
}
