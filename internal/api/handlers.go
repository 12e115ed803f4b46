// internal/api/handlers.go
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"drivecash/internal/backend"
	"drivecash/internal/common/errors"
	"drivecash/internal/common/logger"
	"drivecash/internal/models"
	"drivecash/internal/store"
	"drivecash/internal/submit"
	"drivecash/internal/wizard"
)

// SubmissionRunner is the slice of the submission pipeline the API uses.
type SubmissionRunner interface {
	Run(ctx context.Context, loanID string) (*submit.Result, error)
}

// BackendGateway covers the loan-service calls exposed directly over
// the API rather than through the pipeline.
type BackendGateway interface {
	Status(ctx context.Context, backendID string) (string, error)
	Withdraw(ctx context.Context, backendID string) (*backend.Application, error)
	MyApplications(ctx context.Context) (*backend.ApplicationList, error)
	Approve(ctx context.Context, backendID string, approvedAmount float64, notes string) (*backend.Application, error)
	Reject(ctx context.Context, backendID string, notes string) (*backend.Application, error)
	RaiseQuery(ctx context.Context, backendID string, notes string) (*backend.Application, error)
	ResolveQuery(ctx context.Context, backendID string) (*backend.Application, error)
}

type Handlers struct {
	store    *store.Store
	guard    *wizard.Guard
	pipeline SubmissionRunner
	backend  BackendGateway
	logger   logger.Logger
}

func NewHandlers(st *store.Store, guard *wizard.Guard, pipeline SubmissionRunner, gw BackendGateway, log logger.Logger) *Handlers {
	return &Handlers{
		store:    st,
		guard:    guard,
		pipeline: pipeline,
		backend:  gw,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// --- drafts ---

type createLoanRequest struct {
	Personal    models.Section `json:"personal"`
	Income      models.Section `json:"income"`
	Vehicle     models.Section `json:"vehicle"`
	CoApplicant models.Section `json:"coApplicant"`
	Condition   models.Section `json:"condition"`
}

func (h *Handlers) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			renderBadRequest(w, r, "invalid JSON body")
			return
		}
	}

	id := h.store.CreateLoan(r.Context(), store.Seed{
		Personal:    req.Personal,
		Income:      req.Income,
		Vehicle:     req.Vehicle,
		CoApplicant: req.CoApplicant,
		Condition:   req.Condition,
	})

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"id": id})
}

func (h *Handlers) ListLoans(w http.ResponseWriter, r *http.Request) {
	state := h.store.State()
	loans := make([]*models.LoanDraft, 0, len(state.Loans))
	for _, loan := range state.Loans {
		loans = append(loans, loan)
	}
	render.JSON(w, r, map[string]interface{}{
		"activeLoanId": state.ActiveLoanID,
		"loans":        loans,
	})
}

func (h *Handlers) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	loan, ok := h.store.Loan(loanID)
	if !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}
	render.JSON(w, r, loan)
}

func (h *Handlers) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}
	h.store.Dispatch(r.Context(), store.DeleteLoan{LoanID: loanID})
	render.NoContent(w, r)
}

func (h *Handlers) GetActiveLoan(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"activeLoanId": h.store.ActiveLoanID()})
}

func (h *Handlers) SetActiveLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoanID string `json:"loanId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}
	if _, ok := h.store.Loan(req.LoanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(req.LoanID))
		return
	}
	h.store.Dispatch(r.Context(), store.SetActiveLoan{LoanID: req.LoanID})
	render.JSON(w, r, map[string]string{"activeLoanId": req.LoanID})
}

// --- sections ---

func (h *Handlers) PatchSection(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	section := chi.URLParam(r, "section")

	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}

	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}
	if err := validateSectionPatch(section, patch); err != nil {
		renderBadRequest(w, r, err.Error())
		return
	}

	h.store.Dispatch(r.Context(), store.UpdateLoanSection{
		LoanID:  loanID,
		Section: section,
		Patch:   models.Section(patch),
	})

	loan, _ := h.store.Loan(loanID)
	render.JSON(w, r, loan)
}

// --- vehicles ---

type vehicleRequest struct {
	VIN   string `json:"vin"`
	Year  string `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

func (h *Handlers) AddVehicle(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}

	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}

	vehicle := models.Vehicle{
		ID:    models.NewVehicleID(),
		VIN:   req.VIN,
		Year:  req.Year,
		Make:  req.Make,
		Model: req.Model,
	}
	h.store.Dispatch(r.Context(), store.AddVehicle{LoanID: loanID, Vehicle: vehicle})

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, vehicle)
}

func (h *Handlers) PatchVehicle(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	vehicleID := chi.URLParam(r, "vehicleID")
	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}

	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}

	h.store.Dispatch(r.Context(), store.UpdateVehicle{
		LoanID:    loanID,
		VehicleID: vehicleID,
		Patch:     models.Section(patch),
	})

	loan, _ := h.store.Loan(loanID)
	render.JSON(w, r, loan)
}

func (h *Handlers) RemoveVehicle(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	vehicleID := chi.URLParam(r, "vehicleID")
	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}
	h.store.Dispatch(r.Context(), store.RemoveVehicle{LoanID: loanID, VehicleID: vehicleID})
	render.NoContent(w, r)
}

// --- uploads ---

type uploadRequest struct {
	Kind      string `json:"kind"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	Size      int64  `json:"size"`
	Field     string `json:"field"`
	VehicleID string `json:"vehicleId"`
	// Data is base64 for locally held files; URL marks an already
	// uploaded remote file.
	Data string `json:"data"`
	URL  string `json:"url"`
}

func (h *Handlers) AddUpload(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.Data == "" && req.URL == "" {
		renderBadRequest(w, r, "either data or url is required")
		return
	}

	upload := models.Upload{
		ID:        models.NewUploadID(),
		Kind:      models.UploadKind(req.Kind),
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		Size:      req.Size,
		Field:     req.Field,
		VehicleID: req.VehicleID,
	}
	if req.Data != "" {
		data, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			renderBadRequest(w, r, "data is not valid base64")
			return
		}
		upload.Source = models.AttachmentLocal
		upload.Data = data
		if upload.Size == 0 {
			upload.Size = int64(len(data))
		}
	} else {
		upload.Source = models.AttachmentRemote
		upload.URL = req.URL
	}

	h.store.Dispatch(r.Context(), store.AddUpload{LoanID: loanID, Upload: upload})

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"id": upload.ID})
}

func (h *Handlers) RemoveUpload(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	uploadID := chi.URLParam(r, "uploadID")
	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}
	h.store.Dispatch(r.Context(), store.RemoveUpload{LoanID: loanID, UploadID: uploadID})
	render.NoContent(w, r)
}

// --- steps and progress ---

func (h *Handlers) SetStepCompletion(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	step := chi.URLParam(r, "step")
	if _, ok := h.store.Loan(loanID); !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}

	h.store.Dispatch(r.Context(), store.SetStepCompletion{
		LoanID:    loanID,
		Step:      step,
		Completed: req.Completed,
	})
	render.JSON(w, r, map[string]interface{}{
		"step":      step,
		"completed": req.Completed,
	})
}

func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	loan, ok := h.store.Loan(loanID)
	if !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}

	steps := make(map[string]bool, len(wizard.Definitions))
	for _, def := range wizard.Definitions {
		steps[def.Name] = h.store.IsStepComplete(def.Name, loanID)
	}
	render.JSON(w, r, map[string]interface{}{
		"loanId":     loanID,
		"status":     loan.Status,
		"percentage": h.store.CompletionPercentage(loanID),
		"steps":      steps,
	})
}

func (h *Handlers) CheckStep(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	slug := chi.URLParam(r, "slug")
	render.JSON(w, r, h.guard.Check(loanID, slug))
}

// --- submission and backend flows ---

func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	result, err := h.pipeline.Run(r.Context(), loanID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	loan, ok := h.store.Loan(loanID)
	if !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}
	if loan.BackendID == "" {
		renderBadRequest(w, r, "loan has not been submitted")
		return
	}

	if _, err := h.backend.Withdraw(r.Context(), loan.BackendID); err != nil {
		renderError(w, r, err)
		return
	}
	h.store.Dispatch(r.Context(), store.UpdateLoanStatus{LoanID: loanID, Status: models.StatusWithdrawn})
	render.JSON(w, r, map[string]string{"status": string(models.StatusWithdrawn)})
}

// RefreshStatus pulls the application's current status from the loan
// service and mirrors it into the local draft.
func (h *Handlers) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	loan, ok := h.store.Loan(loanID)
	if !ok {
		renderError(w, r, errors.NewLoanNotFoundError(loanID))
		return
	}
	if loan.BackendID == "" {
		render.JSON(w, r, map[string]interface{}{
			"status":         string(loan.Status),
			"needsAttention": loan.Status == models.StatusQuery,
		})
		return
	}

	status, err := h.backend.Status(r.Context(), loan.BackendID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if models.ValidStatus(models.Status(status)) && models.Status(status) != loan.Status {
		h.store.Dispatch(r.Context(), store.UpdateLoanStatus{
			LoanID: loanID,
			Status: models.Status(status),
		})
	}
	render.JSON(w, r, map[string]interface{}{
		"status":         status,
		"needsAttention": models.Status(status) == models.StatusQuery,
	})
}

func (h *Handlers) MyApplications(w http.ResponseWriter, r *http.Request) {
	list, err := h.backend.MyApplications(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	apps := make([]map[string]interface{}, len(list.Applications))
	for i, app := range list.Applications {
		apps[i] = app.Fields
	}
	render.JSON(w, r, map[string]interface{}{
		"count":        list.Count,
		"applications": apps,
		"summary":      list.Summary,
	})
}

// --- admin review actions ---

func (h *Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	backendID := chi.URLParam(r, "backendID")
	var req struct {
		ApprovedAmount float64 `json:"approvedAmount"`
		Notes          string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}
	app, err := h.backend.Approve(r.Context(), backendID, req.ApprovedAmount, req.Notes)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, app.Fields)
}

func (h *Handlers) Reject(w http.ResponseWriter, r *http.Request) {
	backendID := chi.URLParam(r, "backendID")
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}
	app, err := h.backend.Reject(r.Context(), backendID, req.Notes)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, app.Fields)
}

func (h *Handlers) RaiseQuery(w http.ResponseWriter, r *http.Request) {
	backendID := chi.URLParam(r, "backendID")
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "invalid JSON body")
		return
	}
	app, err := h.backend.RaiseQuery(r.Context(), backendID, req.Notes)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, app.Fields)
}

func (h *Handlers) ResolveQuery(w http.ResponseWriter, r *http.Request) {
	backendID := chi.URLParam(r, "backendID")
	app, err := h.backend.ResolveQuery(r.Context(), backendID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, app.Fields)
}
