// internal/submit/pipeline.go
package submit

import (
	"context"
	"sync"
	"time"

	"drivecash/internal/backend"
	"drivecash/internal/common/errors"
	"drivecash/internal/common/logger"
	"drivecash/internal/common/metrics"
	"drivecash/internal/common/observability"
	"drivecash/internal/models"
	"drivecash/internal/store"
	"drivecash/internal/wizard"
)

// pipeline phases, used for failure metrics and phase timings.
const (
	phaseValidate = "validate"
	phaseCreate   = "create"
	phaseSave     = "save"
	phaseUpload   = "upload"
	phaseSubmit   = "submit"
)

// BackendAPI is the slice of the loan-service client the pipeline uses.
type BackendAPI interface {
	Create(ctx context.Context, loan *models.LoanDraft) (string, error)
	Update(ctx context.Context, backendID string, loan *models.LoanDraft, extra map[string]interface{}) error
	UploadDocument(ctx context.Context, backendID string, upload models.Upload) error
	Submit(ctx context.Context, backendID string) (*backend.Application, error)
}

// LoanStore is the slice of the draft store the pipeline uses.
type LoanStore interface {
	Loan(id string) (*models.LoanDraft, bool)
	Dispatch(ctx context.Context, action store.Action)
}

// Notifier sends the applicant a submission confirmation. Failures are
// logged, never surfaced.
type Notifier interface {
	SubmissionConfirmed(ctx context.Context, loan *models.LoanDraft, backendID string)
}

// Result reports where a successful run left the application.
type Result struct {
	BackendID string `json:"backendId"`
	Status    string `json:"status"`
}

// Pipeline drives a draft through validation, backend save, document
// upload and final submission.
type Pipeline struct {
	store    LoanStore
	backend  BackendAPI
	notifier Notifier
	obs      *observability.Observability
	logger   logger.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewPipeline(st LoanStore, backend BackendAPI, notifier Notifier, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		store:    st,
		backend:  backend,
		notifier: notifier,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "submission"}),
		inFlight: make(map[string]bool),
	}
}

// Run executes the full submission pipeline for a loan. At most one run
// per loan is active at a time; a concurrent call gets a
// SUBMISSION_IN_PROGRESS error without touching the backend.
func (p *Pipeline) Run(ctx context.Context, loanID string) (*Result, error) {
	if !p.acquire(loanID) {
		return nil, errors.NewSubmissionInProgressError(loanID)
	}
	defer p.release(loanID)

	started := time.Now()
	metrics.SubmissionsStarted.Inc()

	result, err := p.run(ctx, loanID, started)

	duration := time.Since(started)
	metrics.SubmissionDuration.Observe(duration.Seconds())
	if err != nil {
		p.obs.RecordSubmission(ctx, "failed")
		p.obs.RecordSubmissionDuration(ctx, duration, "failed")
		return nil, err
	}
	metrics.SubmissionsCompleted.Inc()
	p.obs.RecordSubmission(ctx, "completed")
	p.obs.RecordSubmissionDuration(ctx, duration, "completed")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, loanID string, started time.Time) (*Result, error) {
	loan, ok := p.store.Loan(loanID)
	if !ok {
		metrics.SubmissionsFailed.WithLabelValues(phaseValidate).Inc()
		return nil, errors.NewLoanNotFoundError(loanID)
	}

	// Phase 1: required fields and mandatory documents.
	phaseStart := time.Now()
	if missing := ValidateRequiredFields(loan); len(missing) > 0 {
		metrics.SubmissionsFailed.WithLabelValues(phaseValidate).Inc()
		p.logger.Warn("submission blocked on required fields", map[string]interface{}{
			"loanId":  loanID,
			"missing": len(missing),
		})
		return nil, errors.NewValidationFailedError("required fields incomplete", missing)
	}
	if missing := ValidateMandatoryDocuments(loan); len(missing) > 0 {
		metrics.SubmissionsFailed.WithLabelValues(phaseValidate).Inc()
		return nil, errors.NewDocumentMissingError(missing)
	}
	p.obs.RecordPhaseDuration(ctx, phaseValidate, time.Since(phaseStart))

	// Phase 2: make sure the draft exists on the backend. The id is
	// persisted immediately so a later failure does not orphan it.
	backendID := loan.BackendID
	if backendID == "" {
		phaseStart = time.Now()
		id, err := p.backend.Create(ctx, loan)
		if err != nil {
			metrics.SubmissionsFailed.WithLabelValues(phaseCreate).Inc()
			return nil, errors.NewBackendCreateFailedError(err)
		}
		backendID = id
		p.store.Dispatch(ctx, store.SetBackendID{LoanID: loanID, BackendID: backendID})
		p.obs.RecordPhaseDuration(ctx, phaseCreate, time.Since(phaseStart))
		p.logger.Info("registered draft with loan service", map[string]interface{}{
			"loanId":    loanID,
			"backendId": backendID,
		})
	}

	// Phase 3: final save with terms accepted and an electronic
	// signature derived from the applicant's name.
	phaseStart = time.Now()
	signature := "Electronic Signature"
	if name, ok := loan.Personal["fullName"].(string); ok && name != "" {
		signature = name
	}
	err := p.backend.Update(ctx, backendID, loan, map[string]interface{}{
		"accept_terms": true,
		"signature":    signature,
	})
	if err != nil {
		metrics.SubmissionsFailed.WithLabelValues(phaseSave).Inc()
		return nil, errors.NewBackendSaveFailedError(err)
	}
	p.obs.RecordPhaseDuration(ctx, phaseSave, time.Since(phaseStart))

	// Phase 4: per-file uploads. Individual failures are logged and
	// counted but never abort the run.
	phaseStart = time.Now()
	p.uploadAttachments(ctx, backendID, loan)
	p.obs.RecordPhaseDuration(ctx, phaseUpload, time.Since(phaseStart))

	// Phase 5: flip the application from draft to pending.
	phaseStart = time.Now()
	if _, err := p.backend.Submit(ctx, backendID); err != nil {
		metrics.SubmissionsFailed.WithLabelValues(phaseSubmit).Inc()
		return nil, errors.NewSubmitFailedError(err)
	}
	p.obs.RecordPhaseDuration(ctx, phaseSubmit, time.Since(phaseStart))

	p.finalize(ctx, loanID)

	if p.notifier != nil {
		p.notifier.SubmissionConfirmed(ctx, loan, backendID)
	}

	p.logger.Info("loan application submitted", map[string]interface{}{
		"loanId":    loanID,
		"backendId": backendID,
		"elapsedMs": time.Since(started).Milliseconds(),
	})
	return &Result{BackendID: backendID, Status: string(models.StatusPending)}, nil
}

// uploadAttachments pushes every locally held file to the backend, one
// request per attachment. Remote attachments already live server side.
func (p *Pipeline) uploadAttachments(ctx context.Context, backendID string, loan *models.LoanDraft) {
	push := func(upload models.Upload) {
		if !upload.Local() {
			return
		}
		if err := p.backend.UploadDocument(ctx, backendID, upload); err != nil {
			metrics.DocumentUploads.WithLabelValues("failed").Inc()
			p.logger.Warn("document upload failed", map[string]interface{}{
				"loanId":   loan.ID,
				"filename": upload.Filename,
				"field":    upload.Field,
				"error":    err.Error(),
			})
			return
		}
		metrics.DocumentUploads.WithLabelValues("uploaded").Inc()
	}

	for _, uploads := range loan.Photos {
		for _, upload := range uploads {
			push(upload)
		}
	}
	for _, vehicle := range loan.Vehicles {
		for _, upload := range vehicle.Photos {
			push(upload)
		}
	}
	for _, upload := range loan.Documents {
		push(upload)
	}
}

// finalize marks every wizard step complete and moves the local draft
// to pending, mirroring the state the backend now holds.
func (p *Pipeline) finalize(ctx context.Context, loanID string) {
	steps := append(wizard.StepNames(), wizard.StepCondition)
	for _, step := range steps {
		p.store.Dispatch(ctx, store.SetStepCompletion{LoanID: loanID, Step: step, Completed: true})
	}
	p.store.Dispatch(ctx, store.UpdateLoanStatus{LoanID: loanID, Status: models.StatusPending})
}

func (p *Pipeline) acquire(loanID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[loanID] {
		return false
	}
	p.inFlight[loanID] = true
	return true
}

func (p *Pipeline) release(loanID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, loanID)
}
