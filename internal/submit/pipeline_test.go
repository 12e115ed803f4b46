// internal/submit/pipeline_test.go
package submit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drivecash/internal/backend"
	"drivecash/internal/common/errors"
	"drivecash/internal/common/logger"
	"drivecash/internal/common/observability"
	"drivecash/internal/models"
	"drivecash/internal/store"
)

// fakeStore holds one draft and records dispatched actions.
type fakeStore struct {
	mu      sync.Mutex
	loan    *models.LoanDraft
	actions []store.Action
}

func (f *fakeStore) Loan(id string) (*models.LoanDraft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loan == nil || f.loan.ID != id {
		return nil, false
	}
	return f.loan.Clone(), true
}

func (f *fakeStore) Dispatch(ctx context.Context, action store.Action) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	switch a := action.(type) {
	case store.SetBackendID:
		f.loan.BackendID = a.BackendID
	case store.SetStepCompletion:
		if f.loan.StepCompletion == nil {
			f.loan.StepCompletion = map[string]bool{}
		}
		f.loan.StepCompletion[a.Step] = a.Completed
	case store.UpdateLoanStatus:
		f.loan.Status = a.Status
	}
}

func (f *fakeStore) countActions(name func(store.Action) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.actions {
		if name(a) {
			n++
		}
	}
	return n
}

type fakeBackend struct {
	mu        sync.Mutex
	creates   int
	updates   int
	uploads   int
	submits   int
	createErr error
	updateErr error
	uploadErr error
	submitErr error
	// block, when set, holds Update until released to exercise
	// concurrent submission attempts.
	block chan struct{}
}

func (f *fakeBackend) Create(ctx context.Context, loan *models.LoanDraft) (string, error) {
	f.mu.Lock()
	f.creates++
	f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	return "be-123", nil
}

func (f *fakeBackend) Update(ctx context.Context, backendID string, loan *models.LoanDraft, extra map[string]interface{}) error {
	f.mu.Lock()
	f.updates++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.updateErr
}

func (f *fakeBackend) UploadDocument(ctx context.Context, backendID string, upload models.Upload) error {
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	return f.uploadErr
}

func (f *fakeBackend) Submit(ctx context.Context, backendID string) (*backend.Application, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &backend.Application{ID: backendID, Status: "pending"}, nil
}

func newTestPipeline(t *testing.T, st *fakeStore, be *fakeBackend) *Pipeline {
	return NewPipeline(st, be, nil, &observability.Observability{}, logger.NewTestLogger(t))
}

func TestPipelineFullRun(t *testing.T) {
	st := &fakeStore{loan: completeDraft()}
	be := &fakeBackend{}
	p := newTestPipeline(t, st, be)

	result, err := p.Run(context.Background(), "loan_1")

	assert.NoError(t, err)
	assert.Equal(t, "be-123", result.BackendID)
	assert.Equal(t, "pending", result.Status)

	assert.Equal(t, 1, be.creates)
	assert.Equal(t, 1, be.updates)
	assert.Equal(t, 1, be.submits)
	// One upload per mandatory photo slot.
	assert.Equal(t, len(mandatoryDocuments), be.uploads)

	assert.Equal(t, models.StatusPending, st.loan.Status)
	assert.Equal(t, "be-123", st.loan.BackendID)
	for _, step := range []string{"personal", "income", "vehicle", "photos", "review", "submit", "condition"} {
		assert.True(t, st.loan.StepCompletion[step], "step %s should be complete", step)
	}
}

func TestPipelineSkipsCreateWhenBackendIDExists(t *testing.T) {
	loan := completeDraft()
	loan.BackendID = "be-existing"
	st := &fakeStore{loan: loan}
	be := &fakeBackend{}
	p := newTestPipeline(t, st, be)

	result, err := p.Run(context.Background(), "loan_1")

	assert.NoError(t, err)
	assert.Equal(t, "be-existing", result.BackendID)
	assert.Equal(t, 0, be.creates)
	assert.Equal(t, 1, be.updates)
}

func TestPipelineValidationFailureSkipsBackend(t *testing.T) {
	loan := completeDraft()
	delete(loan.Vehicle, "vin")
	st := &fakeStore{loan: loan}
	be := &fakeBackend{}
	p := newTestPipeline(t, st, be)

	_, err := p.Run(context.Background(), "loan_1")

	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
	assert.Equal(t, 0, be.creates)
	assert.Equal(t, 0, be.updates)
	assert.Equal(t, 0, be.submits)
}

func TestPipelineMissingDocumentsBlockSubmission(t *testing.T) {
	loan := completeDraft()
	delete(loan.Photos, "odometer")
	st := &fakeStore{loan: loan}
	be := &fakeBackend{}
	p := newTestPipeline(t, st, be)

	_, err := p.Run(context.Background(), "loan_1")

	assert.Equal(t, errors.ErrCodeDocumentMissing, errors.CodeOf(err))
	assert.Equal(t, 0, be.creates)
}

func TestPipelineUploadFailuresAreNotFatal(t *testing.T) {
	st := &fakeStore{loan: completeDraft()}
	be := &fakeBackend{uploadErr: errors.NewDocumentUploadFailedError("x.jpg", assert.AnError)}
	p := newTestPipeline(t, st, be)

	result, err := p.Run(context.Background(), "loan_1")

	assert.NoError(t, err)
	assert.Equal(t, 1, be.submits)
	assert.Equal(t, "pending", result.Status)
}

func TestPipelineSubmitFailureLeavesDraft(t *testing.T) {
	st := &fakeStore{loan: completeDraft()}
	be := &fakeBackend{submitErr: assert.AnError}
	p := newTestPipeline(t, st, be)

	_, err := p.Run(context.Background(), "loan_1")

	assert.Equal(t, errors.ErrCodeSubmitFailed, errors.CodeOf(err))
	assert.Equal(t, models.StatusDraft, st.loan.Status)
	assert.False(t, st.loan.StepCompletion["review"])
}

func TestPipelineCreateFailurePersistsNothing(t *testing.T) {
	st := &fakeStore{loan: completeDraft()}
	be := &fakeBackend{createErr: assert.AnError}
	p := newTestPipeline(t, st, be)

	_, err := p.Run(context.Background(), "loan_1")

	assert.Equal(t, errors.ErrCodeBackendCreateFailed, errors.CodeOf(err))
	assert.Empty(t, st.loan.BackendID)
}

func TestPipelineBackendIDPersistedBeforeLaterPhases(t *testing.T) {
	st := &fakeStore{loan: completeDraft()}
	be := &fakeBackend{submitErr: assert.AnError}
	p := newTestPipeline(t, st, be)

	_, err := p.Run(context.Background(), "loan_1")

	// The submit phase failed, but the backend id from the create
	// phase must already be durable.
	assert.Error(t, err)
	assert.Equal(t, "be-123", st.loan.BackendID)
}

func TestPipelineRejectsConcurrentRuns(t *testing.T) {
	st := &fakeStore{loan: completeDraft()}
	be := &fakeBackend{block: make(chan struct{})}
	p := newTestPipeline(t, st, be)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.Run(context.Background(), "loan_1")
		assert.NoError(t, err)
	}()

	// Wait for the first run to reach the blocked save phase.
	for {
		be.mu.Lock()
		started := be.updates > 0
		be.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, err := p.Run(context.Background(), "loan_1")
	assert.Equal(t, errors.ErrCodeSubmissionInProgress, errors.CodeOf(err))

	close(be.block)
	<-done

	// The lock is released after the first run finishes.
	_, err = p.Run(context.Background(), "loan_1")
	assert.NoError(t, err)
}

func TestPipelineUnknownLoan(t *testing.T) {
	st := &fakeStore{}
	be := &fakeBackend{}
	p := newTestPipeline(t, st, be)

	_, err := p.Run(context.Background(), "loan_missing")

	assert.Equal(t, errors.ErrCodeLoanNotFound, errors.CodeOf(err))
}
