// internal/store/store.go
package store

import (
	"context"
	"math"
	"sync"
	"time"

	"drivecash/internal/common/logger"
	"drivecash/internal/common/metrics"
	"drivecash/internal/models"
)

// Store is the single authoritative holder of every loan draft in the
// current session. All mutations flow through Dispatch; readers get deep
// clones so nothing can change state outside a dispatch. After every
// applied action the whole state is written through to durable storage
// and subscribers are notified.
type Store struct {
	mu          sync.Mutex
	state       *models.Store
	storage     Storage
	steps       []string
	logger      logger.Logger
	subscribers map[int]func(*models.Store)
	nextSubID   int
}

// New hydrates a store from storage. A snapshot whose active-loan pointer
// references a missing draft is discarded entirely: a corrupt
// cross-reference must not reach the gating logic.
func New(ctx context.Context, storage Storage, steps []string, log logger.Logger) *Store {
	s := &Store{
		state:       models.NewStore(),
		storage:     storage,
		steps:       steps,
		logger:      log.WithFields(map[string]interface{}{"component": "loanstore"}),
		subscribers: map[int]func(*models.Store){},
	}

	snapshot, err := storage.Load(ctx)
	if err != nil {
		s.logger.Warn("hydration failed, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		return s
	}
	if snapshot == nil {
		return s
	}
	if !snapshot.Consistent() {
		s.logger.Warn("persisted active loan missing from snapshot, discarding persisted state", map[string]interface{}{
			"activeLoanId": snapshot.ActiveLoanID,
			"loanCount":    len(snapshot.Loans),
		})
		if err := storage.Delete(ctx); err != nil {
			s.logger.Warn("failed to delete corrupt snapshot", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return s
	}
	if snapshot.Loans == nil {
		snapshot.Loans = map[string]*models.LoanDraft{}
	}
	s.state = snapshot
	s.logger.Info("hydrated draft store", map[string]interface{}{
		"loanCount":    len(snapshot.Loans),
		"activeLoanId": snapshot.ActiveLoanID,
	})
	return s
}

// Dispatch applies one action, persists the result, and notifies
// subscribers. Persistence failures are logged and counted, never
// returned: the in-memory state stays authoritative for this process.
func (s *Store) Dispatch(ctx context.Context, action Action) {
	s.mu.Lock()
	next := reduce(s.state, action, time.Now().UTC())
	changed := next != s.state
	s.state = next
	snapshot := next.Clone()
	s.mu.Unlock()

	metrics.StoreActions.WithLabelValues(action.actionName()).Inc()
	if !changed {
		s.logger.Debug("action was a no-op", map[string]interface{}{
			"action": action.actionName(),
		})
		return
	}

	if err := s.storage.Save(ctx, snapshot); err != nil {
		metrics.StorePersistFailures.Inc()
		s.logger.Error("persisting draft store failed", map[string]interface{}{
			"action": action.actionName(),
			"error":  err.Error(),
		})
	}

	s.notify(snapshot)
}

// CreateLoan inserts a fresh draft and returns its id synchronously.
// Callers navigate with the returned id immediately, so id generation
// must never be deferred behind anything asynchronous.
func (s *Store) CreateLoan(ctx context.Context, seed Seed) string {
	id := seed.ID
	if id == "" {
		id = models.NewLoanID()
	}
	s.Dispatch(ctx, CreateLoan{Seed: seed, id: id})
	return id
}

// Loan returns a deep clone of the draft, or false when unknown.
func (s *Store) Loan(id string) (*models.LoanDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.state.Loans[id]
	if !ok {
		return nil, false
	}
	return loan.Clone(), true
}

// HasLoan reports whether a draft with the given id exists.
func (s *Store) HasLoan(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.Loans[id]
	return ok
}

// ActiveLoanID returns the current active-loan pointer.
func (s *Store) ActiveLoanID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveLoanID
}

// State returns a deep clone of the whole store.
func (s *Store) State() *models.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to run after every applied action. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(*models.Store)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(snapshot *models.Store) {
	s.mu.Lock()
	fns := make([]func(*models.Store), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// IsStepComplete reports completion for a step of the given loan. An
// empty loanID resolves to the active loan; an unresolvable loan is
// simply incomplete, never an error.
func (s *Store) IsStepComplete(step, loanID string) bool {
	if step == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := loanID
	if id == "" {
		id = s.state.ActiveLoanID
	}
	if id == "" {
		return false
	}
	loan, ok := s.state.Loans[id]
	if !ok {
		return false
	}
	return loan.StepCompletion[step]
}

// CompletionPercentage returns the share of canonical steps completed,
// rounded to the nearest integer. Zero when no loan resolves.
func (s *Store) CompletionPercentage(loanID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := loanID
	if id == "" {
		id = s.state.ActiveLoanID
	}
	if id == "" {
		return 0
	}
	loan, ok := s.state.Loans[id]
	if !ok {
		return 0
	}
	if len(s.steps) == 0 {
		return 0
	}
	completed := 0
	for _, step := range s.steps {
		if loan.StepCompletion[step] {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(s.steps)) * 100))
}
