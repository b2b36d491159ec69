package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dealerdesk/api/internal/metrics"
	"github.com/dealerdesk/api/pkg/domain/assignment"
	"github.com/dealerdesk/api/pkg/domain/org"
	"github.com/dealerdesk/api/pkg/domain/role"
	"github.com/dealerdesk/api/pkg/domain/shared"
	"github.com/dealerdesk/api/pkg/logger"
	"github.com/dealerdesk/api/pkg/validator"
)

const (
	defaultSessionTTL    = 30 * time.Minute
	defaultSweepInterval = time.Minute
	defaultFetchTimeout  = 10 * time.Second
)

// FormService owns the live form sessions. Each session gets its own
// hierarchy snapshot at open time and keeps it until the session closes.
type FormService struct {
	directory Directory
	catalog   *role.Catalog
	validate  *validator.Validator
	log       *logger.Logger

	sessionTTL    time.Duration
	sweepInterval time.Duration
	fetchTimeout  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Form

	stop chan struct{}
	done chan struct{}
}

// FormServiceOption configures a FormService.
type FormServiceOption func(*FormService)

// WithSessionTTL sets how long an idle session is retained.
func WithSessionTTL(ttl time.Duration) FormServiceOption {
	return func(s *FormService) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithSweepInterval sets how often expired sessions are evicted.
func WithSweepInterval(d time.Duration) FormServiceOption {
	return func(s *FormService) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithFetchTimeout bounds background candidate fetches.
func WithFetchTimeout(d time.Duration) FormServiceOption {
	return func(s *FormService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithFormLogger sets the service logger.
func WithFormLogger(log *logger.Logger) FormServiceOption {
	return func(s *FormService) {
		if log != nil {
			s.log = log
		}
	}
}

// NewFormService creates a FormService. Call Start to run session eviction.
func NewFormService(directory Directory, catalog *role.Catalog, opts ...FormServiceOption) *FormService {
	s := &FormService{
		directory:     directory,
		catalog:       catalog,
		validate:      validator.New(),
		log:           logger.NewNop(),
		sessionTTL:    defaultSessionTTL,
		sweepInterval: defaultSweepInterval,
		fetchTimeout:  defaultFetchTimeout,
		sessions:      make(map[string]*Form),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRequest describes a new form session. TargetID and Prefill are set
// together when editing an existing record.
type OpenRequest struct {
	Kind     assignment.Kind
	TargetID string
	Prefill  *assignment.Draft
}

// Open fetches a fresh hierarchy snapshot and creates a form session. For
// edit sessions the prefilled draft is kept as-is; its option sets and
// candidate pool are computed immediately.
func (s *FormService) Open(ctx context.Context, req OpenRequest) (*Form, error) {
	if !req.Kind.IsValid() {
		return nil, shared.NewValidationError("unknown form kind "+req.Kind.String(), nil)
	}

	snap, err := s.fetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch hierarchy snapshot: %w", err)
	}

	f := &Form{
		id:           uuid.New().String(),
		kind:         req.Kind,
		targetID:     req.TargetID,
		state:        StateEditing,
		snap:         snap,
		catalog:      s.catalog,
		directory:    s.directory,
		validate:     s.validate,
		log:          s.log,
		fetchTimeout: s.fetchTimeout,
		lastUsed:     time.Now(),
	}
	if req.Prefill != nil {
		f.draft = *req.Prefill
	}
	f.options = assignment.OptionsFor(f.draft, snap)
	f.mu.Lock()
	f.scheduleCandidateReload()
	f.mu.Unlock()

	s.mu.Lock()
	s.sessions[f.id] = f
	s.mu.Unlock()

	metrics.FormSessionsOpened.WithLabelValues(req.Kind.String()).Inc()
	metrics.FormSessionsActive.Inc()
	s.log.Info("form session opened", "form_id", f.id, "kind", req.Kind.String())
	return f, nil
}

// Get returns an open session by id.
func (s *FormService) Get(id string) (*Form, error) {
	s.mu.RLock()
	f, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "form session not found", shared.ErrNotFound)
	}
	return f, nil
}

// Close discards a session. Closing an unknown id is a no-op.
func (s *FormService) Close(id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		metrics.FormSessionsActive.Dec()
	}
}

// Len reports the number of open sessions.
func (s *FormService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start runs the idle-session sweeper until Stop is called.
func (s *FormService) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.sweep(time.Now())
			}
		}
	}()
}

// Stop halts the sweeper and waits for it to exit.
func (s *FormService) Stop() {
	close(s.stop)
	<-s.done
}

func (s *FormService) sweep(now time.Time) {
	s.mu.Lock()
	var expired []string
	for id, f := range s.sessions {
		if now.Sub(f.LastUsed()) > s.sessionTTL {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		metrics.FormSessionsActive.Dec()
		s.log.Info("form session expired", "form_id", id)
	}
}

// fetchSnapshot pulls the four hierarchy lists in parallel and indexes them.
func (s *FormService) fetchSnapshot(ctx context.Context) (*org.Snapshot, error) {
	var (
		regions     []org.Region
		areas       []org.Area
		territories []org.Territory
		dealers     []org.Dealer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		regions, err = s.directory.ListRegions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		areas, err = s.directory.ListAreas(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		territories, err = s.directory.ListTerritories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		dealers, err = s.directory.ListDealers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return org.NewSnapshot(regions, areas, territories, dealers), nil
}
