package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dealerdesk/api/internal/metrics"
	"github.com/dealerdesk/api/pkg/domain/assignment"
	"github.com/dealerdesk/api/pkg/domain/org"
	"github.com/dealerdesk/api/pkg/domain/role"
	"github.com/dealerdesk/api/pkg/domain/shared"
	"github.com/dealerdesk/api/pkg/logger"
	"github.com/dealerdesk/api/pkg/validator"
)

// State is the lifecycle phase of a form session.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// WarnNoManagers is surfaced when a candidate fetch fails; the form stays
// editable and the manager list is simply empty.
const WarnNoManagers = "no managers available"

// Form is a single assignment form session. All exported methods are safe for
// concurrent use; candidate reloads run in the background and a stale response
// never overwrites the result of a newer one.
type Form struct {
	mu sync.Mutex
	wg sync.WaitGroup

	id       string
	kind     assignment.Kind
	targetID string // empty on create

	draft      assignment.Draft
	state      State
	errors     map[string]string
	formErr    string
	options    assignment.Options
	evals      []assignment.Evaluation
	warning    string
	seq        uint64 // latest issued candidate fetch
	appliedSeq uint64 // newest fetch whose result has been applied
	lastUsed   time.Time

	snap         *org.Snapshot
	catalog      *role.Catalog
	directory    Directory
	validate     *validator.Validator
	log          *logger.Logger
	fetchTimeout time.Duration
}

// Candidate is an evaluated prospective manager as presented to clients.
type Candidate struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	RoleName string `json:"role_name"`
	Eligible bool   `json:"eligible"`
	Warning  string `json:"warning,omitempty"`
}

// View is the client-facing snapshot of a form session.
type View struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	State      string             `json:"state"`
	TargetID   string             `json:"target_id,omitempty"`
	Draft      assignment.Draft   `json:"draft"`
	Options    assignment.Options `json:"options"`
	Candidates []Candidate        `json:"candidates"`
	Warning    string             `json:"warning,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
	FormError  string             `json:"form_error,omitempty"`
	Refreshing bool               `json:"refreshing_candidates"`
	ResetTo    []string           `json:"reset_fields,omitempty"`
}

// SetField applies a single field change: the value is stored, every field
// below it in the cascade is cleared, dependent option sets are recomputed and
// a candidate reload is scheduled when the manager pool may have changed.
func (f *Form) SetField(field assignment.Field, value string) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !field.IsValid() {
		return View{}, shared.NewValidationError("unknown field "+string(field), nil)
	}
	if f.state == StateSubmitting || f.state == StateSucceeded {
		return View{}, shared.NewConflictError("form is not editable in state " + string(f.state))
	}
	f.touch()
	f.state = StateEditing
	f.formErr = ""

	next, res := assignment.ApplyChange(f.draft, field, value, f.snap)
	f.draft = next
	f.options = res.Options
	for _, cleared := range res.Reset {
		metrics.CascadeResets.WithLabelValues(cleared.String()).Inc()
		delete(f.errors, cleared.String())
	}
	delete(f.errors, field.String())

	f.scheduleCandidateReload()

	v := f.view()
	v.ResetTo = fieldNames(res.Reset)
	return v, nil
}

// AccountUpdate carries the non-cascade form fields. Nil fields are left
// untouched.
type AccountUpdate struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirm_password"`
	BusinessName    *string `json:"business_name"`
	DealerCode      *string `json:"dealer_code"`
}

// SetAccount updates the identity fields outside the cascade. Their format
// checks run at submit time.
func (f *Form) SetAccount(u AccountUpdate) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting || f.state == StateSucceeded {
		return View{}, shared.NewConflictError("form is not editable in state " + string(f.state))
	}
	f.touch()
	f.state = StateEditing

	apply := func(dst *string, src *string, field string) {
		if src != nil {
			*dst = *src
			delete(f.errors, field)
		}
	}
	apply(&f.draft.Username, u.Username, "username")
	apply(&f.draft.Email, u.Email, "email")
	apply(&f.draft.Password, u.Password, "password")
	apply(&f.draft.ConfirmPassword, u.ConfirmPassword, "confirm_password")
	apply(&f.draft.BusinessName, u.BusinessName, "business_name")
	apply(&f.draft.DealerCode, u.DealerCode, "dealer_code")

	return f.view(), nil
}

// View returns the current client-facing state of the session.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	return f.view()
}

// Submit validates the draft and, if clean, sends it to the directory. On a
// directory rejection the form moves to the failed state with the rejection
// mapped back onto fields where recognized; it stays editable afterwards.
func (f *Form) Submit(ctx context.Context) (View, error) {
	f.mu.Lock()

	if f.state == StateSubmitting {
		f.mu.Unlock()
		return View{}, shared.NewConflictError("submission already in progress")
	}
	if f.state == StateSucceeded {
		f.mu.Unlock()
		return View{}, shared.NewConflictError("form already submitted")
	}
	f.touch()

	var res assignment.Result
	if f.kind == assignment.KindDealer {
		res = f.validateDealerDraft()
	} else {
		res = assignment.Validate(f.draft, f.catalog, f.evals)
	}
	f.mergeAccountErrors(res.Errors)
	if !res.IsValid() {
		for field := range res.Errors {
			metrics.ValidationFailures.WithLabelValues(field).Inc()
		}
		f.errors = res.Errors
		f.state = StateEditing
		v := f.view()
		f.mu.Unlock()
		return v, nil
	}

	f.errors = nil
	f.formErr = ""
	f.state = StateSubmitting
	draft := f.draft
	kind := f.kind
	targetID := f.targetID
	f.mu.Unlock()

	err := f.send(ctx, kind, targetID, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		metrics.Submissions.WithLabelValues(kind.String(), "rejected").Inc()
		f.state = StateFailed
		f.applyRejection(err)
		return f.view(), nil
	}
	metrics.Submissions.WithLabelValues(kind.String(), "succeeded").Inc()
	f.state = StateSucceeded
	return f.view(), nil
}

// Check runs draft validation and refreshes the error map without
// submitting anything.
func (f *Form) Check() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	var res assignment.Result
	if f.kind == assignment.KindDealer {
		res = f.validateDealerDraft()
	} else {
		res = assignment.Validate(f.draft, f.catalog, f.evals)
	}
	f.mergeAccountErrors(res.Errors)
	f.errors = res.Errors
	return f.view()
}

// Retry moves a failed form back to editing without touching the draft.
func (f *Form) Retry() (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateFailed {
		return View{}, shared.NewConflictError("form is not in a failed state")
	}
	f.touch()
	f.state = StateEditing
	return f.view(), nil
}

// LastUsed reports the last time the session was touched.
func (f *Form) LastUsed() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsed
}

// ID returns the session identifier.
func (f *Form) ID() string { return f.id }

func (f *Form) touch() { f.lastUsed = time.Now() }

func (f *Form) view() View {
	return View{
		ID:         f.id,
		Kind:       f.kind.String(),
		State:      string(f.state),
		TargetID:   f.targetID,
		Draft:      f.draft,
		Options:    f.options,
		Candidates: presentCandidates(f.evals),
		Warning:    f.warning,
		Errors:     f.errors,
		FormError:  f.formErr,
		Refreshing: f.seq > f.appliedSeq,
	}
}

// dealerManagedDef models the dealer record for cascade and eligibility
// purposes: geography optional, manager optional, managed by the field sales
// chain. The generic scope rules apply.
var dealerManagedDef = role.Definition{
	Name:                 "dealer",
	Title:                "Dealer",
	EligibleManagerRoles: []role.Name{role.SalesExecutive, role.TerritoryManager},
}

// targetDefinition resolves the definition governing the current draft: the
// selected role for user forms, the dealer record profile for dealer forms.
func (f *Form) targetDefinition() (role.Definition, bool) {
	if f.kind == assignment.KindDealer {
		return dealerManagedDef, true
	}
	return f.catalog.Get(f.draft.Role)
}

func (f *Form) scheduleCandidateReload() {
	def, ok := f.targetDefinition()
	if !ok || !def.HasManager() || (def.DealerScoped() && f.draft.DealerID == "") {
		// Nothing to fetch; any previous pool is no longer meaningful.
		f.seq++
		f.appliedSeq = f.seq
		f.evals = nil
		f.warning = ""
		return
	}

	f.seq++
	seq := f.seq
	draft := f.draft
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.fetchTimeout)
		defer cancel()
		pool, err := f.fetchPool(ctx, def, draft)
		f.applyCandidates(seq, def, draft, pool, err)
	}()
}

// fetchPool lists candidates for every role eligible to manage the target
// role, in catalog order, scoped to the draft's geography.
func (f *Form) fetchPool(ctx context.Context, def role.Definition, draft assignment.Draft) ([]assignment.Candidate, error) {
	filter := scopeFilterFromDraft(draft)
	pools := make([][]assignment.Candidate, len(def.EligibleManagerRoles))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range def.EligibleManagerRoles {
		i, name := i, name
		g.Go(func() error {
			users, err := f.directory.ListUsersByRole(gctx, name, filter)
			if err != nil {
				return err
			}
			pools[i] = users
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pool []assignment.Candidate
	for _, p := range pools {
		pool = append(pool, p...)
	}
	return pool, nil
}

// applyCandidates installs a fetch result unless a newer fetch has been issued
// since. Fetch failures degrade to an empty pool with a warning; the form is
// never blocked on the directory.
func (f *Form) applyCandidates(seq uint64, def role.Definition, draft assignment.Draft, pool []assignment.Candidate, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if seq < f.seq {
		metrics.StaleCandidateResponses.Inc()
		metrics.CandidateFetches.WithLabelValues("stale").Inc()
		return
	}
	f.appliedSeq = seq

	if err != nil {
		metrics.CandidateFetches.WithLabelValues("error").Inc()
		f.log.Warn("candidate fetch failed", "form_id", f.id, "role", def.Name.String(), "error", err)
		f.evals = nil
		f.warning = WarnNoManagers
		return
	}
	metrics.CandidateFetches.WithLabelValues("ok").Inc()
	f.evals = assignment.ResolveManagers(def, draft, pool)
	f.warning = ""
	if len(f.evals) == 0 {
		f.warning = WarnNoManagers
	}
}

// waitCandidates blocks until all in-flight candidate reloads have settled.
func (f *Form) waitCandidates() { f.wg.Wait() }

// validateDealerDraft checks the rules for the dealer record: identity fields
// come from mergeAccountErrors, geography is optional (the cascade keeps it
// consistent), and a selected manager must be among the eligible candidates.
func (f *Form) validateDealerDraft() assignment.Result {
	errs := make(map[string]string)
	if f.draft.ManagerID != "" && f.evals != nil {
		if ev, found := assignment.FindCandidate(f.evals, f.draft.ManagerID); !found || !ev.Eligible {
			errs[assignment.FieldManager.String()] = "Selected manager is not eligible for this dealer"
		}
	}
	return assignment.Result{Errors: errs}
}

// accountInput carries the credential fields checked on user creation.
type accountInput struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// dealerInput carries the identity fields checked on dealer creation.
type dealerInput struct {
	BusinessName string `json:"business_name" validate:"required,min=2,max=128"`
	DealerCode   string `json:"dealer_code" validate:"required,min=2,max=32"`
}

// mergeAccountErrors layers create-time identity checks on top of the scope
// and manager checks. Updates skip them; the directory owns credentials after
// creation.
func (f *Form) mergeAccountErrors(dst map[string]string) {
	if f.targetID != "" {
		return
	}
	var err error
	switch f.kind {
	case assignment.KindUser:
		err = f.validate.Validate(accountInput{
			Username:        f.draft.Username,
			Email:           f.draft.Email,
			Password:        f.draft.Password,
			ConfirmPassword: f.draft.ConfirmPassword,
		})
	case assignment.KindDealer:
		err = f.validate.Validate(dealerInput{
			BusinessName: f.draft.BusinessName,
			DealerCode:   f.draft.DealerCode,
		})
	}
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for field, msg := range verrs.ToMap() {
			if _, taken := dst[field]; !taken {
				dst[field] = msg
			}
		}
	}
}

func (f *Form) send(ctx context.Context, kind assignment.Kind, targetID string, draft assignment.Draft) error {
	switch kind {
	case assignment.KindDealer:
		if targetID == "" {
			return f.directory.CreateDealer(ctx, dealerPayloadFromDraft(draft))
		}
		return f.directory.UpdateDealer(ctx, targetID, dealerPayloadFromDraft(draft))
	default:
		if targetID == "" {
			return f.directory.CreateUser(ctx, userPayloadFromDraft(draft))
		}
		return f.directory.UpdateUser(ctx, targetID, userPayloadFromDraft(draft))
	}
}

// applyRejection translates a directory rejection into field errors where the
// message is recognized, and a form-level error otherwise.
func (f *Form) applyRejection(err error) {
	msg := err.Error()
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		msg = derr.Message
	}

	field, friendly, ok := mapRejection(msg)
	if ok {
		if f.errors == nil {
			f.errors = make(map[string]string)
		}
		f.errors[field] = friendly
		return
	}
	f.formErr = "The directory rejected the submission: " + msg
}

// mapRejection maps known directory rejection messages onto form fields.
func mapRejection(msg string) (field, friendly string, ok bool) {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "dealerid is required"),
		strings.Contains(lower, "dealer_id is required"):
		return assignment.FieldDealer.String(), "Dealer is required for dealer roles", true
	case strings.Contains(lower, "outside your allowed scope"):
		return assignment.FieldDealer.String(), "Selected dealer is outside your allowed scope", true
	default:
		return "", "", false
	}
}

func presentCandidates(evals []assignment.Evaluation) []Candidate {
	out := make([]Candidate, 0, len(evals))
	for _, e := range evals {
		out = append(out, Candidate{
			ID:       e.Candidate.ID,
			Username: e.Candidate.Username,
			RoleName: e.Candidate.RoleName.String(),
			Eligible: e.Eligible,
			Warning:  e.Warning,
		})
	}
	return out
}

func fieldNames(fields []assignment.Field) []string {
	out := make([]string, 0, len(fields))
	for _, fd := range fields {
		out = append(out, fd.String())
	}
	return out
}
