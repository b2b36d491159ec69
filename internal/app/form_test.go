package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerdesk/api/pkg/domain/assignment"
	"github.com/dealerdesk/api/pkg/domain/org"
	"github.com/dealerdesk/api/pkg/domain/role"
	"github.com/dealerdesk/api/pkg/domain/shared"
)

// fakeDirectory is a hand-rolled Directory double. Candidate listings can be
// scripted per call and optionally gated to control interleaving.
type fakeDirectory struct {
	mu sync.Mutex

	regions     []org.Region
	areas       []org.Area
	territories []org.Territory
	dealers     []org.Dealer

	listErr error

	calls   int
	started []chan struct{} // closed when call i begins
	block   []chan struct{} // call i waits on its gate when non-nil
	pools   [][]assignment.Candidate // scripted by call order
	poolErr []error
	// usersByRole serves listings when no per-call script is set; needed
	// for targets whose eligible-manager list spans several roles, since
	// those listings run in parallel.
	usersByRole map[role.Name][]assignment.Candidate

	createUserErr error
	createdUsers  []UserPayload
	updatedUsers  map[string]UserPayload

	createDealerErr error
	createdDealers  []DealerPayload
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		regions: []org.Region{{ID: "r1", Name: "North"}, {ID: "r2", Name: "South"}},
		areas: []org.Area{
			{ID: "a1", Name: "North-East", RegionID: "r1"},
			{ID: "a2", Name: "South-West", RegionID: "r2"},
		},
		territories: []org.Territory{
			{ID: "t1", Name: "NE-1", AreaID: "a1"},
			{ID: "t2", Name: "SW-1", AreaID: "a2"},
		},
		dealers: []org.Dealer{
			{ID: "d1", BusinessName: "Prime Motors", DealerCode: "PM-01", RegionID: "r1", AreaID: "a1", TerritoryID: "t1"},
			{ID: "d2", BusinessName: "Sunset Autos", DealerCode: "SA-01", RegionID: "r2", AreaID: "a2", TerritoryID: "t2"},
		},
		updatedUsers: make(map[string]UserPayload),
	}
}

func (d *fakeDirectory) ListRegions(context.Context) ([]org.Region, error) {
	return d.regions, d.listErr
}

func (d *fakeDirectory) ListAreas(context.Context) ([]org.Area, error) {
	return d.areas, d.listErr
}

func (d *fakeDirectory) ListTerritories(context.Context) ([]org.Territory, error) {
	return d.territories, d.listErr
}

func (d *fakeDirectory) ListDealers(context.Context) ([]org.Dealer, error) {
	return d.dealers, d.listErr
}

func (d *fakeDirectory) ListUsersByRole(_ context.Context, name role.Name, _ ScopeFilter) ([]assignment.Candidate, error) {
	d.mu.Lock()
	i := d.calls
	d.calls++
	started := gate(d.started, i)
	blocked := gate(d.block, i)
	d.mu.Unlock()

	if started != nil {
		close(started)
	}
	if blocked != nil {
		<-blocked
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if i < len(d.poolErr) && d.poolErr[i] != nil {
		return nil, d.poolErr[i]
	}
	if i < len(d.pools) {
		return d.pools[i], nil
	}
	return d.usersByRole[name], nil
}

func gate(gates []chan struct{}, i int) chan struct{} {
	if i < len(gates) {
		return gates[i]
	}
	return nil
}

func (d *fakeDirectory) CreateUser(_ context.Context, p UserPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createUserErr != nil {
		return d.createUserErr
	}
	d.createdUsers = append(d.createdUsers, p)
	return nil
}

func (d *fakeDirectory) UpdateUser(_ context.Context, id string, p UserPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updatedUsers[id] = p
	return nil
}

func (d *fakeDirectory) CreateDealer(_ context.Context, p DealerPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createDealerErr != nil {
		return d.createDealerErr
	}
	d.createdDealers = append(d.createdDealers, p)
	return nil
}

func (d *fakeDirectory) UpdateDealer(context.Context, string, DealerPayload) error {
	return nil
}

func openUserForm(t *testing.T, dir Directory) *Form {
	t.Helper()
	svc := NewFormService(dir, role.DefaultCatalog())
	f, err := svc.Open(context.Background(), OpenRequest{Kind: assignment.KindUser})
	require.NoError(t, err)
	f.waitCandidates()
	return f
}

func fillAccount(t *testing.T, f *Form) {
	t.Helper()
	f.mu.Lock()
	f.draft.Username = "alice"
	f.draft.Email = "alice@example.com"
	f.draft.Password = "s3cret99"
	f.draft.ConfirmPassword = "s3cret99"
	f.mu.Unlock()
}

func TestSetFieldCascadesAndClearsErrors(t *testing.T) {
	dir := newFakeDirectory()
	f := openUserForm(t, dir)

	_, err := f.SetField(assignment.FieldRole, "territory_manager")
	require.NoError(t, err)
	_, err = f.SetField(assignment.FieldRegion, "r1")
	require.NoError(t, err)
	_, err = f.SetField(assignment.FieldArea, "a1")
	require.NoError(t, err)
	v, err := f.SetField(assignment.FieldTerritory, "t1")
	require.NoError(t, err)
	f.waitCandidates()

	assert.Equal(t, "t1", v.Draft.TerritoryID)
	assert.Contains(t, v.ResetTo, "dealer_id")
	assert.Contains(t, v.ResetTo, "manager_id")

	// Changing the region resets everything beneath it.
	v, err = f.SetField(assignment.FieldRegion, "r2")
	require.NoError(t, err)
	f.waitCandidates()
	assert.Empty(t, v.Draft.AreaID)
	assert.Empty(t, v.Draft.TerritoryID)
	assert.Equal(t, "territory_manager", string(v.Draft.Role))
}

func TestStaleCandidateResponseDiscarded(t *testing.T) {
	dir := newFakeDirectory()
	dir.started = []chan struct{}{make(chan struct{})}
	dir.block = []chan struct{}{make(chan struct{})}
	dir.pools = [][]assignment.Candidate{
		{{ID: "m-old", Username: "old", RoleName: role.DealerAdmin, DealerID: "d1"}},
		{{ID: "m-new", Username: "new", RoleName: role.DealerAdmin, DealerID: "d2"}},
	}

	f := openUserForm(t, dir)
	_, err := f.SetField(assignment.FieldRole, "dealer_staff")
	require.NoError(t, err)
	f.waitCandidates() // no dealer yet, nothing fetched

	// First change: fetch starts and parks on its gate.
	_, err = f.SetField(assignment.FieldDealer, "d1")
	require.NoError(t, err)
	<-dir.started[0]

	// Second change supersedes it and completes immediately.
	_, err = f.SetField(assignment.FieldDealer, "d2")
	require.NoError(t, err)

	// Let the first fetch finish late; its result must be dropped.
	close(dir.block[0])
	f.waitCandidates()

	v := f.View()
	require.Len(t, v.Candidates, 1)
	assert.Equal(t, "m-new", v.Candidates[0].ID)
	assert.False(t, v.Refreshing)
}

func TestCandidateFetchFailureDegradesToWarning(t *testing.T) {
	dir := newFakeDirectory()
	dir.poolErr = []error{context.DeadlineExceeded}

	f := openUserForm(t, dir)
	_, err := f.SetField(assignment.FieldRole, "area_manager")
	require.NoError(t, err)
	f.waitCandidates()

	v := f.View()
	assert.Equal(t, string(StateEditing), v.State)
	assert.Empty(t, v.Candidates)
	assert.Equal(t, WarnNoManagers, v.Warning)
}

func TestDealerScopedRoleWithoutDealerHasNoCandidates(t *testing.T) {
	dir := newFakeDirectory()
	dir.pools = [][]assignment.Candidate{
		{{ID: "m1", Username: "m1", RoleName: role.DealerAdmin, DealerID: "d1"}},
	}

	f := openUserForm(t, dir)
	_, err := f.SetField(assignment.FieldRole, "dealer_staff")
	require.NoError(t, err)
	f.waitCandidates()

	v := f.View()
	assert.Empty(t, v.Candidates)
	// No fetch was issued at all.
	dir.mu.Lock()
	assert.Zero(t, dir.calls)
	dir.mu.Unlock()
}

func TestSubmitValidationFailureStaysEditing(t *testing.T) {
	dir := newFakeDirectory()
	f := openUserForm(t, dir)

	_, err := f.SetField(assignment.FieldRole, "territory_manager")
	require.NoError(t, err)
	f.waitCandidates()
	fillAccount(t, f)

	v, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(StateEditing), v.State)
	assert.Equal(t, "Region is required for this role", v.Errors["region_id"])
	assert.Equal(t, "Territory is required for this role", v.Errors["territory_id"])
	dir.mu.Lock()
	assert.Empty(t, dir.createdUsers)
	dir.mu.Unlock()
}

func TestSubmitAccountChecksOnCreate(t *testing.T) {
	dir := newFakeDirectory()
	f := openUserForm(t, dir)

	_, err := f.SetField(assignment.FieldRole, "regional_manager")
	require.NoError(t, err)
	_, err = f.SetField(assignment.FieldRegion, "r1")
	require.NoError(t, err)
	f.waitCandidates()

	f.mu.Lock()
	f.draft.Username = "al"
	f.draft.Email = "not-an-email"
	f.draft.Password = "tiny"
	f.draft.ConfirmPassword = "other"
	f.mu.Unlock()

	v, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(StateEditing), v.State)
	assert.NotEmpty(t, v.Errors["username"])
	assert.NotEmpty(t, v.Errors["email"])
	assert.NotEmpty(t, v.Errors["password"])
	assert.NotEmpty(t, v.Errors["confirm_password"])
}

func TestSubmitSuccess(t *testing.T) {
	dir := newFakeDirectory()
	f := openUserForm(t, dir)

	_, err := f.SetField(assignment.FieldRole, "regional_manager")
	require.NoError(t, err)
	_, err = f.SetField(assignment.FieldRegion, "r1")
	require.NoError(t, err)
	f.waitCandidates()
	fillAccount(t, f)

	v, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(StateSucceeded), v.State)

	dir.mu.Lock()
	require.Len(t, dir.createdUsers, 1)
	p := dir.createdUsers[0]
	dir.mu.Unlock()

	assert.Equal(t, "regional_manager", p.Role)
	require.NotNil(t, p.RegionID)
	assert.Equal(t, "r1", *p.RegionID)
	assert.Nil(t, p.AreaID, "unset scopes go out as null")
	assert.Nil(t, p.ManagerID)

	// A succeeded form is closed for edits.
	_, err = f.SetField(assignment.FieldRegion, "r2")
	assert.True(t, shared.IsConflict(err))
}

func TestSubmitRejectionMapsScopeMessageToDealerField(t *testing.T) {
	dir := newFakeDirectory()
	dir.createUserErr = shared.NewRejectionError("dealerId is outside your allowed scope")
	dir.pools = [][]assignment.Candidate{
		{{ID: "m1", Username: "m1", RoleName: role.DealerAdmin, DealerID: "d1"}},
	}

	f := openUserForm(t, dir)
	_, err := f.SetField(assignment.FieldRole, "dealer_staff")
	require.NoError(t, err)
	_, err = f.SetField(assignment.FieldDealer, "d1")
	require.NoError(t, err)
	f.waitCandidates()
	fillAccount(t, f)

	v, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(StateFailed), v.State)
	assert.Equal(t, "Selected dealer is outside your allowed scope", v.Errors["dealer_id"])
	assert.Empty(t, v.FormError)

	// Retry reopens the form without touching the draft.
	v, err = f.Retry()
	require.NoError(t, err)
	assert.Equal(t, string(StateEditing), v.State)
	assert.Equal(t, "d1", v.Draft.DealerID)
}

func TestSubmitRejectionUnknownMessageIsFormLevel(t *testing.T) {
	dir := newFakeDirectory()
	dir.createUserErr = shared.NewRejectionError("quota exceeded for distributor")

	f := openUserForm(t, dir)
	_, err := f.SetField(assignment.FieldRole, "regional_manager")
	require.NoError(t, err)
	_, err = f.SetField(assignment.FieldRegion, "r1")
	require.NoError(t, err)
	f.waitCandidates()
	fillAccount(t, f)

	v, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(StateFailed), v.State)
	assert.Empty(t, v.Errors)
	assert.Contains(t, v.FormError, "quota exceeded for distributor")
}

func TestSubmitMandatoryManager(t *testing.T) {
	dir := newFakeDirectory()
	dir.usersByRole = map[role.Name][]assignment.Candidate{
		role.TerritoryManager: {{ID: "tm1", Username: "tm1", RoleName: role.TerritoryManager, RegionID: "r1"}},
		role.AreaManager:      {{ID: "am1", Username: "am1", RoleName: role.AreaManager, RegionID: "r1"}},
	}

	f := openUserForm(t, dir)
	_, err := f.SetField(assignment.FieldRole, "sales_executive")
	require.NoError(t, err)
	_, err = f.SetField(assignment.FieldRegion, "r1")
	require.NoError(t, err)
	f.waitCandidates()
	fillAccount(t, f)

	v, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Manager is required for this role", v.Errors["manager_id"])

	_, err = f.SetField(assignment.FieldManager, "tm1")
	require.NoError(t, err)
	f.waitCandidates()
	v, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(StateSucceeded), v.State)
}

func TestDealerFormSubmit(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewFormService(dir, role.DefaultCatalog())
	f, err := svc.Open(context.Background(), OpenRequest{Kind: assignment.KindDealer})
	require.NoError(t, err)
	f.waitCandidates()

	_, err = f.SetField(assignment.FieldRegion, "r1")
	require.NoError(t, err)
	f.waitCandidates()

	f.mu.Lock()
	f.draft.BusinessName = "Prime Motors East"
	f.draft.DealerCode = "PM-02"
	f.mu.Unlock()

	v, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(StateSucceeded), v.State)

	dir.mu.Lock()
	require.Len(t, dir.createdDealers, 1)
	p := dir.createdDealers[0]
	dir.mu.Unlock()
	assert.Equal(t, "PM-02", p.DealerCode)
	require.NotNil(t, p.RegionID)
	assert.Equal(t, "r1", *p.RegionID)
	assert.Nil(t, p.TerritoryID)
}

func TestDealerFormIdentityChecks(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewFormService(dir, role.DefaultCatalog())
	f, err := svc.Open(context.Background(), OpenRequest{Kind: assignment.KindDealer})
	require.NoError(t, err)
	f.waitCandidates()

	v, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(StateEditing), v.State)
	assert.NotEmpty(t, v.Errors["business_name"])
	assert.NotEmpty(t, v.Errors["dealer_code"])
}

func TestUpdateSkipsAccountChecks(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewFormService(dir, role.DefaultCatalog())
	prefill := &assignment.Draft{Role: role.RegionalManager, RegionID: "r1"}
	f, err := svc.Open(context.Background(), OpenRequest{
		Kind:     assignment.KindUser,
		TargetID: "u42",
		Prefill:  prefill,
	})
	require.NoError(t, err)
	f.waitCandidates()

	v, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(StateSucceeded), v.State)

	dir.mu.Lock()
	_, updated := dir.updatedUsers["u42"]
	dir.mu.Unlock()
	assert.True(t, updated)
}

func TestSetFieldRejectsUnknownField(t *testing.T) {
	dir := newFakeDirectory()
	f := openUserForm(t, dir)

	_, err := f.SetField(assignment.Field("distributor_id"), "x")
	assert.True(t, shared.IsValidation(err))
}

func TestServiceSessionLifecycle(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewFormService(dir, role.DefaultCatalog(), WithSessionTTL(time.Minute))

	f, err := svc.Open(context.Background(), OpenRequest{Kind: assignment.KindUser})
	require.NoError(t, err)
	f.waitCandidates()
	require.Equal(t, 1, svc.Len())

	got, err := svc.Get(f.ID())
	require.NoError(t, err)
	assert.Same(t, f, got)

	// Fresh sessions survive a sweep; idle ones past the TTL do not.
	svc.sweep(time.Now())
	assert.Equal(t, 1, svc.Len())
	svc.sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, svc.Len())

	_, err = svc.Get(f.ID())
	assert.True(t, shared.IsNotFound(err))

	svc.Close(f.ID()) // no-op on an evicted session
}

func TestOpenFailsWhenHierarchyUnavailable(t *testing.T) {
	dir := newFakeDirectory()
	dir.listErr = context.DeadlineExceeded

	svc := NewFormService(dir, role.DefaultCatalog())
	_, err := svc.Open(context.Background(), OpenRequest{Kind: assignment.KindUser})
	assert.Error(t, err)
}
