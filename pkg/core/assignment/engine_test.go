package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/db"
)

// mockStore implements Store for testing
type mockStore struct {
	complaints     map[string]*model.Complaint
	workers        map[string]*model.User
	activeByWorker map[string]int
	deptLoads      map[string]int
	deptWorkers    []model.User
	leaves         []model.LeaveRequest

	entries []db.StatusLogEntry

	getComplaintErr error
	updateErr       error
	findWorkersErr  error

	leaveQueriedDay time.Time
}

func (m *mockStore) GetComplaint(ctx context.Context, id string) (*model.Complaint, error) {
	if m.getComplaintErr != nil {
		return nil, m.getComplaintErr
	}
	c, ok := m.complaints[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) UpdateComplaintStatus(ctx context.Context, id string, expected model.Status, patch db.ComplaintPatch, entry db.StatusLogEntry) (*model.Complaint, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	c, ok := m.complaints[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if c.Status != expected {
		return nil, db.ErrStatusConflict
	}
	c.Status = patch.Status
	if patch.AssignedWorkerID != nil {
		c.AssignedWorkerID = *patch.AssignedWorkerID
	}
	if patch.SLADeadline != nil {
		c.SLADeadline = patch.SLADeadline
	}
	if patch.Priority != nil {
		c.Priority = *patch.Priority
	}
	if patch.ResolvedAt != nil {
		c.ResolvedAt = patch.ResolvedAt
	}
	m.entries = append(m.entries, entry)
	cp := *c
	return &cp, nil
}

func (m *mockStore) CountActiveByWorker(ctx context.Context, workerID string) (int, error) {
	return m.activeByWorker[workerID], nil
}

func (m *mockStore) ActiveLoadByDepartment(ctx context.Context, departmentID string) (map[string]int, error) {
	return m.deptLoads, nil
}

func (m *mockStore) GetWorker(ctx context.Context, id string) (*model.User, error) {
	w, ok := m.workers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	wp := *w
	return &wp, nil
}

func (m *mockStore) FindActiveWorkers(ctx context.Context, departmentID string) ([]model.User, error) {
	if m.findWorkersErr != nil {
		return nil, m.findWorkersErr
	}
	return m.deptWorkers, nil
}

func (m *mockStore) ApprovedLeaveCoveringDate(ctx context.Context, workerID string, day time.Time) (bool, error) {
	m.leaveQueriedDay = day
	for _, leave := range m.leaves {
		if leave.WorkerID == workerID && leave.Status == model.LeaveApproved && leave.Covers(day) {
			return true, nil
		}
	}
	return false, nil
}

// leaveCovering builds an approved leave spanning yesterday to tomorrow.
func leaveCovering(workerID string) model.LeaveRequest {
	now := time.Now().UTC()
	return model.LeaveRequest{
		ID:        "l1",
		WorkerID:  workerID,
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 1),
		Status:    model.LeaveApproved,
	}
}

func (m *mockStore) CountAssignedWithDeadlineBetween(ctx context.Context, workerID string, start, end time.Time) (int, error) {
	return 0, nil
}

// newAssignStore builds a department with one reported complaint and two
// eligible workers.
func newAssignStore() *mockStore {
	return &mockStore{
		complaints: map[string]*model.Complaint{
			"c1": {
				ID:           "c1",
				Title:        "Pothole on Main Street",
				Status:       model.StatusReported,
				Priority:     model.PriorityMedium,
				ReporterID:   "cit-1",
				DepartmentID: "dept-roads",
			},
		},
		workers: map[string]*model.User{
			"w1": {ID: "w1", Name: "Walter Perez", Role: model.RoleWorker, DepartmentID: "dept-roads", IsActive: true},
			"w2": {ID: "w2", Name: "Wendy Lopez", Role: model.RoleWorker, DepartmentID: "dept-roads", IsActive: true},
		},
		activeByWorker: map[string]int{},
		deptLoads:      map[string]int{},
		deptWorkers: []model.User{
			{ID: "w1", Name: "Walter Perez", Role: model.RoleWorker, DepartmentID: "dept-roads", IsActive: true},
			{ID: "w2", Name: "Wendy Lopez", Role: model.RoleWorker, DepartmentID: "dept-roads", IsActive: true},
		},
	}
}

func validInput() AssignInput {
	return AssignInput{
		ComplaintID: "c1",
		Actor:       model.NewAdminActor("adm-1", "Ana", "dept-roads"),
		WorkerID:    "w1",
		SLADeadline: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAssign_Success(t *testing.T) {
	store := newAssignStore()
	engine := NewEngine(store, zap.NewNop())

	result, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, model.StatusAssigned, result.Complaint.Status)
	assert.Equal(t, "w1", result.Complaint.AssignedWorkerID)
	require.NotNil(t, result.Complaint.SLADeadline)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *result.Complaint.SLADeadline)
	assert.Equal(t, 1, result.WorkerLoad)
}

func TestAssign_WritesAuditEntry(t *testing.T) {
	store := newAssignStore()
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, model.StatusReported, entry.OldStatus)
	assert.Equal(t, model.StatusAssigned, entry.NewStatus)
	assert.Equal(t, "adm-1", entry.ChangedBy)
	assert.Equal(t, "Assigned to Walter Perez", entry.Note)
}

func TestAssign_PriorityOverride(t *testing.T) {
	store := newAssignStore()
	engine := NewEngine(store, zap.NewNop())

	in := validInput()
	in.Priority = model.PriorityCritical

	result, err := engine.Assign(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityCritical, result.Complaint.Priority)
}

func TestAssign_ComplaintNotFound(t *testing.T) {
	store := newAssignStore()
	engine := NewEngine(store, zap.NewNop())

	in := validInput()
	in.ComplaintID = "missing"

	_, err := engine.Assign(context.Background(), in)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "Complaint not found", err.Error())
}

func TestAssign_AlreadyAssigned(t *testing.T) {
	store := newAssignStore()
	store.complaints["c1"].Status = model.StatusAssigned
	store.complaints["c1"].AssignedWorkerID = "w2"
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidState))
	assert.Equal(t, "This complaint is already assigned", err.Error())
}

func TestAssign_AdminOutsideDepartmentForbidden(t *testing.T) {
	store := newAssignStore()
	engine := NewEngine(store, zap.NewNop())

	in := validInput()
	in.Actor = model.NewAdminActor("adm-2", "Omar", "dept-water")

	_, err := engine.Assign(context.Background(), in)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindForbidden))
	assert.Empty(t, store.entries, "no audit row on rejection")
	assert.Equal(t, model.StatusReported, store.complaints["c1"].Status)
}

func TestAssign_SuperAdminCrossesDepartments(t *testing.T) {
	store := newAssignStore()
	engine := NewEngine(store, zap.NewNop())

	in := validInput()
	in.Actor = model.NewSuperAdminActor("sup-1", "Sam")

	result, err := engine.Assign(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "w1", result.Complaint.AssignedWorkerID)
}

func TestAssign_WorkerInOtherDepartment(t *testing.T) {
	store := newAssignStore()
	store.workers["w1"].DepartmentID = "dept-water"
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindWorkerNotEligible))
	assert.Equal(t, "Worker not found or not in the same department", err.Error())
}

func TestAssign_InactiveWorker(t *testing.T) {
	store := newAssignStore()
	store.workers["w1"].IsActive = false
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindWorkerNotEligible))
}

func TestAssign_CandidateIsNotAWorker(t *testing.T) {
	store := newAssignStore()
	store.workers["w1"].Role = model.RoleAdmin
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindWorkerNotEligible))
}

func TestAssign_WorkloadCapReached(t *testing.T) {
	store := newAssignStore()
	store.activeByWorker["w1"] = WorkloadCap
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindWorkloadCapExceeded))
	assert.Equal(t, "Worker already has 10 active tasks. Consider assigning to another worker.", err.Error())
	assert.Equal(t, model.StatusReported, store.complaints["c1"].Status, "rejection must not mutate the complaint")
	assert.Empty(t, store.entries)
}

func TestAssign_OneBelowCapSucceeds(t *testing.T) {
	store := newAssignStore()
	store.activeByWorker["w1"] = WorkloadCap - 1
	store.deptLoads["w1"] = WorkloadCap - 1
	engine := NewEngine(store, zap.NewNop())

	result, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, WorkloadCap, result.WorkerLoad)
}

func TestAssign_WorkerOnLeaveRejectedRegardlessOfLoad(t *testing.T) {
	store := newAssignStore()
	store.leaves = []model.LeaveRequest{leaveCovering("w1")}
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindWorkerOnLeave))
	assert.Equal(t, "Walter Perez is on approved leave today", err.Error())
}

func TestAssign_PendingLeaveDoesNotBlock(t *testing.T) {
	store := newAssignStore()
	pending := leaveCovering("w1")
	pending.Status = model.LeavePending
	store.leaves = []model.LeaveRequest{pending}
	engine := NewEngine(store, zap.NewNop())

	result, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "w1", result.Complaint.AssignedWorkerID)
}

func TestAssign_ConcurrentStatusConflict(t *testing.T) {
	store := newAssignStore()
	store.updateErr = db.ErrStatusConflict
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.Assign(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidState))
	assert.Equal(t, "This complaint is already assigned", err.Error())
}

func TestAssign_SuggestsLessLoadedWorker(t *testing.T) {
	store := newAssignStore()
	store.activeByWorker["w1"] = 5
	store.deptLoads = map[string]int{"w1": 5, "w2": 2}
	engine := NewEngine(store, zap.NewNop())

	result, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, 6, result.WorkerLoad)
	assert.Equal(t, "Wendy Lopez has fewer tasks (2)", result.Suggestion)
}

func TestAssign_NoSuggestionWhenCandidateIsLeastLoaded(t *testing.T) {
	store := newAssignStore()
	store.activeByWorker["w1"] = 1
	store.deptLoads = map[string]int{"w1": 1, "w2": 4}
	engine := NewEngine(store, zap.NewNop())

	result, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)
	assert.Empty(t, result.Suggestion)
}

func TestAssign_NoSuggestionOnEqualLoad(t *testing.T) {
	// w2 at 1 equals w1's post-assignment load of 1; the suggestion
	// requires strictly fewer tasks.
	store := newAssignStore()
	store.deptLoads = map[string]int{"w2": 1}
	engine := NewEngine(store, zap.NewNop())

	result, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)
	assert.Empty(t, result.Suggestion)
}

func TestAssign_SuggestionFailureDoesNotFailAssignment(t *testing.T) {
	store := newAssignStore()
	store.findWorkersErr = errors.New("boom")
	engine := NewEngine(store, zap.NewNop())

	result, err := engine.Assign(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, result.Complaint.Status)
	assert.Empty(t, result.Suggestion)
}

func TestAssign_ValidationMessages(t *testing.T) {
	engine := NewEngine(newAssignStore(), zap.NewNop())

	in := validInput()
	in.WorkerID = ""
	_, err := engine.Assign(context.Background(), in)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "Worker is required", err.Error())

	in = validInput()
	in.SLADeadline = time.Time{}
	_, err = engine.Assign(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, "Deadline is required", err.Error())

	in = validInput()
	in.Priority = "urgent"
	_, err = engine.Assign(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, "Invalid priority", err.Error())
}
