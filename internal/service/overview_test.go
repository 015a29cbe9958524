package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/api/internal/model"
)

func TestDashboard_CountsAndPercentages(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	v1 := makeVoter(t, db, "WD-A1", wardA)
	makeVoter(t, db, "WD-A2", wardA)
	makeVoter(t, db, "WD-A3", wardA)

	statusSvc := NewStatusService(db, nil, nil)
	_, err := statusSvc.Record(admin, v1.ID, model.StatusVoted)
	require.NoError(t, err)

	svc := NewOverviewService(db, nil)

	// Act
	stats, err := svc.Dashboard(context.Background(), admin)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalVoters)
	assert.Equal(t, int64(1), stats.VotersVoted)
	assert.Equal(t, int64(2), stats.VotersNotVoted)
	assert.InDelta(t, 33.33, stats.VotedPercentage, 0.001)
	assert.InDelta(t, 66.67, stats.NotVotedPercentage, 0.001)
}

func TestDashboard_ZeroTotal(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	svc := NewOverviewService(db, nil)

	// Act
	stats, err := svc.Dashboard(context.Background(), admin)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalVoters)
	assert.Equal(t, float64(0), stats.VotedPercentage)
	assert.Equal(t, float64(0), stats.NotVotedPercentage)
}

func TestDashboard_ScopedToWard(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, wardB := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	makeVoter(t, db, "WD-A1", wardA)
	makeVoter(t, db, "WD-B1", wardB)
	makeVoter(t, db, "WD-B2", wardB)
	svc := NewOverviewService(db, nil)

	// Act
	stats, err := svc.Dashboard(context.Background(), lead)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVoters)
	assert.Equal(t, model.RoleTeamLead, stats.Role)
}

func TestOverview_CountsAndAssignment(t *testing.T) {
	// Arrange: four voters, one voted, one visited, two assigned
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)

	v1 := makeVoter(t, db, "WD-A1", wardA)
	v2 := makeVoter(t, db, "WD-A2", wardA)
	makeVoter(t, db, "WD-A3", wardA)
	makeVoter(t, db, "WD-A4", wardA)
	assignVoter(t, db, v1, worker, lead)
	assignVoter(t, db, v2, worker, lead)

	statusSvc := NewStatusService(db, nil, nil)
	_, err := statusSvc.Record(admin, v1.ID, model.StatusVoted)
	require.NoError(t, err)
	_, err = statusSvc.Record(admin, v2.ID, model.StatusVisited)
	require.NoError(t, err)

	svc := NewOverviewService(db, nil)

	// Act
	stats, err := svc.Overview(context.Background(), admin, OverviewQuery{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalVoters)
	assert.Equal(t, int64(1), stats.VotedCount)
	assert.Equal(t, int64(1), stats.VisitedCount)
	assert.Equal(t, int64(3), stats.NotVotedCount)
	assert.Equal(t, int64(2), stats.AssignedCount)
	assert.Equal(t, int64(2), stats.NotAssignedCount)
	assert.InDelta(t, 25.0, stats.VotedPercentage, 0.001)
}

func TestOverview_WorkerDrillDown(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker1 := makeUser(t, db, "worker1", model.RoleWorker, &wardA.ID)
	worker2 := makeUser(t, db, "worker2", model.RoleWorker, &wardA.ID)
	v1 := makeVoter(t, db, "WD-A1", wardA)
	v2 := makeVoter(t, db, "WD-A2", wardA)
	v3 := makeVoter(t, db, "WD-A3", wardA)
	assignVoter(t, db, v1, worker1, lead)
	assignVoter(t, db, v2, worker1, lead)
	assignVoter(t, db, v3, worker2, lead)
	svc := NewOverviewService(db, nil)

	// Act: team lead drills down to one worker
	stats, err := svc.Overview(context.Background(), lead, OverviewQuery{WorkerID: worker1.ID})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalVoters)

	// A worker's own overview ignores the drill-down filter
	stats, err = svc.Overview(context.Background(), worker2, OverviewQuery{WorkerID: worker1.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVoters)
}

// The canvassing walkthrough: a ward roll worked by one worker through a
// polling day, checked through each projection change.
func TestOverview_CanvassingDay(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)

	s1 := makeVoter(t, db, "S1", wardA)
	s2 := makeVoter(t, db, "S2", wardA)

	assignmentSvc := NewAssignmentService(db, nil, nil)
	statusSvc := NewStatusService(db, nil, nil)
	overviewSvc := NewOverviewService(db, nil)

	// Everyone starts not_voted
	stats, err := overviewSvc.Overview(context.Background(), lead, OverviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.NotVotedCount)
	assert.Equal(t, int64(0), stats.AssignedCount)

	// The lead assigns both voters to the worker
	_, err = assignmentSvc.Assign(lead, s1.ID, worker.ID)
	require.NoError(t, err)
	_, err = assignmentSvc.Assign(lead, s2.ID, worker.ID)
	require.NoError(t, err)

	// The worker canvasses: S1 visited, S2 not reachable
	_, err = statusSvc.Record(worker, s1.ID, model.StatusVisited)
	require.NoError(t, err)
	_, err = statusSvc.Record(worker, s2.ID, model.StatusNotVisited)
	require.NoError(t, err)

	// The lead marks S1 as having voted
	_, err = statusSvc.Record(lead, s1.ID, model.StatusVoted)
	require.NoError(t, err)

	// Act
	stats, err = overviewSvc.Overview(context.Background(), lead, OverviewQuery{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalVoters)
	assert.Equal(t, int64(1), stats.VotedCount)
	assert.Equal(t, int64(2), stats.AssignedCount)
	assert.InDelta(t, 50.0, stats.VotedPercentage, 0.001)

	// S1's ledger kept every step
	history, err := statusSvc.History(s1.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusVoted, history[0].Status)

	// The worker's own view covers exactly the two assigned voters
	workerStats, err := overviewSvc.Dashboard(context.Background(), worker)
	require.NoError(t, err)
	assert.Equal(t, int64(2), workerStats.TotalVoters)
	assert.Equal(t, int64(1), workerStats.VotersVoted)
}
