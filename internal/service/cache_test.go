package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/api/internal/model"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRecordStatus_DropsCachedAggregates(t *testing.T) {
	// Arrange: a primed dashboard cache
	db := setupTestDB(t)
	mr, rdb := setupTestRedis(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	voter := makeVoter(t, db, "WD-A1", wardA)

	overviewSvc := NewOverviewService(db, rdb)
	stats, err := overviewSvc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.VotersVoted)

	dashboardKey := fmt.Sprintf("roll:dashboard:%d", admin.ID)
	require.True(t, mr.Exists(dashboardKey))

	// Act
	statusSvc := NewStatusService(db, rdb, nil)
	_, err = statusSvc.Record(admin, voter.ID, model.StatusVoted)
	require.NoError(t, err)

	// Assert: the key is gone and the next read reflects the write
	assert.False(t, mr.Exists(dashboardKey))

	stats, err = overviewSvc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.VotersVoted)
}

func TestAssign_DropsCachedAggregates(t *testing.T) {
	// Arrange: a primed overview cache showing no assignments
	db := setupTestDB(t)
	mr, rdb := setupTestRedis(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-A1", wardA)

	overviewSvc := NewOverviewService(db, rdb)
	stats, err := overviewSvc.Overview(context.Background(), lead, OverviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.AssignedCount)

	overviewKey := fmt.Sprintf("roll:overview:%d:0:0", lead.ID)
	require.True(t, mr.Exists(overviewKey))

	// Act
	assignmentSvc := NewAssignmentService(db, rdb, nil)
	_, err = assignmentSvc.Assign(lead, voter.ID, worker.ID)
	require.NoError(t, err)

	// Assert
	assert.False(t, mr.Exists(overviewKey))

	stats, err = overviewSvc.Overview(context.Background(), lead, OverviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AssignedCount)
}

func TestUnassign_DropsCachedAggregates(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	mr, rdb := setupTestRedis(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-A1", wardA)
	assignVoter(t, db, voter, worker, lead)

	overviewSvc := NewOverviewService(db, rdb)
	_, err := overviewSvc.Overview(context.Background(), lead, OverviewQuery{})
	require.NoError(t, err)
	overviewKey := fmt.Sprintf("roll:overview:%d:0:0", lead.ID)
	require.True(t, mr.Exists(overviewKey))

	// Act
	assignmentSvc := NewAssignmentService(db, rdb, nil)
	require.NoError(t, assignmentSvc.Unassign(lead, voter.ID))

	// Assert
	assert.False(t, mr.Exists(overviewKey))

	stats, err := overviewSvc.Overview(context.Background(), lead, OverviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.AssignedCount)
}

func TestBulkAssign_DropsCachedAggregates(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	mr, rdb := setupTestRedis(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	v1 := makeVoter(t, db, "WD-A1", wardA)
	v2 := makeVoter(t, db, "WD-A2", wardA)

	overviewSvc := NewOverviewService(db, rdb)
	_, err := overviewSvc.Overview(context.Background(), lead, OverviewQuery{})
	require.NoError(t, err)
	overviewKey := fmt.Sprintf("roll:overview:%d:0:0", lead.ID)
	require.True(t, mr.Exists(overviewKey))

	// Act
	assignmentSvc := NewAssignmentService(db, rdb, nil)
	result, err := assignmentSvc.BulkAssign(lead, []uint{v1.ID, v2.ID}, worker.ID)
	require.NoError(t, err)
	require.Equal(t, 2, result.AssignedCount)

	// Assert
	assert.False(t, mr.Exists(overviewKey))

	stats, err := overviewSvc.Overview(context.Background(), lead, OverviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.AssignedCount)
}
