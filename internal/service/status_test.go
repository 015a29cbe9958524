package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

func TestCurrentStatus_DefaultsToNotVoted(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewStatusService(db, nil, nil)

	// Act
	status, err := svc.Current(voter.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotVoted, status)
}

func TestRecordStatus_AppendsAndProjectsLatest(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewStatusService(db, nil, nil)

	// Act
	_, err := svc.Record(admin, voter.ID, model.StatusVisited)
	require.NoError(t, err)
	_, err = svc.Record(admin, voter.ID, model.StatusVoted)
	require.NoError(t, err)

	// Assert: the latest row wins, earlier rows are kept
	status, err := svc.Current(voter.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVoted, status)

	var count int64
	db.Model(&model.VoterStatus{}).Where("voter_id = ?", voter.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestRecordStatus_SameStatusCreatesNewRow(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewStatusService(db, nil, nil)

	// Act
	_, err := svc.Record(admin, voter.ID, model.StatusVoted)
	require.NoError(t, err)
	_, err = svc.Record(admin, voter.ID, model.StatusVoted)
	require.NoError(t, err)

	// Assert
	var count int64
	db.Model(&model.VoterStatus{}).Where("voter_id = ?", voter.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestRecordStatus_InvalidValue(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewStatusService(db, nil, nil)

	// Act
	_, err := svc.Record(admin, voter.ID, "maybe")

	// Assert
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRecordStatus_VoterNotFound(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	svc := NewStatusService(db, nil, nil)

	// Act
	_, err := svc.Record(admin, 9999, model.StatusVoted)

	// Assert
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordStatus_WorkerLimitedToVisitStatuses(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	assignVoter(t, db, voter, worker, lead)
	svc := NewStatusService(db, nil, nil)

	// Act + Assert: canvassing statuses are allowed
	_, err := svc.Record(worker, voter.ID, model.StatusVisited)
	require.NoError(t, err)
	_, err = svc.Record(worker, voter.ID, model.StatusNotVisited)
	require.NoError(t, err)

	// Ballot statuses are not
	_, err = svc.Record(worker, voter.ID, model.StatusVoted)
	assert.ErrorIs(t, err, policy.ErrForbidden)
}

func TestRecordStatus_WorkerRequiresAssignment(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewStatusService(db, nil, nil)

	// Act
	_, err := svc.Record(worker, voter.ID, model.StatusVisited)

	// Assert
	assert.ErrorIs(t, err, policy.ErrForbidden)
}

func TestRecordStatus_TeamLeadBoundToWard(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, wardB := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	inWard := makeVoter(t, db, "WD-001", wardA)
	outOfWard := makeVoter(t, db, "WD-002", wardB)
	svc := NewStatusService(db, nil, nil)

	// Act + Assert
	_, err := svc.Record(lead, inWard.ID, model.StatusVoted)
	require.NoError(t, err)

	_, err = svc.Record(lead, outOfWard.ID, model.StatusVoted)
	assert.ErrorIs(t, err, policy.ErrForbidden)
}

func TestStatusHistory_NewestFirstWithActor(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewStatusService(db, nil, nil)

	_, err := svc.Record(admin, voter.ID, model.StatusVisited)
	require.NoError(t, err)
	_, err = svc.Record(admin, voter.ID, model.StatusVoted)
	require.NoError(t, err)

	// Act
	history, err := svc.History(voter.ID)

	// Assert
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusVoted, history[0].Status)
	assert.Equal(t, model.StatusVisited, history[1].Status)
	require.NotNil(t, history[0].User)
	assert.Equal(t, admin.ID, history[0].User.ID)
}

func TestStatusHistory_UnknownVoter(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	svc := NewStatusService(db, nil, nil)

	// Act
	_, err := svc.History(4242)

	// Assert
	assert.ErrorIs(t, err, ErrNotFound)
}
