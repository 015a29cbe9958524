package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

func TestAssign_TeamLeadAssignsInWard(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewAssignmentService(db, nil, nil)

	// Act
	result, err := svc.Assign(lead, voter.ID, worker.ID)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.Equal(t, worker.ID, result.Assignment.WorkerID)
	assert.Equal(t, lead.ID, result.Assignment.AssignedBy)
}

func TestAssign_ReplacesExistingAssignment(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker1 := makeUser(t, db, "worker1", model.RoleWorker, &wardA.ID)
	worker2 := makeUser(t, db, "worker2", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewAssignmentService(db, nil, nil)

	// Act
	_, err := svc.Assign(lead, voter.ID, worker1.ID)
	require.NoError(t, err)
	result, err := svc.Assign(lead, voter.ID, worker2.ID)
	require.NoError(t, err)

	// Assert: exactly one live row, pointing at the second worker
	require.NotNil(t, result.Assignment)
	assert.Equal(t, worker2.ID, result.Assignment.WorkerID)

	var count int64
	db.Model(&model.VoterWorkerAssignment{}).Where("voter_id = ?", voter.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAssign_CrossWardForbidden(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, wardB := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	workerA := makeUser(t, db, "workerA", model.RoleWorker, &wardA.ID)
	workerB := makeUser(t, db, "workerB", model.RoleWorker, &wardB.ID)
	voterA := makeVoter(t, db, "WD-001", wardA)
	voterB := makeVoter(t, db, "WD-002", wardB)
	svc := NewAssignmentService(db, nil, nil)

	// Act + Assert: voter outside the lead's ward
	_, err := svc.Assign(lead, voterB.ID, workerA.ID)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	// Worker outside the lead's ward
	_, err = svc.Assign(lead, voterA.ID, workerB.ID)
	assert.ErrorIs(t, err, policy.ErrForbidden)
}

func TestAssign_SuperadminCannotAssign(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	admin := makeUser(t, db, "admin", model.RoleSuperadmin, nil)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewAssignmentService(db, nil, nil)

	// Act
	_, err := svc.Assign(admin, voter.ID, worker.ID)

	// Assert: assigning is a team lead capability
	assert.ErrorIs(t, err, policy.ErrForbidden)
}

func TestBulkAssign_ItemizedFailures(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, wardB := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	v1 := makeVoter(t, db, "WD-001", wardA)
	v2 := makeVoter(t, db, "WD-002", wardA)
	outOfWard := makeVoter(t, db, "WD-003", wardB)
	svc := NewAssignmentService(db, nil, nil)

	// Act
	result, err := svc.BulkAssign(lead, []uint{v1.ID, v2.ID, outOfWard.ID, 9999}, worker.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.AssignedCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Len(t, result.AssignedVoters, 2)

	reasons := map[uint]string{}
	for _, f := range result.FailedVoters {
		reasons[f.VoterID] = f.Reason
	}
	assert.Equal(t, "Unauthorized to assign this voter", reasons[outOfWard.ID])
	assert.Equal(t, "Voter not found", reasons[9999])
}

func TestBulkAssign_TargetMustBeWorker(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	agent := makeUser(t, db, "agent", model.RoleBoothAgent, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	svc := NewAssignmentService(db, nil, nil)

	// Act
	_, err := svc.BulkAssign(lead, []uint{voter.ID}, agent.ID)

	// Assert
	assert.ErrorIs(t, err, ErrNotWorker)
}

func TestUnassign_RemovesAssignment(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	assignVoter(t, db, voter, worker, lead)
	svc := NewAssignmentService(db, nil, nil)

	// Act
	err := svc.Unassign(lead, voter.ID)

	// Assert
	require.NoError(t, err)
	var count int64
	db.Model(&model.VoterWorkerAssignment{}).Where("voter_id = ?", voter.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// Unassigning again reports the absence
	err = svc.Unassign(lead, voter.ID)
	assert.ErrorIs(t, err, ErrNotAssigned)
}

func TestSetRemark_OnlyAssignedWorker(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	other := makeUser(t, db, "other", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	assignVoter(t, db, voter, worker, lead)
	svc := NewAssignmentService(db, nil, nil)

	// Act + Assert: the assigned worker may set the remark
	result, err := svc.SetRemark(worker, voter.ID, "spoke to family")
	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.Equal(t, "spoke to family", result.Assignment.Remark)

	// A worker without the assignment gets a not-found signal
	_, err = svc.SetRemark(other, voter.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRemark_GoneAfterUnassign(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	assignVoter(t, db, voter, worker, lead)
	svc := NewAssignmentService(db, nil, nil)

	require.NoError(t, svc.Unassign(lead, voter.ID))

	// Act
	_, err := svc.SetRemark(worker, voter.ID, "too late")

	// Assert
	assert.ErrorIs(t, err, ErrNotFound)
}
