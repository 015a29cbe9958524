package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/api/internal/model"
)

func TestCloneWard_CopiesStructure(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)

	booth := &model.Booth{Name: "School", BoothNumber: "12", PanchayatID: wardA.PanchayatID, WardID: wardA.ID}
	require.NoError(t, db.Create(booth).Error)

	v1 := makeVoter(t, db, "WD-001", wardA)
	v1Booth := booth.ID
	require.NoError(t, db.Model(v1).Update("booth_id", v1Booth).Error)
	makeVoter(t, db, "WD-002", wardA)

	svc := NewWardCloneService(db, nil)

	// Act
	result, err := svc.Clone(model.CloneWardRequest{
		WardID:        wardA.ID,
		NewWardName:   "Ward A Copy",
		NewWardNumber: "1C",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.ClonedBoothsCount)
	assert.Equal(t, 2, result.ClonedVotersCount)
	assert.Equal(t, wardA.ID, result.SourceWardID)

	require.NotNil(t, result.NewWard.ClonedFromWardID)
	assert.Equal(t, wardA.ID, *result.NewWard.ClonedFromWardID)
	assert.True(t, result.NewWard.IsClone())

	// The cloned voter's booth points at the cloned booth, not the original
	var newBooth model.Booth
	require.NoError(t, db.Where("ward_id = ?", result.NewWard.ID).First(&newBooth).Error)
	assert.NotEqual(t, booth.ID, newBooth.ID)
	assert.Equal(t, "12", newBooth.BoothNumber)

	var clonedV1 model.Voter
	require.NoError(t, db.Where("ward_id = ? AND serial_number = ?", result.NewWard.ID, "WD-001").First(&clonedV1).Error)
	require.NotNil(t, clonedV1.BoothID)
	assert.Equal(t, newBooth.ID, *clonedV1.BoothID)
}

func TestCloneWard_CleanSlate(t *testing.T) {
	// Arrange: source voters carry statuses and assignments
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	lead := makeUser(t, db, "lead", model.RoleTeamLead, &wardA.ID)
	worker := makeUser(t, db, "worker", model.RoleWorker, &wardA.ID)
	voter := makeVoter(t, db, "WD-001", wardA)
	assignVoter(t, db, voter, worker, lead)

	statusSvc := NewStatusService(db, nil, nil)
	_, err := statusSvc.Record(lead, voter.ID, model.StatusVoted)
	require.NoError(t, err)

	svc := NewWardCloneService(db, nil)

	// Act
	result, err := svc.Clone(model.CloneWardRequest{
		WardID:        wardA.ID,
		NewWardName:   "Ward A Copy",
		NewWardNumber: "1C",
	})
	require.NoError(t, err)

	// Assert: the cloned voter has no assignment and a not_voted projection
	var cloned model.Voter
	require.NoError(t, db.Where("ward_id = ?", result.NewWard.ID).First(&cloned).Error)

	var assignments int64
	db.Model(&model.VoterWorkerAssignment{}).Where("voter_id = ?", cloned.ID).Count(&assignments)
	assert.Equal(t, int64(0), assignments)

	status, err := statusSvc.Current(cloned.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotVoted, status)

	// The source voter's state is untouched
	status, err = statusSvc.Current(voter.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVoted, status)
}

func TestCloneWard_UnknownSource(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	svc := NewWardCloneService(db, nil)

	// Act
	_, err := svc.Clone(model.CloneWardRequest{WardID: 404, NewWardName: "X", NewWardNumber: "9"})

	// Assert
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevertWard_OnlyClones(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	svc := NewWardCloneService(db, nil)

	// Act
	_, err := svc.Revert(wardA.ID)

	// Assert
	assert.ErrorIs(t, err, ErrNotClone)
}

func TestRevertWard_DeletesSubtree(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	_, wardA, _ := seedHierarchy(t, db)
	booth := &model.Booth{Name: "School", BoothNumber: "12", PanchayatID: wardA.PanchayatID, WardID: wardA.ID}
	require.NoError(t, db.Create(booth).Error)
	makeVoter(t, db, "WD-001", wardA)
	makeVoter(t, db, "WD-002", wardA)

	svc := NewWardCloneService(db, nil)
	result, err := svc.Clone(model.CloneWardRequest{
		WardID:        wardA.ID,
		NewWardName:   "Ward A Copy",
		NewWardNumber: "1C",
	})
	require.NoError(t, err)
	cloneID := result.NewWard.ID

	// A team lead affiliated with the clone keeps the account, loses the ward
	lead := makeUser(t, db, "clonelead", model.RoleTeamLead, &cloneID)

	// Act
	revert, err := svc.Revert(cloneID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, cloneID, revert.RevertedWard.ID)
	require.NotNil(t, revert.SourceWard)
	assert.Equal(t, wardA.ID, revert.SourceWard.ID)
	assert.Equal(t, 1, revert.DeletedCounts["booths"])
	assert.Equal(t, 2, revert.DeletedCounts["voters"])

	var wards, booths, voters int64
	db.Model(&model.Ward{}).Where("id = ?", cloneID).Count(&wards)
	db.Model(&model.Booth{}).Where("ward_id = ?", cloneID).Count(&booths)
	db.Model(&model.Voter{}).Where("ward_id = ?", cloneID).Count(&voters)
	assert.Equal(t, int64(0), wards)
	assert.Equal(t, int64(0), booths)
	assert.Equal(t, int64(0), voters)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, lead.ID).Error)
	assert.Nil(t, reloaded.WardID)

	// The source ward survives intact
	var sourceVoters int64
	db.Model(&model.Voter{}).Where("ward_id = ?", wardA.ID).Count(&sourceVoters)
	assert.Equal(t, int64(2), sourceVoters)
}
