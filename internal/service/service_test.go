package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
)

// setupTestDB opens a private in-memory database per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Panchayat{},
		&model.Ward{},
		&model.Booth{},
		&model.Voter{},
		&model.VoterStatus{},
		&model.VoterWorkerAssignment{},
		&model.VoterCategory{},
		&model.VoterCategoryVoter{},
		&model.LoginLog{},
	))
	return db
}

// seedHierarchy creates one panchayat with two wards.
func seedHierarchy(t *testing.T, db *gorm.DB) (*model.Panchayat, *model.Ward, *model.Ward) {
	t.Helper()

	panchayat := &model.Panchayat{Name: "North Panchayat", District: "North District"}
	require.NoError(t, db.Create(panchayat).Error)

	wardA := &model.Ward{Name: "Ward A", WardNumber: "1", PanchayatID: panchayat.ID}
	require.NoError(t, db.Create(wardA).Error)
	wardB := &model.Ward{Name: "Ward B", WardNumber: "2", PanchayatID: panchayat.ID}
	require.NoError(t, db.Create(wardB).Error)

	return panchayat, wardA, wardB
}

func makeUser(t *testing.T, db *gorm.DB, name, role string, wardID *uint) *model.User {
	t.Helper()

	user := &model.User{
		Name:   name,
		Email:  fmt.Sprintf("%s@example.com", name),
		Role:   role,
		WardID: wardID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func makeVoter(t *testing.T, db *gorm.DB, serial string, ward *model.Ward) *model.Voter {
	t.Helper()

	voter := &model.Voter{
		SerialNumber: serial,
		WardID:       ward.ID,
		PanchayatID:  ward.PanchayatID,
		Panchayat:    "North Panchayat",
	}
	require.NoError(t, db.Create(voter).Error)
	return voter
}

func assignVoter(t *testing.T, db *gorm.DB, voter *model.Voter, worker, lead *model.User) {
	t.Helper()

	require.NoError(t, db.Create(&model.VoterWorkerAssignment{
		VoterID:    voter.ID,
		WorkerID:   worker.ID,
		AssignedBy: lead.ID,
	}).Error)
}
