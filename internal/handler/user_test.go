package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/service"
)

func setupUserRouter(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Panchayat{}, &model.Ward{}))

	h := NewUserHandler(db, service.NewAuthService(db, nil, "test-secret", time.Hour))
	router := gin.New()
	router.POST("/users", h.Create)
	router.PUT("/users/:id", h.Update)
	return db, router
}

func seedWard(t *testing.T, db *gorm.DB, number string) *model.Ward {
	t.Helper()

	panchayat := &model.Panchayat{Name: "North Panchayat", District: "North District"}
	require.NoError(t, db.FirstOrCreate(panchayat, model.Panchayat{Name: "North Panchayat"}).Error)

	ward := &model.Ward{Name: "Ward " + number, WardNumber: number, PanchayatID: panchayat.ID}
	require.NoError(t, db.Create(ward).Error)
	return ward
}

func seedWardUser(t *testing.T, db *gorm.DB, name, role string, wardID uint) *model.User {
	t.Helper()

	user := &model.User{
		Name:   name,
		Email:  fmt.Sprintf("%s@example.com", name),
		Role:   role,
		WardID: &wardID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateUser_OneTeamLeadPerWard(t *testing.T) {
	// Arrange: the ward already has a team lead
	db, router := setupUserRouter(t)
	ward := seedWard(t, db, "1")
	seedWardUser(t, db, "lead", model.RoleTeamLead, ward.ID)

	// Act
	w := doJSON(t, router, http.MethodPost, "/users", gin.H{
		"name":     "second lead",
		"email":    "lead2@example.com",
		"password": "password123",
		"role":     model.RoleTeamLead,
		"ward_id":  ward.ID,
	})

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ward already has a user with this role")

	// A booth agent for the same ward is a different slot
	w = doJSON(t, router, http.MethodPost, "/users", gin.H{
		"name":     "agent",
		"email":    "agent@example.com",
		"password": "password123",
		"role":     model.RoleBoothAgent,
		"ward_id":  ward.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// But the agent slot fills up the same way
	w = doJSON(t, router, http.MethodPost, "/users", gin.H{
		"name":     "second agent",
		"email":    "agent2@example.com",
		"password": "password123",
		"role":     model.RoleBoothAgent,
		"ward_id":  ward.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateUser_WorkersUnlimitedPerWard(t *testing.T) {
	// Arrange
	db, router := setupUserRouter(t)
	ward := seedWard(t, db, "1")
	seedWardUser(t, db, "worker1", model.RoleWorker, ward.ID)

	// Act
	w := doJSON(t, router, http.MethodPost, "/users", gin.H{
		"name":     "worker2",
		"email":    "worker2@example.com",
		"password": "password123",
		"role":     model.RoleWorker,
		"ward_id":  ward.ID,
	})

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestUpdateUser_IntoOccupiedWard(t *testing.T) {
	// Arrange: each ward has its own team lead
	db, router := setupUserRouter(t)
	wardA := seedWard(t, db, "1")
	wardB := seedWard(t, db, "2")
	seedWardUser(t, db, "leadA", model.RoleTeamLead, wardA.ID)
	leadB := seedWardUser(t, db, "leadB", model.RoleTeamLead, wardB.ID)

	// Act: move leadB into wardA
	w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/users/%d", leadB.ID), gin.H{
		"ward_id": wardA.ID,
	})

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ward already has a user with this role")

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, leadB.ID).Error)
	require.NotNil(t, reloaded.WardID)
	assert.Equal(t, wardB.ID, *reloaded.WardID)
}

func TestUpdateUser_OwnWardNotCountedAgainstSelf(t *testing.T) {
	// Arrange
	db, router := setupUserRouter(t)
	ward := seedWard(t, db, "1")
	lead := seedWardUser(t, db, "lead", model.RoleTeamLead, ward.ID)

	// Act: renaming while restating the same ward must not trip the check
	w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/users/%d", lead.ID), gin.H{
		"name":    "renamed lead",
		"ward_id": ward.ID,
	})

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, lead.ID).Error)
	assert.Equal(t, "renamed lead", reloaded.Name)
}
