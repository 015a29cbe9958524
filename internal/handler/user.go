package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/service"
)

// UserHandler handles user administration requests
type UserHandler struct {
	db          *gorm.DB
	authService *service.AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB, authService *service.AuthService) *UserHandler {
	return &UserHandler{db: db, authService: authService}
}

// wardRoleTaken reports whether the ward already has a user with this role,
// excluding excludeID. At most one team lead and one booth agent per ward.
func (h *UserHandler) wardRoleTaken(role string, wardID uint, excludeID uint) bool {
	if role != model.RoleTeamLead && role != model.RoleBoothAgent {
		return false
	}
	var count int64
	h.db.Model(&model.User{}).
		Where("role = ? AND ward_id = ? AND id != ?", role, wardID, excludeID).
		Count(&count)
	return count > 0
}

// List returns users, optionally filtered by role and ward
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Param ward_id query int false "Filter by ward"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(15)
// @Success 200 {object} map[string]interface{}
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}

	q := h.db.Model(&model.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if wid, err := strconv.ParseUint(c.Query("ward_id"), 10, 32); err == nil && wid > 0 {
		q = q.Where("ward_id = ?", uint(wid))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var users []model.User
	err := q.Preload("Ward").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, paginated(users, total, page, perPage))
}

// Get returns a single user
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var user model.User
	if err := h.db.Preload("Ward").First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create creates a user
// @Summary Create user
// @Description Ward roles require a ward; at most one team lead and one booth agent per ward.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body model.CreateUserRequest true "User data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !model.ValidRole(req.Role) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid role"})
		return
	}
	if req.Role != model.RoleSuperadmin && req.WardID == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ward_id is required for this role"})
		return
	}
	if req.WardID != nil {
		var ward model.Ward
		if err := h.db.First(&ward, *req.WardID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "ward not found"})
			return
		}
		if h.wardRoleTaken(req.Role, *req.WardID, 0) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ward already has a user with this role"})
			return
		}
	}

	var count int64
	h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		return
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
		WardID:   req.WardID,
		BoothID:  req.BoothID,
	}
	if err := h.authService.CreateUser(c.Request.Context(), &user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.db.Preload("Ward").First(&user, user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": user})
}

// Update updates a user
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body model.UpdateUserRequest true "User data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var user model.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := user.Role
	if req.Role != "" {
		if !model.ValidRole(req.Role) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid role"})
			return
		}
		role = req.Role
	}
	wardID := user.WardID
	if req.WardID != nil {
		wardID = req.WardID
	}
	if role != model.RoleSuperadmin && wardID == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ward_id is required for this role"})
		return
	}
	if wardID != nil && h.wardRoleTaken(role, *wardID, user.ID) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ward already has a user with this role"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		var count int64
		h.db.Model(&model.User{}).Where("email = ? AND id != ?", req.Email, user.ID).Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		updates["email"] = req.Email
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		updates["password"] = string(hashed)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if req.WardID != nil {
		updates["ward_id"] = *req.WardID
	}
	if req.BoothID != nil {
		updates["booth_id"] = *req.BoothID
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	h.db.Preload("Ward").First(&user, user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
}

// Delete soft-deletes a user
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	actor := currentUser(c)
	if actor != nil && actor.ID == uint(id) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cannot delete your own account"})
		return
	}

	var user model.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
