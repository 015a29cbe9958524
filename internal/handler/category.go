package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

// CategoryHandler handles the private voter category taxonomy. Categories are
// visible only to their creator; superadmins may list all of them.
type CategoryHandler struct {
	db *gorm.DB
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

// findOwned loads the category and checks ownership. Non-owners get a 404, not
// a 403: the existence of another user's category is itself private.
func (h *CategoryHandler) findOwned(c *gin.Context) *model.VoterCategory {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil
	}

	var category model.VoterCategory
	if err := h.db.First(&category, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return nil
	}

	if !policy.CanViewCategory(currentUser(c), &category) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return nil
	}
	return &category
}

// List returns the caller's categories; superadmins get everyone's
// @Summary List voter categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /voter-categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	user := currentUser(c)

	q := h.db.Model(&model.VoterCategory{}).Order("name ASC")
	if !user.IsSuperadmin() {
		q = q.Where("user_id = ?", user.ID)
	} else {
		q = q.Preload("User")
	}

	var categories []model.VoterCategory
	if err := q.Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

// Get returns one category with its voters
// @Summary Get voter category
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} model.VoterCategory
// @Failure 404 {object} map[string]string
// @Router /voter-categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	category := h.findOwned(c)
	if category == nil {
		return
	}

	if err := h.db.Preload("Voters").First(category, category.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, category)
}

// Create creates a category owned by the caller
// @Summary Create voter category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body model.CreateCategoryRequest true "Category data"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /voter-categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req model.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	h.db.Model(&model.VoterCategory{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "category name already exists"})
		return
	}

	category := model.VoterCategory{
		Name:        req.Name,
		Description: req.Description,
		UserID:      currentUser(c).ID,
	}
	if err := h.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "category": category})
}

// Update updates a category the caller owns
// @Summary Update voter category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param category body model.UpdateCategoryRequest true "Category data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /voter-categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	category := h.findOwned(c)
	if category == nil {
		return
	}
	if !policy.CanModifyCategory(currentUser(c), category) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	var req model.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" && req.Name != category.Name {
		var count int64
		h.db.Model(&model.VoterCategory{}).
			Where("name = ? AND id != ?", req.Name, category.ID).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "category name already exists"})
			return
		}
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := h.db.Model(category).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
}

// Delete deletes a category the caller owns
// @Summary Delete voter category
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /voter-categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	category := h.findOwned(c)
	if category == nil {
		return
	}
	if !policy.CanModifyCategory(currentUser(c), category) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("voter_category_id = ?", category.ID).Delete(&model.VoterCategoryVoter{}).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// AddVoters adds voters to a category the caller owns
// @Summary Add voters to category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param voters body model.CategoryVotersRequest true "Voter IDs"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /voter-categories/{id}/voters [post]
func (h *CategoryHandler) AddVoters(c *gin.Context) {
	category := h.findOwned(c)
	if category == nil {
		return
	}
	if !policy.CanModifyCategory(currentUser(c), category) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	var req model.CategoryVotersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	added := 0
	for _, voterID := range req.VoterIDs {
		var count int64
		h.db.Model(&model.Voter{}).Where("id = ?", voterID).Count(&count)
		if count == 0 {
			continue
		}

		h.db.Model(&model.VoterCategoryVoter{}).
			Where("voter_category_id = ? AND voter_id = ?", category.ID, voterID).
			Count(&count)
		if count > 0 {
			continue
		}

		row := model.VoterCategoryVoter{
			VoterCategoryID: category.ID,
			VoterID:         voterID,
			UserID:          user.ID,
		}
		if err := h.db.Create(&row).Error; err == nil {
			added++
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Voters added to category", "added_count": added})
}

// RemoveVoters removes voters from a category the caller owns
// @Summary Remove voters from category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param voters body model.CategoryVotersRequest true "Voter IDs"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /voter-categories/{id}/voters [delete]
func (h *CategoryHandler) RemoveVoters(c *gin.Context) {
	category := h.findOwned(c)
	if category == nil {
		return
	}
	if !policy.CanModifyCategory(currentUser(c), category) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	var req model.CategoryVotersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.db.Where("voter_category_id = ? AND voter_id IN ?", category.ID, req.VoterIDs).
		Delete(&model.VoterCategoryVoter{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Voters removed from category", "removed_count": res.RowsAffected})
}
