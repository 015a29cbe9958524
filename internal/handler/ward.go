package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/service"
)

// WardHandler handles ward requests, including cloning and revert
type WardHandler struct {
	db           *gorm.DB
	cloneService *service.WardCloneService
}

// NewWardHandler creates a new ward handler
func NewWardHandler(db *gorm.DB, cloneService *service.WardCloneService) *WardHandler {
	return &WardHandler{db: db, cloneService: cloneService}
}

// List returns all wards
// @Summary List wards
// @Tags Wards
// @Produce json
// @Security BearerAuth
// @Param panchayat_id query int false "Filter by panchayat"
// @Success 200 {object} map[string]interface{}
// @Router /wards [get]
func (h *WardHandler) List(c *gin.Context) {
	q := h.db.Preload("Panchayat").Order("ward_number ASC")
	if pid, err := strconv.ParseUint(c.Query("panchayat_id"), 10, 32); err == nil && pid > 0 {
		q = q.Where("panchayat_id = ?", uint(pid))
	}

	var wards []model.Ward
	if err := q.Find(&wards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wards})
}

// Get returns a single ward with its booths
// @Summary Get ward
// @Tags Wards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ward ID"
// @Success 200 {object} model.Ward
// @Failure 404 {object} map[string]string
// @Router /wards/{id} [get]
func (h *WardHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var ward model.Ward
	if err := h.db.Preload("Panchayat").Preload("Booths").Preload("ClonedFrom").First(&ward, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ward not found"})
		return
	}
	c.JSON(http.StatusOK, ward)
}

// Create creates a ward
// @Summary Create ward
// @Tags Wards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ward body model.CreateWardRequest true "Ward data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /wards [post]
func (h *WardHandler) Create(c *gin.Context) {
	var req model.CreateWardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var panchayat model.Panchayat
	if err := h.db.First(&panchayat, req.PanchayatID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
		return
	}

	ward := model.Ward{
		Name:        req.Name,
		WardNumber:  req.WardNumber,
		PanchayatID: req.PanchayatID,
		Description: req.Description,
	}
	if err := h.db.Create(&ward).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.db.Preload("Panchayat").First(&ward, ward.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Ward created successfully", "ward": ward})
}

// Update updates a ward
// @Summary Update ward
// @Tags Wards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ward ID"
// @Param ward body model.UpdateWardRequest true "Ward data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /wards/{id} [put]
func (h *WardHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var ward model.Ward
	if err := h.db.First(&ward, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ward not found"})
		return
	}

	var req model.UpdateWardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.WardNumber != "" {
		updates["ward_number"] = req.WardNumber
	}
	if req.PanchayatID != 0 {
		var panchayat model.Panchayat
		if err := h.db.First(&panchayat, req.PanchayatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
			return
		}
		updates["panchayat_id"] = req.PanchayatID
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := h.db.Model(&ward).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	h.db.Preload("Panchayat").First(&ward, ward.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Ward updated successfully", "ward": ward})
}

// Delete deletes a ward
// @Summary Delete ward
// @Tags Wards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ward ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /wards/{id} [delete]
func (h *WardHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var ward model.Ward
	if err := h.db.First(&ward, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ward not found"})
		return
	}

	if err := h.db.Delete(&ward).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ward deleted successfully"})
}

// Clone duplicates a ward's booths and voters into a new ward
// @Summary Clone ward
// @Description Copy a ward's structure into a new ward. Assignments, statuses and categories are not copied.
// @Tags Wards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clone body model.CloneWardRequest true "Clone request"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /wards/clone [post]
func (h *WardHandler) Clone(c *gin.Context) {
	var req model.CloneWardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.cloneService.Clone(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":             "Ward cloned successfully",
		"new_ward":            result.NewWard,
		"source_ward_id":      result.SourceWardID,
		"source_ward_name":    result.SourceWardName,
		"cloned_booths_count": result.ClonedBoothsCount,
		"cloned_voters_count": result.ClonedVotersCount,
	})
}

// Revert deletes a cloned ward and everything under it
// @Summary Revert cloned ward
// @Description Delete a ward produced by cloning. Fails with 422 for wards that are not clones.
// @Tags Wards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ward ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /wards/{id}/revert [delete]
func (h *WardHandler) Revert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, err := h.cloneService.Revert(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Ward reverted successfully",
		"reverted_ward":  result.RevertedWard,
		"source_ward":    result.SourceWard,
		"deleted_counts": result.DeletedCounts,
	})
}
