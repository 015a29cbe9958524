package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
)

// PanchayatHandler handles panchayat requests
type PanchayatHandler struct {
	db *gorm.DB
}

// NewPanchayatHandler creates a new panchayat handler
func NewPanchayatHandler(db *gorm.DB) *PanchayatHandler {
	return &PanchayatHandler{db: db}
}

// List returns all panchayats
// @Summary List panchayats
// @Tags Panchayats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /panchayats [get]
func (h *PanchayatHandler) List(c *gin.Context) {
	var panchayats []model.Panchayat
	if err := h.db.Order("name ASC").Find(&panchayats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": panchayats})
}

// Get returns a single panchayat with its wards
// @Summary Get panchayat
// @Tags Panchayats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Panchayat ID"
// @Success 200 {object} model.Panchayat
// @Failure 404 {object} map[string]string
// @Router /panchayats/{id} [get]
func (h *PanchayatHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var panchayat model.Panchayat
	if err := h.db.Preload("Wards").First(&panchayat, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
		return
	}
	c.JSON(http.StatusOK, panchayat)
}

// Wards returns the wards of a panchayat
// @Summary List wards of a panchayat
// @Tags Panchayats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Panchayat ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /panchayats/{id}/wards [get]
func (h *PanchayatHandler) Wards(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var panchayat model.Panchayat
	if err := h.db.First(&panchayat, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
		return
	}

	var wards []model.Ward
	if err := h.db.Where("panchayat_id = ?", panchayat.ID).Order("ward_number ASC").Find(&wards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wards})
}

// Create creates a panchayat
// @Summary Create panchayat
// @Tags Panchayats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param panchayat body model.CreatePanchayatRequest true "Panchayat data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /panchayats [post]
func (h *PanchayatHandler) Create(c *gin.Context) {
	var req model.CreatePanchayatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	panchayat := model.Panchayat{
		Name:        req.Name,
		Code:        req.Code,
		District:    req.District,
		Description: req.Description,
	}
	if err := h.db.Create(&panchayat).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Panchayat created successfully", "panchayat": panchayat})
}

// Update updates a panchayat
// @Summary Update panchayat
// @Tags Panchayats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Panchayat ID"
// @Param panchayat body model.UpdatePanchayatRequest true "Panchayat data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /panchayats/{id} [put]
func (h *PanchayatHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var panchayat model.Panchayat
	if err := h.db.First(&panchayat, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
		return
	}

	var req model.UpdatePanchayatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Code != nil {
		updates["code"] = *req.Code
	}
	if req.District != nil {
		updates["district"] = *req.District
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := h.db.Model(&panchayat).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Panchayat updated successfully", "panchayat": panchayat})
}

// Delete deletes a panchayat and everything under it
// @Summary Delete panchayat
// @Tags Panchayats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Panchayat ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /panchayats/{id} [delete]
func (h *PanchayatHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var panchayat model.Panchayat
	if err := h.db.First(&panchayat, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Delete(&panchayat).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panchayat deleted successfully"})
}
