package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
)

// BoothHandler handles booth requests
type BoothHandler struct {
	db *gorm.DB
}

// NewBoothHandler creates a new booth handler
func NewBoothHandler(db *gorm.DB) *BoothHandler {
	return &BoothHandler{db: db}
}

// List returns all booths
// @Summary List booths
// @Tags Booths
// @Produce json
// @Security BearerAuth
// @Param ward_id query int false "Filter by ward"
// @Param panchayat_id query int false "Filter by panchayat"
// @Success 200 {object} map[string]interface{}
// @Router /booths [get]
func (h *BoothHandler) List(c *gin.Context) {
	q := h.db.Preload("Ward").Preload("Panchayat").Order("booth_number ASC")
	if wid, err := strconv.ParseUint(c.Query("ward_id"), 10, 32); err == nil && wid > 0 {
		q = q.Where("ward_id = ?", uint(wid))
	}
	if pid, err := strconv.ParseUint(c.Query("panchayat_id"), 10, 32); err == nil && pid > 0 {
		q = q.Where("panchayat_id = ?", uint(pid))
	}

	var booths []model.Booth
	if err := q.Find(&booths).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": booths})
}

// Get returns a single booth
// @Summary Get booth
// @Tags Booths
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booth ID"
// @Success 200 {object} model.Booth
// @Failure 404 {object} map[string]string
// @Router /booths/{id} [get]
func (h *BoothHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var booth model.Booth
	if err := h.db.Preload("Ward").Preload("Panchayat").First(&booth, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "booth not found"})
		return
	}
	c.JSON(http.StatusOK, booth)
}

// Create creates a booth
// @Summary Create booth
// @Tags Booths
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param booth body model.CreateBoothRequest true "Booth data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /booths [post]
func (h *BoothHandler) Create(c *gin.Context) {
	var req model.CreateBoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ward model.Ward
	if err := h.db.First(&ward, req.WardID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ward not found"})
		return
	}
	var panchayat model.Panchayat
	if err := h.db.First(&panchayat, req.PanchayatID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
		return
	}

	booth := model.Booth{
		Name:        req.Name,
		BoothNumber: req.BoothNumber,
		PanchayatID: req.PanchayatID,
		WardID:      req.WardID,
	}
	if err := h.db.Create(&booth).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.db.Preload("Ward").Preload("Panchayat").First(&booth, booth.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Booth created successfully", "booth": booth})
}

// Update updates a booth
// @Summary Update booth
// @Tags Booths
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booth ID"
// @Param booth body model.UpdateBoothRequest true "Booth data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /booths/{id} [put]
func (h *BoothHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var booth model.Booth
	if err := h.db.First(&booth, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "booth not found"})
		return
	}

	var req model.UpdateBoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.BoothNumber != "" {
		updates["booth_number"] = req.BoothNumber
	}
	if req.WardID != 0 {
		var ward model.Ward
		if err := h.db.First(&ward, req.WardID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "ward not found"})
			return
		}
		updates["ward_id"] = req.WardID
	}
	if req.PanchayatID != 0 {
		var panchayat model.Panchayat
		if err := h.db.First(&panchayat, req.PanchayatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "panchayat not found"})
			return
		}
		updates["panchayat_id"] = req.PanchayatID
	}

	if len(updates) > 0 {
		if err := h.db.Model(&booth).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	h.db.Preload("Ward").Preload("Panchayat").First(&booth, booth.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Booth updated successfully", "booth": booth})
}

// Delete deletes a booth
// @Summary Delete booth
// @Tags Booths
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booth ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /booths/{id} [delete]
func (h *BoothHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var booth model.Booth
	if err := h.db.First(&booth, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "booth not found"})
		return
	}

	if err := h.db.Delete(&booth).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booth deleted successfully"})
}
