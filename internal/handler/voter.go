package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
	"rollcall/api/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// VoterHandler handles voter directory requests
type VoterHandler struct {
	voterService      *service.VoterService
	statusService     *service.StatusService
	assignmentService *service.AssignmentService
	importService     *service.VoterImportService
	exportService     *service.ExportService
}

// NewVoterHandler creates a new voter handler
func NewVoterHandler(
	voterService *service.VoterService,
	statusService *service.StatusService,
	assignmentService *service.AssignmentService,
	importService *service.VoterImportService,
	exportService *service.ExportService,
) *VoterHandler {
	return &VoterHandler{
		voterService:      voterService,
		statusService:     statusService,
		assignmentService: assignmentService,
		importService:     importService,
		exportService:     exportService,
	}
}

// imageUpload builds an ImageUpload from the optional multipart "image" part.
// Returns a nil upload when no file was sent; the returned closer is always
// safe to call.
func imageUpload(c *gin.Context) (*service.ImageUpload, func(), error) {
	noop := func() {}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, noop, nil
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, noop, err
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &service.ImageUpload{
		Reader:      f,
		Size:        fileHeader.Size,
		ContentType: contentType,
		Ext:         ext,
	}, func() { f.Close() }, nil
}

// List returns the scoped, filtered voter page
// @Summary List voters
// @Description Paginated voters within the requester's visibility scope
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param serial_number query string false "Serial number substring"
// @Param ward_id query int false "Filter by ward"
// @Param panchayat query string false "Panchayat name substring"
// @Param panchayat_id query int false "Filter by panchayat"
// @Param status query string false "Derived status filter"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(15)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Router /voters [get]
func (h *VoterHandler) List(c *gin.Context) {
	var query model.VoterListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voters, total, err := h.voterService.List(c.Request.Context(), currentUser(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(voters, total, query.Page, query.PerPage))
}

// FindBySerial returns the voter with the exact serial number
// @Summary Find voter by serial number
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param serial_number query string true "Exact serial number"
// @Success 200 {object} model.Voter
// @Failure 404 {object} map[string]string
// @Router /voters/find-by-serial [get]
func (h *VoterHandler) FindBySerial(c *gin.Context) {
	serial := c.Query("serial_number")
	if serial == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serial_number is required"})
		return
	}

	voter, err := h.voterService.FindBySerial(c.Request.Context(), currentUser(c), serial)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, voter)
}

// Unassigned returns scoped voters that have no assignment
// @Summary List unassigned voters
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(15)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Router /voters/unassigned [get]
func (h *VoterHandler) Unassigned(c *gin.Context) {
	var query model.VoterListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voters, total, err := h.voterService.Unassigned(c.Request.Context(), currentUser(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(voters, total, query.Page, query.PerPage))
}

// WorkerAssigned returns scoped voters that have an assignment
// @Summary List assigned voters
// @Description Assigned voters in scope, optionally for one worker. 404 when none match.
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param worker_id query int false "Filter by assigned worker"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(15)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /voters/worker-assigned [get]
func (h *VoterHandler) WorkerAssigned(c *gin.Context) {
	var query model.VoterListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voters, total, err := h.voterService.Assigned(c.Request.Context(), currentUser(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if total == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no assigned voters found"})
		return
	}
	c.JSON(http.StatusOK, paginated(voters, total, query.Page, query.PerPage))
}

// Export downloads the scoped voter roll as a workbook
// @Summary Export voters
// @Tags Voters
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 403 {object} map[string]string
// @Router /voters/export [get]
func (h *VoterHandler) Export(c *gin.Context) {
	var query model.VoterListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buf, err := h.exportService.Export(c.Request.Context(), currentUser(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="voter_roll.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Get returns a single voter
// @Summary Get voter
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Success 200 {object} model.Voter
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /voters/{id} [get]
func (h *VoterHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	voter, err := h.voterService.Get(c.Request.Context(), currentUser(c), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, voter)
}

// Create creates a voter, optionally with a multipart photograph
// @Summary Create voter
// @Tags Voters
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param serial_number formData string true "Serial number"
// @Param ward_id formData int true "Ward ID"
// @Param panchayat_id formData int true "Panchayat ID"
// @Param booth_id formData int false "Booth ID"
// @Param image formData file false "Photograph"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /voters [post]
func (h *VoterHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if !policy.CanCreateVoter(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req model.CreateVoterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return
	}
	defer closeUpload()

	voter, err := h.voterService.Create(c.Request.Context(), user, req, upload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Voter created successfully", "voter": voter})
}

// BulkStore creates many voters in one ward
// @Summary Bulk create voters
// @Description Duplicate serial numbers are skipped and reported.
// @Tags Voters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param voters body model.BulkStoreVoterRequest true "Voters"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /voters/bulk-store [post]
func (h *VoterHandler) BulkStore(c *gin.Context) {
	var req model.BulkStoreVoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, duplicates, err := h.voterService.BulkStore(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":                  "Voters created successfully",
		"created_count":            len(created),
		"voters":                   created,
		"duplicate_serial_numbers": duplicates,
	})
}

// ImportTemplate downloads the import template workbook
// @Summary Download voter import template
// @Tags Voters
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /voters/import-template [get]
func (h *VoterHandler) ImportTemplate(c *gin.Context) {
	buf, err := h.importService.GenerateTemplate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="voter_import_template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Import creates voters from an uploaded workbook
// @Summary Import voters from Excel
// @Tags Voters
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param ward_id formData int true "Target ward"
// @Param panchayat_id formData int true "Target panchayat"
// @Param file formData file true "Workbook"
// @Success 200 {object} service.ImportResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /voters/import [post]
func (h *VoterHandler) Import(c *gin.Context) {
	wardID, err := strconv.ParseUint(c.PostForm("ward_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ward_id is required"})
		return
	}
	panchayatID, err := strconv.ParseUint(c.PostForm("panchayat_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "panchayat_id is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	result, err := h.importService.Import(c.Request.Context(), currentUser(c), uint(wardID), uint(panchayatID), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Import completed", "result": result})
}

// Update updates a voter, optionally replacing its photograph
// @Summary Update voter
// @Tags Voters
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /voters/{id} [put]
func (h *VoterHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if !policy.CanUpdateVoter(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req model.UpdateVoterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return
	}
	defer closeUpload()

	voter, err := h.voterService.Update(c.Request.Context(), uint(id), req, upload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voter updated successfully", "voter": voter})
}

// Delete removes a voter
// @Summary Delete voter
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /voters/{id} [delete]
func (h *VoterHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if !policy.CanDeleteVoter(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.voterService.Delete(c.Request.Context(), uint(id)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voter deleted successfully"})
}

// UpdateStatus appends a status ledger row for the voter
// @Summary Record voter status
// @Description Appends to the status ledger. Workers may record only visited/not_visited on voters assigned to them.
// @Tags Voters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Param status body model.UpdateStatusRequest true "Status"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /voters/{id}/status [patch]
func (h *VoterHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voter, err := h.statusService.Record(currentUser(c), uint(id), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully", "voter": voter})
}

// StatusHistory returns the voter's full status ledger
// @Summary Voter status history
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /voters/{id}/status-history [get]
func (h *VoterHandler) StatusHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	history, err := h.statusService.History(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

// UpdateRemark sets the remark on the caller's assignment for the voter
// @Summary Update assignment remark
// @Description Only the worker holding the assignment may set its remark.
// @Tags Voters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Param remark body model.UpdateRemarkRequest true "Remark"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /voters/{id}/remark [patch]
func (h *VoterHandler) UpdateRemark(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req model.UpdateRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voter, err := h.assignmentService.SetRemark(currentUser(c), uint(id), req.Remark)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Remark updated successfully", "voter": voter})
}

// Assign assigns the voter to a worker
// @Summary Assign voter to worker
// @Tags Voters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Param assignment body model.AssignWorkerRequest true "Worker"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /voters/{id}/assign [post]
func (h *VoterHandler) Assign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req model.AssignWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voter, err := h.assignmentService.Assign(currentUser(c), uint(id), req.WorkerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voter assigned successfully", "voter": voter})
}

// Unassign removes the voter's assignment
// @Summary Unassign voter
// @Tags Voters
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voter ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /voters/{id}/assign [delete]
func (h *VoterHandler) Unassign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.assignmentService.Unassign(currentUser(c), uint(id)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voter unassigned successfully"})
}

// BulkAssign assigns many voters to one worker
// @Summary Bulk assign voters
// @Description Items fail independently. Responds 207 when some items failed.
// @Tags Voters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body model.BulkAssignRequest true "Assignment"
// @Success 200 {object} model.BulkAssignResult
// @Success 207 {object} model.BulkAssignResult
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /voters/bulk-assign [post]
func (h *VoterHandler) BulkAssign(c *gin.Context) {
	var req model.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.assignmentService.BulkAssign(currentUser(c), req.VoterIDs, req.WorkerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.FailedCount > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"message": "Bulk assignment completed", "result": result})
}
