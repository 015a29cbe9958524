package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

// ExportService writes the requester-scoped voter roll to a workbook. The
// same visibility scope as the list endpoint applies: an export can never
// contain a row its requester could not list.
type ExportService struct {
	db *gorm.DB
}

// NewExportService creates a new export service.
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// Export builds an .xlsx of the scoped, filtered voter roll.
func (s *ExportService) Export(ctx context.Context, user *model.User, query model.VoterListQuery) (*bytes.Buffer, error) {
	q, err := policy.ScopeVoters(s.db.Model(&model.Voter{}), user)
	if err != nil {
		return nil, err
	}
	q = applyVoterFilters(q, query)

	var voters []model.Voter
	err = q.Preload("Ward").
		Preload("Booth").
		Preload("Assignment.Worker").
		Order("voters.serial_number ASC").
		Find(&voters).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(voters))
	for i := range voters {
		ids[i] = voters[i].ID
	}
	statuses, err := currentStatuses(s.db, ids)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Voter Roll"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Serial Number", "Ward", "Panchayat", "Booth", "Status", "Assigned Worker", "Remark"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, voter := range voters {
		row := i + 2

		status := model.StatusNotVoted
		if current, ok := statuses[voter.ID]; ok {
			status = current.Status
		}

		wardName := ""
		if voter.Ward != nil {
			wardName = voter.Ward.Name
		}
		boothName := ""
		if voter.Booth != nil {
			boothName = voter.Booth.Name
		}
		workerName := ""
		remark := ""
		if voter.Assignment != nil {
			remark = voter.Assignment.Remark
			if voter.Assignment.Worker != nil {
				workerName = voter.Assignment.Worker.Name
			}
		}

		values := []interface{}{voter.SerialNumber, wardName, voter.Panchayat, boothName, status, workerName, remark}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "G", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &buf, nil
}
