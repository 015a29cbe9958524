package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
)

const importSheetName = "Voters"

// ImportRowError describes one spreadsheet row that could not be imported.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult is the itemized outcome of an Excel import. Duplicates and
// bad rows are reported, never aborting the rest of the sheet.
type ImportResult struct {
	CreatedCount           int              `json:"created_count"`
	DuplicateSerialNumbers []string         `json:"duplicate_serial_numbers"`
	Errors                 []ImportRowError `json:"errors"`
}

// VoterImportService imports voters from an uploaded spreadsheet. Imports are
// synchronous and bounded: the handler gets the itemized result back in the
// same request.
type VoterImportService struct {
	db *gorm.DB
}

// NewVoterImportService creates a new voter import service.
func NewVoterImportService(db *gorm.DB) *VoterImportService {
	return &VoterImportService{db: db}
}

// GenerateTemplate builds the import template workbook.
func (s *VoterImportService) GenerateTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", importSheetName)
	f.SetCellValue(importSheetName, "A1", "serial_number*")
	f.SetCellValue(importSheetName, "B1", "booth_number")
	f.SetCellValue(importSheetName, "A2", "WD-00123")
	f.SetCellValue(importSheetName, "B2", "12")
	f.SetColWidth(importSheetName, "A", "B", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Import reads the workbook and creates one voter per data row in the target
// ward. Rows whose serial number already exists are skipped and reported.
func (s *VoterImportService) Import(ctx context.Context, actor *model.User, wardID, panchayatID uint, r io.Reader) (*ImportResult, error) {
	var ward model.Ward
	if err := s.db.First(&ward, wardID).Error; err != nil {
		return nil, ErrNotFound
	}
	var panchayat model.Panchayat
	if err := s.db.First(&panchayat, panchayatID).Error; err != nil {
		return nil, ErrNotFound
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read workbook: %w", err)
	}
	defer f.Close()

	sheet := importSheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	// Booth numbers resolve within the target ward only.
	var booths []model.Booth
	if err := s.db.Where("ward_id = ?", wardID).Find(&booths).Error; err != nil {
		return nil, err
	}
	boothByNumber := make(map[string]uint, len(booths))
	for _, b := range booths {
		boothByNumber[b.BoothNumber] = b.ID
	}

	result := &ImportResult{
		DuplicateSerialNumbers: []string{},
		Errors:                 []ImportRowError{},
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rowNum := i + 1

		serial := ""
		if len(row) > 0 {
			serial = strings.TrimSpace(row[0])
		}
		if serial == "" {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Reason: "serial_number is required"})
			continue
		}

		var count int64
		s.db.Model(&model.Voter{}).Where("serial_number = ?", serial).Count(&count)
		if count > 0 {
			result.DuplicateSerialNumbers = append(result.DuplicateSerialNumbers, serial)
			continue
		}

		var boothID *uint
		if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
			id, ok := boothByNumber[strings.TrimSpace(row[1])]
			if !ok {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Reason: "unknown booth_number"})
				continue
			}
			boothID = &id
		}

		voter := model.Voter{
			SerialNumber: serial,
			WardID:       wardID,
			PanchayatID:  panchayatID,
			Panchayat:    panchayat.Name,
			BoothID:      boothID,
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&voter).Error; err != nil {
				return err
			}
			return tx.Create(&model.VoterStatus{
				VoterID: voter.ID,
				UserID:  actor.ID,
				Status:  model.StatusNotVoted,
			}).Error
		})
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		result.CreatedCount++
	}

	return result, nil
}
