package service

import (
	"errors"

	"github.com/nats-io/nats.go"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
)

// WardCloneService duplicates a ward's structural subtree (booths, voters)
// into a fresh ward, and reverts such clones. Operational state (assignments,
// status ledger, category membership) is never copied: every cloned voter
// starts with no assignment and a not_voted derived status.
type WardCloneService struct {
	db   *gorm.DB
	nats *nats.Conn
}

// NewWardCloneService creates a new ward clone service.
func NewWardCloneService(db *gorm.DB, natsConn *nats.Conn) *WardCloneService {
	return &WardCloneService{db: db, nats: natsConn}
}

// WardRef is a compact ward reference used in clone/revert results.
type WardRef struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	WardNumber string `json:"ward_number"`
}

// CloneResult reports what a clone produced.
type CloneResult struct {
	NewWard           *model.Ward `json:"new_ward"`
	SourceWardID      uint        `json:"source_ward_id"`
	SourceWardName    string      `json:"source_ward_name"`
	ClonedBoothsCount int         `json:"cloned_booths_count"`
	ClonedVotersCount int         `json:"cloned_voters_count"`
}

// RevertResult reports what a revert removed.
type RevertResult struct {
	RevertedWard  WardRef        `json:"reverted_ward"`
	SourceWard    *WardRef       `json:"source_ward"`
	DeletedCounts map[string]int `json:"deleted_counts"`
}

// Clone copies the source ward's booths and voters into a new ward inside a
// single transaction. Any failure rolls the whole clone back; no partial ward
// survives.
func (s *WardCloneService) Clone(req model.CloneWardRequest) (*CloneResult, error) {
	var source model.Ward
	if err := s.db.First(&source, req.WardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var booths []model.Booth
	if err := s.db.Where("ward_id = ?", source.ID).Find(&booths).Error; err != nil {
		return nil, err
	}
	var voters []model.Voter
	if err := s.db.Where("ward_id = ?", source.ID).Find(&voters).Error; err != nil {
		return nil, err
	}

	newWard := model.Ward{
		Name:             req.NewWardName,
		WardNumber:       req.NewWardNumber,
		PanchayatID:      source.PanchayatID,
		Description:      source.Description,
		ClonedFromWardID: &source.ID,
	}

	boothMapping := map[uint]uint{}
	votersCloned := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newWard).Error; err != nil {
			return err
		}

		for _, old := range booths {
			booth := model.Booth{
				Name:        old.Name,
				BoothNumber: old.BoothNumber,
				PanchayatID: old.PanchayatID,
				WardID:      newWard.ID,
			}
			if err := tx.Create(&booth).Error; err != nil {
				return err
			}
			boothMapping[old.ID] = booth.ID
		}

		for _, old := range voters {
			var boothID *uint
			if old.BoothID != nil {
				if mapped, ok := boothMapping[*old.BoothID]; ok {
					boothID = &mapped
				}
			}
			voter := model.Voter{
				SerialNumber: old.SerialNumber,
				WardID:       newWard.ID,
				PanchayatID:  old.PanchayatID,
				Panchayat:    old.Panchayat,
				BoothID:      boothID,
				ImagePath:    old.ImagePath,
			}
			if err := tx.Create(&voter).Error; err != nil {
				return err
			}
			votersCloned++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(s.nats, SubjectWardCloned, map[string]interface{}{
		"new_ward_id":    newWard.ID,
		"source_ward_id": source.ID,
		"booths":         len(boothMapping),
		"voters":         votersCloned,
	})

	s.db.Preload("Panchayat").Preload("ClonedFrom").First(&newWard, newWard.ID)

	return &CloneResult{
		NewWard:           &newWard,
		SourceWardID:      source.ID,
		SourceWardName:    source.Name,
		ClonedBoothsCount: len(boothMapping),
		ClonedVotersCount: votersCloned,
	}, nil
}

// Revert deletes a cloned ward with everything under it. Only wards carrying
// a cloned_from_ward_id back-reference can be reverted; the guard makes this
// a structural operation, not a generic delete.
func (s *WardCloneService) Revert(wardID uint) (*RevertResult, error) {
	var ward model.Ward
	if err := s.db.Preload("ClonedFrom").First(&ward, wardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !ward.IsClone() {
		return nil, ErrNotClone
	}

	var boothsCount, votersCount, usersCount int64
	s.db.Model(&model.Booth{}).Where("ward_id = ?", ward.ID).Count(&boothsCount)
	s.db.Model(&model.Voter{}).Where("ward_id = ?", ward.ID).Count(&votersCount)
	s.db.Model(&model.User{}).Where("ward_id = ?", ward.ID).Count(&usersCount)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		voterIDs := tx.Model(&model.Voter{}).Select("id").Where("ward_id = ?", ward.ID)
		if err := tx.Where("voter_id IN (?)", voterIDs).Delete(&model.VoterWorkerAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("voter_id IN (?)", voterIDs).Delete(&model.VoterStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Where("voter_id IN (?)", voterIDs).Delete(&model.VoterCategoryVoter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ward_id = ?", ward.ID).Delete(&model.Voter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ward_id = ?", ward.ID).Delete(&model.Booth{}).Error; err != nil {
			return err
		}
		// Users keep their account; only the ward affiliation goes.
		if err := tx.Model(&model.User{}).Where("ward_id = ?", ward.ID).
			Update("ward_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Ward{}, ward.ID).Error
	})
	if err != nil {
		return nil, err
	}

	result := &RevertResult{
		RevertedWard: WardRef{ID: ward.ID, Name: ward.Name, WardNumber: ward.WardNumber},
		DeletedCounts: map[string]int{
			"booths": int(boothsCount),
			"voters": int(votersCount),
			"users":  int(usersCount),
		},
	}
	if ward.ClonedFrom != nil {
		result.SourceWard = &WardRef{
			ID:         ward.ClonedFrom.ID,
			Name:       ward.ClonedFrom.Name,
			WardNumber: ward.ClonedFrom.WardNumber,
		}
	}
	return result, nil
}
