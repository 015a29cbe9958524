package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

// ImageStorage is the file-storage collaborator for voter photographs. The
// directory never reads stored bytes back; it only forwards them.
type ImageStorage interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// ImageUpload carries an incoming photograph from the handler.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Ext         string // including the dot, e.g. ".jpg"
}

// VoterService is the aggregate voter directory: scoped listing, lookup,
// creation, mutation, and the assignment-presence views.
type VoterService struct {
	db     *gorm.DB
	images ImageStorage
}

// NewVoterService creates a new voter service.
func NewVoterService(db *gorm.DB, images ImageStorage) *VoterService {
	return &VoterService{db: db, images: images}
}

// List returns the page of voters the requester may see, after applying the
// caller filters on top of the visibility scope.
func (s *VoterService) List(ctx context.Context, user *model.User, query model.VoterListQuery) ([]model.Voter, int64, error) {
	q, err := policy.ScopeVoters(s.db.Model(&model.Voter{}), user)
	if err != nil {
		return nil, 0, err
	}
	q = applyVoterFilters(q, query)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var voters []model.Voter
	err = q.Preload("Ward").
		Preload("Assignment.Worker").
		Order("voters.created_at DESC, voters.id DESC").
		Offset(pageOffset(query.Page, query.PerPage)).
		Limit(query.PerPage).
		Find(&voters).Error
	if err != nil {
		return nil, 0, err
	}

	if err := s.decorate(voters); err != nil {
		return nil, 0, err
	}
	return voters, total, nil
}

// FindBySerial returns the voter with this exact serial number if it falls
// inside the requester's visibility scope.
func (s *VoterService) FindBySerial(ctx context.Context, user *model.User, serial string) (*model.Voter, error) {
	q, err := policy.ScopeVoters(s.db.Model(&model.Voter{}), user)
	if err != nil {
		return nil, err
	}

	var voter model.Voter
	err = q.Preload("Ward").
		Preload("Assignment.Worker").
		Preload("Assignment.TeamLead").
		Where("voters.serial_number = ?", serial).
		First(&voter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.decorateOne(&voter); err != nil {
		return nil, err
	}
	return &voter, nil
}

// Get returns a single voter by id, authorization included.
func (s *VoterService) Get(ctx context.Context, user *model.User, id uint) (*model.Voter, error) {
	var voter model.Voter
	err := s.db.Preload("Ward").
		Preload("Assignment.Worker").
		Preload("Assignment.TeamLead").
		First(&voter, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !policy.CanViewVoter(s.db, user, &voter) {
		return nil, policy.ErrForbidden
	}

	if err := s.decorateOne(&voter); err != nil {
		return nil, err
	}
	return &voter, nil
}

// Create creates a voter, stores its photograph if one was sent, and writes
// the initial not_voted ledger row attributed to the actor.
func (s *VoterService) Create(ctx context.Context, actor *model.User, req model.CreateVoterRequest, image *ImageUpload) (*model.Voter, error) {
	var count int64
	s.db.Model(&model.Voter{}).Where("serial_number = ?", req.SerialNumber).Count(&count)
	if count > 0 {
		return nil, ErrConflict
	}

	var ward model.Ward
	if err := s.db.First(&ward, req.WardID).Error; err != nil {
		return nil, ErrNotFound
	}
	var panchayat model.Panchayat
	if err := s.db.First(&panchayat, req.PanchayatID).Error; err != nil {
		return nil, ErrNotFound
	}

	var imagePath *string
	if image != nil {
		path := voterImagePath(image.Ext)
		if err := s.images.Put(ctx, path, image.Reader, image.Size, image.ContentType); err != nil {
			return nil, err
		}
		imagePath = &path
	}

	voter := model.Voter{
		SerialNumber: req.SerialNumber,
		WardID:       req.WardID,
		PanchayatID:  req.PanchayatID,
		Panchayat:    panchayat.Name,
		BoothID:      req.BoothID,
		ImagePath:    imagePath,
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
		if imagePath != nil {
			s.images.Delete(ctx, *imagePath)
		}
		return nil, err
	}

	s.db.Preload("Ward").First(&voter, voter.ID)
	if err := s.decorateOne(&voter); err != nil {
		return nil, err
	}
	return &voter, nil
}

// BulkStore creates many voters in one ward. Voters whose serial number
// already exists are skipped and reported, not treated as a batch failure.
func (s *VoterService) BulkStore(ctx context.Context, actor *model.User, req model.BulkStoreVoterRequest) ([]model.Voter, []string, error) {
	var ward model.Ward
	if err := s.db.First(&ward, req.WardID).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	var panchayat model.Panchayat
	if err := s.db.First(&panchayat, req.PanchayatID).Error; err != nil {
		return nil, nil, ErrNotFound
	}

	created := []model.Voter{}
	duplicates := []string{}

	for _, item := range req.Voters {
		var count int64
		s.db.Model(&model.Voter{}).Where("serial_number = ?", item.SerialNumber).Count(&count)
		if count > 0 {
			duplicates = append(duplicates, item.SerialNumber)
			continue
		}

		voter := model.Voter{
			SerialNumber: item.SerialNumber,
			WardID:       req.WardID,
			PanchayatID:  req.PanchayatID,
			Panchayat:    panchayat.Name,
			BoothID:      item.BoothID,
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
			duplicates = append(duplicates, item.SerialNumber)
			continue
		}

		s.db.Preload("Ward").First(&voter, voter.ID)
		created = append(created, voter)
	}

	if err := s.decorate(created); err != nil {
		return nil, nil, err
	}
	return created, duplicates, nil
}

// Update updates a voter. A replacement photograph deletes the previous
// object after the new one is stored.
func (s *VoterService) Update(ctx context.Context, id uint, req model.UpdateVoterRequest, image *ImageUpload) (*model.Voter, error) {
	var voter model.Voter
	if err := s.db.First(&voter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}

	if req.SerialNumber != "" && req.SerialNumber != voter.SerialNumber {
		var count int64
		s.db.Model(&model.Voter{}).
			Where("serial_number = ? AND id != ?", req.SerialNumber, voter.ID).
			Count(&count)
		if count > 0 {
			return nil, ErrConflict
		}
		updates["serial_number"] = req.SerialNumber
	}
	if req.WardID != 0 {
		var ward model.Ward
		if err := s.db.First(&ward, req.WardID).Error; err != nil {
			return nil, ErrNotFound
		}
		updates["ward_id"] = req.WardID
	}
	if req.PanchayatID != 0 {
		var panchayat model.Panchayat
		if err := s.db.First(&panchayat, req.PanchayatID).Error; err != nil {
			return nil, ErrNotFound
		}
		updates["panchayat_id"] = req.PanchayatID
		updates["panchayat"] = panchayat.Name
	}
	if req.BoothID != nil {
		updates["booth_id"] = *req.BoothID
	}

	var oldImage *string
	if image != nil {
		path := voterImagePath(image.Ext)
		if err := s.images.Put(ctx, path, image.Reader, image.Size, image.ContentType); err != nil {
			return nil, err
		}
		updates["image_path"] = path
		oldImage = voter.ImagePath
	}

	if len(updates) > 0 {
		if err := s.db.Model(&voter).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if oldImage != nil {
		s.deleteImage(ctx, *oldImage)
	}

	s.db.Preload("Ward").First(&voter, voter.ID)
	if err := s.decorateOne(&voter); err != nil {
		return nil, err
	}
	return &voter, nil
}

// Delete removes a voter, its photograph, and its satellite rows.
func (s *VoterService) Delete(ctx context.Context, id uint) error {
	var voter model.Voter
	if err := s.db.First(&voter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if voter.ImagePath != nil {
		s.deleteImage(ctx, *voter.ImagePath)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("voter_id = ?", voter.ID).Delete(&model.VoterWorkerAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("voter_id = ?", voter.ID).Delete(&model.VoterStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Where("voter_id = ?", voter.ID).Delete(&model.VoterCategoryVoter{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Voter{}, voter.ID).Error
	})
}

// Unassigned returns scoped voters with no assignment. Workers cannot use
// this view.
func (s *VoterService) Unassigned(ctx context.Context, user *model.User, query model.VoterListQuery) ([]model.Voter, int64, error) {
	if user.IsWorker() {
		return nil, 0, policy.ErrForbidden
	}

	q, err := policy.ScopeVoters(s.db.Model(&model.Voter{}), user)
	if err != nil {
		return nil, 0, err
	}
	q = q.Where("NOT EXISTS (SELECT 1 FROM voter_worker_assignments a WHERE a.voter_id = voters.id)")
	q = applyVoterFilters(q, query)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var voters []model.Voter
	err = q.Preload("Ward").
		Order("voters.created_at DESC, voters.id DESC").
		Offset(pageOffset(query.Page, query.PerPage)).
		Limit(query.PerPage).
		Find(&voters).Error
	if err != nil {
		return nil, 0, err
	}

	if err := s.decorate(voters); err != nil {
		return nil, 0, err
	}
	return voters, total, nil
}

// Assigned returns scoped voters that have an assignment, optionally
// restricted to one worker.
func (s *VoterService) Assigned(ctx context.Context, user *model.User, query model.VoterListQuery) ([]model.Voter, int64, error) {
	q, err := policy.ScopeVoters(s.db.Model(&model.Voter{}), user)
	if err != nil {
		return nil, 0, err
	}
	q = q.Where("EXISTS (SELECT 1 FROM voter_worker_assignments a WHERE a.voter_id = voters.id)")
	if query.WorkerID != 0 {
		q = q.Where(
			"EXISTS (SELECT 1 FROM voter_worker_assignments a WHERE a.voter_id = voters.id AND a.worker_id = ?)",
			query.WorkerID,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var voters []model.Voter
	err = q.Preload("Ward").
		Preload("Assignment.Worker").
		Order("voters.created_at DESC, voters.id DESC").
		Offset(pageOffset(query.Page, query.PerPage)).
		Limit(query.PerPage).
		Find(&voters).Error
	if err != nil {
		return nil, 0, err
	}

	if err := s.decorate(voters); err != nil {
		return nil, 0, err
	}
	return voters, total, nil
}

// applyVoterFilters ANDs the caller-supplied filters onto an already-scoped
// query. The status filter matches the derived status, so voters with an
// empty ledger match not_voted.
func applyVoterFilters(q *gorm.DB, query model.VoterListQuery) *gorm.DB {
	if query.SerialNumber != "" {
		q = q.Where("voters.serial_number LIKE ?", "%"+query.SerialNumber+"%")
	}
	if query.WardID != 0 {
		q = q.Where("voters.ward_id = ?", query.WardID)
	}
	if query.Panchayat != "" {
		q = q.Where("voters.panchayat LIKE ?", "%"+query.Panchayat+"%")
	}
	if query.PanchayatID != 0 {
		q = q.Where("voters.panchayat_id = ?", query.PanchayatID)
	}
	if query.Status != "" {
		q = q.Where("COALESCE("+currentStatusSubquery+", ?) = ?", model.StatusNotVoted, query.Status)
	}
	return q
}

func pageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}

// decorate fills the derived current status and image URL for a page of
// voters with one ledger query.
func (s *VoterService) decorate(voters []model.Voter) error {
	ids := make([]uint, len(voters))
	for i := range voters {
		ids[i] = voters[i].ID
	}

	statuses, err := currentStatuses(s.db, ids)
	if err != nil {
		return err
	}

	for i := range voters {
		voters[i].CurrentStatus = statuses[voters[i].ID]
		if voters[i].ImagePath != nil && s.images != nil {
			url := s.images.URL(*voters[i].ImagePath)
			voters[i].ImageURL = &url
		}
	}
	return nil
}

func (s *VoterService) decorateOne(voter *model.Voter) error {
	page := []model.Voter{*voter}
	if err := s.decorate(page); err != nil {
		return err
	}
	*voter = page[0]
	return nil
}

// deleteImage removes a stored photograph if it still exists. Best effort:
// a storage failure must not fail the database mutation it follows.
func (s *VoterService) deleteImage(ctx context.Context, path string) {
	if s.images == nil {
		return
	}
	exists, err := s.images.Exists(ctx, path)
	if err != nil || !exists {
		return
	}
	if err := s.images.Delete(ctx, path); err != nil {
		log.Printf("[Voters] delete image %s failed: %v", path, err)
	}
}

// voterImagePath builds the logical storage path for a voter photograph.
func voterImagePath(ext string) string {
	buf := make([]byte, 6)
	rand.Read(buf)
	return fmt.Sprintf("voters/%d_%s%s", time.Now().Unix(), hex.EncodeToString(buf), ext)
}
