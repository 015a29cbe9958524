package service

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

// currentStatusSubquery selects the latest ledger status for the voter row
// being examined. Ordered by created_at then id so ties on identical
// timestamps resolve deterministically to the highest id.
const currentStatusSubquery = "(SELECT vs.status FROM voter_statuses vs WHERE vs.voter_id = voters.id " +
	"ORDER BY vs.created_at DESC, vs.id DESC LIMIT 1)"

// StatusService is the append-only voter status ledger. Rows are only ever
// inserted; the current status of a voter is a projection over its history.
type StatusService struct {
	db    *gorm.DB
	redis *redis.Client
	nats  *nats.Conn
}

// NewStatusService creates a new status service.
func NewStatusService(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) *StatusService {
	return &StatusService{db: db, redis: redisClient, nats: natsConn}
}

// Record appends a ledger row for the voter on behalf of actor. Re-recording
// the same status is not a no-op: it creates a fresh entry. Returns the voter
// reloaded with its new current status.
func (s *StatusService) Record(actor *model.User, voterID uint, status string) (*model.Voter, error) {
	if !model.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	var voter model.Voter
	if err := s.db.First(&voter, voterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !policy.CanRecordStatus(s.db, actor, &voter, status) {
		return nil, policy.ErrForbidden
	}

	row := model.VoterStatus{
		VoterID: voter.ID,
		UserID:  actor.ID,
		Status:  status,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}

	invalidateStatsCache(context.Background(), s.redis)

	publishEvent(s.nats, SubjectStatusUpdated, map[string]interface{}{
		"voter_id":      voter.ID,
		"serial_number": voter.SerialNumber,
		"ward_id":       voter.WardID,
		"status":        status,
		"user_id":       actor.ID,
		"recorded_at":   row.CreatedAt.Unix(),
	})

	if err := s.db.Preload("Ward").First(&voter, voter.ID).Error; err != nil {
		return nil, err
	}
	return &voter, nil
}

// Current returns the voter's derived status: the latest ledger row, or
// not_voted when no row exists.
func (s *StatusService) Current(voterID uint) (string, error) {
	var row model.VoterStatus
	err := s.db.Where("voter_id = ?", voterID).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.StatusNotVoted, nil
		}
		return "", err
	}
	return row.Status, nil
}

// History returns the full reverse-chronological ledger for the voter with
// each actor preloaded, for audit display.
func (s *StatusService) History(voterID uint) ([]model.VoterStatus, error) {
	var count int64
	if err := s.db.Model(&model.Voter{}).Where("id = ?", voterID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	var rows []model.VoterStatus
	err := s.db.Preload("User").
		Where("voter_id = ?", voterID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// currentStatuses loads the latest ledger row per voter for a page of
// voters, in one query instead of one per row.
func currentStatuses(db *gorm.DB, voterIDs []uint) (map[uint]*model.VoterStatus, error) {
	result := make(map[uint]*model.VoterStatus, len(voterIDs))
	if len(voterIDs) == 0 {
		return result, nil
	}

	var rows []model.VoterStatus
	err := db.Preload("User").
		Where("voter_id IN ?", voterIDs).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Ascending order: the last row seen per voter is the current one.
	for i := range rows {
		result[rows[i].VoterID] = &rows[i]
	}
	return result, nil
}
