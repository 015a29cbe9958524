package service

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

// AssignmentService manages the single active voter-to-worker pairing per
// voter. The upsert is keyed on voter_id and backed by a unique index, so the
// one-assignment-per-voter invariant holds under concurrent assigns.
type AssignmentService struct {
	db    *gorm.DB
	redis *redis.Client
	nats  *nats.Conn
}

// NewAssignmentService creates a new assignment service.
func NewAssignmentService(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) *AssignmentService {
	return &AssignmentService{db: db, redis: redisClient, nats: natsConn}
}

// Assign assigns the voter to the worker, replacing any prior assignment.
// Only a team lead of the ward both voter and worker belong to may assign.
func (s *AssignmentService) Assign(actor *model.User, voterID, workerID uint) (*model.Voter, error) {
	var voter model.Voter
	if err := s.db.First(&voter, voterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var worker model.User
	if err := s.db.First(&worker, workerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !policy.CanAssign(actor, &voter, &worker) {
		return nil, policy.ErrForbidden
	}

	if err := s.upsert(voter.ID, worker.ID, actor.ID); err != nil {
		return nil, err
	}

	invalidateStatsCache(context.Background(), s.redis)

	publishEvent(s.nats, SubjectAssignmentChanged, map[string]interface{}{
		"voter_id":  voter.ID,
		"worker_id": worker.ID,
		"ward_id":   voter.WardID,
		"action":    "assigned",
	})

	if err := s.db.
		Preload("Ward").
		Preload("Assignment.Worker").
		Preload("Assignment.TeamLead").
		First(&voter, voter.ID).Error; err != nil {
		return nil, err
	}
	return &voter, nil
}

// BulkAssign applies Assign independently per voter id. Items fail
// individually and are reported, never aborting their siblings.
func (s *AssignmentService) BulkAssign(actor *model.User, voterIDs []uint, workerID uint) (*model.BulkAssignResult, error) {
	var worker model.User
	if err := s.db.First(&worker, workerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !worker.IsWorker() {
		return nil, ErrNotWorker
	}

	result := &model.BulkAssignResult{
		AssignedVoters: []model.Voter{},
		FailedVoters:   []model.BulkAssignFailure{},
	}

	for _, voterID := range voterIDs {
		var voter model.Voter
		if err := s.db.First(&voter, voterID).Error; err != nil {
			result.FailedVoters = append(result.FailedVoters, model.BulkAssignFailure{
				VoterID: voterID,
				Reason:  "Voter not found",
			})
			continue
		}

		if !policy.CanAssign(actor, &voter, &worker) {
			result.FailedVoters = append(result.FailedVoters, model.BulkAssignFailure{
				VoterID: voterID,
				Reason:  "Unauthorized to assign this voter",
			})
			continue
		}

		if err := s.upsert(voter.ID, worker.ID, actor.ID); err != nil {
			result.FailedVoters = append(result.FailedVoters, model.BulkAssignFailure{
				VoterID: voterID,
				Reason:  err.Error(),
			})
			continue
		}

		s.db.Preload("Ward").Preload("Assignment.Worker").First(&voter, voter.ID)
		result.AssignedVoters = append(result.AssignedVoters, voter)
	}

	result.AssignedCount = len(result.AssignedVoters)
	result.FailedCount = len(result.FailedVoters)

	if result.AssignedCount > 0 {
		invalidateStatsCache(context.Background(), s.redis)
		publishEvent(s.nats, SubjectAssignmentChanged, map[string]interface{}{
			"worker_id":      worker.ID,
			"assigned_count": result.AssignedCount,
			"action":         "bulk_assigned",
		})
	}
	return result, nil
}

// Unassign removes the voter's assignment. Returns ErrNotAssigned when the
// voter has no assignment, which the caller reports rather than treating as a
// failure.
func (s *AssignmentService) Unassign(actor *model.User, voterID uint) error {
	var voter model.Voter
	if err := s.db.First(&voter, voterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !policy.CanUnassign(actor, &voter) {
		return policy.ErrForbidden
	}

	res := s.db.Where("voter_id = ?", voter.ID).Delete(&model.VoterWorkerAssignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotAssigned
	}

	invalidateStatsCache(context.Background(), s.redis)

	publishEvent(s.nats, SubjectAssignmentChanged, map[string]interface{}{
		"voter_id": voter.ID,
		"ward_id":  voter.WardID,
		"action":   "unassigned",
	})
	return nil
}

// SetRemark sets the remark on the assignment held by actor for this voter.
// Only the worker currently holding the assignment may edit it; anyone else
// gets a not-found signal.
func (s *AssignmentService) SetRemark(actor *model.User, voterID uint, remark string) (*model.Voter, error) {
	var voter model.Voter
	if err := s.db.First(&voter, voterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var assignment model.VoterWorkerAssignment
	err := s.db.Where("voter_id = ? AND worker_id = ?", voter.ID, actor.ID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&assignment).Update("remark", remark).Error; err != nil {
		return nil, err
	}

	if err := s.db.Preload("Ward").Preload("Assignment.Worker").First(&voter, voter.ID).Error; err != nil {
		return nil, err
	}
	return &voter, nil
}

// upsert atomically creates or replaces the assignment row for the voter.
// Relies on the unique index on voter_id, not a check-then-write.
func (s *AssignmentService) upsert(voterID, workerID, assignedBy uint) error {
	now := time.Now()
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "voter_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"worker_id":   workerID,
			"assigned_by": assignedBy,
			"updated_at":  now,
		}),
	}).Create(&model.VoterWorkerAssignment{
		VoterID:    voterID,
		WorkerID:   workerID,
		AssignedBy: assignedBy,
	}).Error
}
