package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
)

// overviewCacheTTL bounds how stale a cached aggregate may be. Status reads
// themselves never go through this cache.
const overviewCacheTTL = 30 * time.Second

// OverviewService computes the role-scoped dashboard and overview
// aggregates, with a short-lived redis cache in front.
type OverviewService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewOverviewService creates a new overview service.
func NewOverviewService(db *gorm.DB, redisClient *redis.Client) *OverviewService {
	return &OverviewService{db: db, redis: redisClient}
}

// DashboardStats is the compact aggregate for the landing dashboard.
type DashboardStats struct {
	TotalVoters        int64   `json:"total_voters"`
	VotersVoted        int64   `json:"voters_voted"`
	VotersNotVoted     int64   `json:"voters_not_voted"`
	VotedPercentage    float64 `json:"voted_percentage"`
	NotVotedPercentage float64 `json:"not_voted_percentage"`
	Role               string  `json:"role"`
	WardID             *uint   `json:"ward_id"`
}

// OverviewStats extends the dashboard with canvassing and assignment counts.
type OverviewStats struct {
	TotalVoters        int64   `json:"total_voters"`
	VotedCount         int64   `json:"voted_count"`
	VisitedCount       int64   `json:"visited_count"`
	NotVotedCount      int64   `json:"not_voted_count"`
	NotVisitedCount    int64   `json:"not_visited_count"`
	AssignedCount      int64   `json:"assigned_count"`
	NotAssignedCount   int64   `json:"not_assigned_count"`
	VotedPercentage    float64 `json:"voted_percentage"`
	NotVotedPercentage float64 `json:"not_voted_percentage"`
	Role               string  `json:"role"`
	WardID             *uint   `json:"ward_id"`
}

// OverviewQuery holds the drill-down filters available to privileged roles.
type OverviewQuery struct {
	WardID   uint `form:"ward_id"`
	WorkerID uint `form:"worker_id"`
}

// Dashboard returns the scoped dashboard aggregate for the requester.
// Percentages are zero when the scoped total is zero.
func (s *OverviewService) Dashboard(ctx context.Context, user *model.User) (*DashboardStats, error) {
	cacheKey := fmt.Sprintf("roll:dashboard:%d", user.ID)
	var cached DashboardStats
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	q, err := policy.ScopeVoters(s.db.Model(&model.Voter{}), user)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	voted, err := s.countByStatus(q, model.StatusVoted)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalVoters:        total,
		VotersVoted:        voted,
		VotersNotVoted:     total - voted,
		VotedPercentage:    percentage(voted, total),
		NotVotedPercentage: percentage(total-voted, total),
		Role:               user.Role,
		WardID:             user.WardID,
	}
	s.cacheSet(ctx, cacheKey, stats)
	return stats, nil
}

// Overview returns the extended aggregate. Superadmins may drill down by
// ward and worker; team leads by worker within their ward; booth agents and
// workers get their fixed scope.
func (s *OverviewService) Overview(ctx context.Context, user *model.User, query OverviewQuery) (*OverviewStats, error) {
	cacheKey := fmt.Sprintf("roll:overview:%d:%d:%d", user.ID, query.WardID, query.WorkerID)
	var cached OverviewStats
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	q, err := policy.ScopeVoters(s.db.Model(&model.Voter{}), user)
	if err != nil {
		return nil, err
	}

	if query.WardID != 0 && user.IsSuperadmin() {
		q = q.Where("voters.ward_id = ?", query.WardID)
	}
	if query.WorkerID != 0 && (user.IsSuperadmin() || user.IsTeamLead()) {
		q = q.Where(
			"EXISTS (SELECT 1 FROM voter_worker_assignments a WHERE a.voter_id = voters.id AND a.worker_id = ?)",
			query.WorkerID,
		)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	voted, err := s.countByStatus(q, model.StatusVoted)
	if err != nil {
		return nil, err
	}
	visited, err := s.countByStatus(q, model.StatusVisited)
	if err != nil {
		return nil, err
	}

	var assigned int64
	if err := q.Session(&gorm.Session{}).
		Where("EXISTS (SELECT 1 FROM voter_worker_assignments a WHERE a.voter_id = voters.id)").
		Count(&assigned).Error; err != nil {
		return nil, err
	}

	stats := &OverviewStats{
		TotalVoters:        total,
		VotedCount:         voted,
		VisitedCount:       visited,
		NotVotedCount:      total - voted,
		NotVisitedCount:    total - visited,
		AssignedCount:      assigned,
		NotAssignedCount:   total - assigned,
		VotedPercentage:    percentage(voted, total),
		NotVotedPercentage: percentage(total-voted, total),
		Role:               user.Role,
		WardID:             user.WardID,
	}
	s.cacheSet(ctx, cacheKey, stats)
	return stats, nil
}

// countByStatus counts scoped voters whose derived status equals status.
// An empty ledger counts as not_voted.
func (s *OverviewService) countByStatus(q *gorm.DB, status string) (int64, error) {
	var count int64
	err := q.Session(&gorm.Session{}).
		Where("COALESCE("+currentStatusSubquery+", ?) = ?", model.StatusNotVoted, status).
		Count(&count).Error
	return count, err
}

func (s *OverviewService) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.redis == nil {
		return false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *OverviewService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.redis.Set(ctx, key, data, overviewCacheTTL)
}

// invalidateStatsCache drops every cached dashboard and overview aggregate.
// Called by the status and assignment write paths: a write changes the counts
// for an unknown set of viewers, so all keys go rather than tracking whose
// scope the voter falls into.
func invalidateStatsCache(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	for _, pattern := range []string{"roll:dashboard:*", "roll:overview:*"} {
		iter := rdb.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			rdb.Del(ctx, iter.Val())
		}
	}
}

// percentage returns count/total as a percentage rounded to two decimals,
// and 0 when total is 0.
func percentage(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*100) / 100
}
