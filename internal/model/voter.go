package model

import (
	"time"
)

// Canvassing status values recorded in the voter status ledger.
const (
	StatusNotVoted   = "not_voted"
	StatusVoted      = "voted"
	StatusVisited    = "visited"
	StatusNotVisited = "not_visited"
)

// ValidStatus reports whether s is one of the four known status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusNotVoted, StatusVoted, StatusVisited, StatusNotVisited:
		return true
	}
	return false
}

// Voter is an electoral-roll entry. Its canvassing status is not stored here:
// it is derived from the latest VoterStatus row, defaulting to not_voted.
//
// Serial numbers are checked for global uniqueness at the application level on
// create/import; the database index is per ward so that ward cloning can copy
// serials verbatim.
type Voter struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SerialNumber string    `json:"serial_number" gorm:"size:100;not null;index:idx_voters_ward_serial,unique"`
	WardID       uint      `json:"ward_id" gorm:"index;not null;index:idx_voters_ward_serial,unique"`
	PanchayatID  uint      `json:"panchayat_id" gorm:"index;not null"`
	Panchayat    string    `json:"panchayat" gorm:"size:255"` // cached panchayat name for display
	BoothID      *uint     `json:"booth_id" gorm:"index"`
	ImagePath    *string   `json:"image_path" gorm:"size:500"`
	ImageURL     *string   `json:"image_url" gorm:"-"`
	// CurrentStatus is the derived projection over the status ledger, filled
	// in by the voter service for display. Never persisted.
	CurrentStatus *VoterStatus `json:"current_status,omitempty" gorm:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Ward       *Ward                  `json:"ward,omitempty"`
	Booth      *Booth                 `json:"booth,omitempty"`
	Assignment *VoterWorkerAssignment `json:"assignment,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Statuses   []VoterStatus          `json:"statuses,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// VoterStatus is one row of the append-only status ledger. Rows are never
// updated or deleted; the current status of a voter is the status of its
// latest row ordered by created_at then id.
type VoterStatus struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	VoterID   uint      `json:"voter_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id" gorm:"not null"`
	Status    string    `json:"status" gorm:"size:20;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	User *User `json:"user,omitempty"`
}

// VoterWorkerAssignment is the single active voter-to-worker pairing. The
// unique index on voter_id backs the atomic upsert: two concurrent assigns can
// never leave two live rows for one voter.
type VoterWorkerAssignment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	VoterID    uint      `json:"voter_id" gorm:"uniqueIndex;not null"`
	WorkerID   uint      `json:"worker_id" gorm:"index;not null"`
	AssignedBy uint      `json:"assigned_by" gorm:"not null"`
	Remark     string    `json:"remark" gorm:"size:500"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Worker   *User `json:"worker,omitempty" gorm:"foreignKey:WorkerID"`
	TeamLead *User `json:"team_lead,omitempty" gorm:"foreignKey:AssignedBy"`
}

// CreateVoterRequest is the multipart/JSON payload for creating a voter. The
// photograph travels as a separate multipart file part.
type CreateVoterRequest struct {
	SerialNumber string `json:"serial_number" form:"serial_number" binding:"required,max=100"`
	WardID       uint   `json:"ward_id" form:"ward_id" binding:"required"`
	PanchayatID  uint   `json:"panchayat_id" form:"panchayat_id" binding:"required"`
	BoothID      *uint  `json:"booth_id" form:"booth_id"`
}

// UpdateVoterRequest is the payload for updating a voter.
type UpdateVoterRequest struct {
	SerialNumber string `json:"serial_number" form:"serial_number"`
	WardID       uint   `json:"ward_id" form:"ward_id"`
	PanchayatID  uint   `json:"panchayat_id" form:"panchayat_id"`
	BoothID      *uint  `json:"booth_id" form:"booth_id"`
}

// BulkStoreVoterRequest creates many voters in one ward; duplicates by serial
// number are skipped and reported, not treated as a batch failure.
type BulkStoreVoterRequest struct {
	WardID      uint `json:"ward_id" binding:"required"`
	PanchayatID uint `json:"panchayat_id" binding:"required"`
	Voters      []struct {
		SerialNumber string `json:"serial_number" binding:"required"`
		BoothID      *uint  `json:"booth_id"`
	} `json:"voters" binding:"required,min=1"`
}

// UpdateStatusRequest appends one ledger row.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRemarkRequest sets the remark on the caller's assignment.
type UpdateRemarkRequest struct {
	Remark string `json:"remark" binding:"required,max=500"`
}

// AssignWorkerRequest assigns one voter to a worker.
type AssignWorkerRequest struct {
	WorkerID uint `json:"worker_id" binding:"required"`
}

// BulkAssignRequest assigns many voters to one worker; failures are itemized.
type BulkAssignRequest struct {
	VoterIDs []uint `json:"voter_ids" binding:"required,min=1"`
	WorkerID uint   `json:"worker_id" binding:"required"`
}

// BulkAssignFailure describes one voter that could not be assigned.
type BulkAssignFailure struct {
	VoterID uint   `json:"voter_id"`
	Reason  string `json:"reason"`
}

// BulkAssignResult is the itemized outcome of a bulk assignment.
type BulkAssignResult struct {
	AssignedCount  int                 `json:"assigned_count"`
	FailedCount    int                 `json:"failed_count"`
	AssignedVoters []Voter             `json:"assigned_voters"`
	FailedVoters   []BulkAssignFailure `json:"failed_voters"`
}

// VoterListQuery holds the caller-supplied list filters. They compose with
// the requester's visibility scope by AND and can never widen it.
type VoterListQuery struct {
	SerialNumber string `form:"serial_number"`
	WardID       uint   `form:"ward_id"`
	Panchayat    string `form:"panchayat"`
	PanchayatID  uint   `form:"panchayat_id"`
	Status       string `form:"status"`
	WorkerID     uint   `form:"worker_id"`
	Page         int    `form:"page,default=1"`
	PerPage      int    `form:"per_page,default=15"`
}
