package model

import (
	"time"
)

// VoterCategory is a private, per-user voter taxonomy. A category is visible
// and editable only by its creator; superadmins may list all of them.
type VoterCategory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User   *User   `json:"user,omitempty"`
	Voters []Voter `json:"voters,omitempty" gorm:"many2many:voter_category_voters;"`
}

// VoterCategoryVoter is the category membership join row. It records which
// user added the voter to the category.
type VoterCategoryVoter struct {
	VoterCategoryID uint      `json:"voter_category_id" gorm:"primaryKey"`
	VoterID         uint      `json:"voter_id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
}

func (VoterCategoryVoter) TableName() string {
	return "voter_category_voters"
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

// UpdateCategoryRequest is the payload for updating a category.
type UpdateCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CategoryVotersRequest adds or removes voters from a category.
type CategoryVotersRequest struct {
	VoterIDs []uint `json:"voter_ids" binding:"required,min=1"`
}
