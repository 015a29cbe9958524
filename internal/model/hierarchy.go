package model

import (
	"time"
)

// Panchayat is the top administrative unit grouping wards.
type Panchayat struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Code        *string   `json:"code" gorm:"uniqueIndex;size:50"`
	District    string    `json:"district" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Wards []Ward `json:"wards,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Ward is the primary visibility-scoping boundary for non-superadmin roles.
// A ward produced by cloning keeps a back-reference to its source ward.
type Ward struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"size:255;not null"`
	WardNumber       string    `json:"ward_number" gorm:"size:50;not null"`
	PanchayatID      uint      `json:"panchayat_id" gorm:"index;not null"`
	Description      string    `json:"description" gorm:"type:text"`
	ClonedFromWardID *uint     `json:"cloned_from_ward_id" gorm:"index"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Panchayat  *Panchayat `json:"panchayat,omitempty"`
	ClonedFrom *Ward      `json:"cloned_from,omitempty" gorm:"foreignKey:ClonedFromWardID"`
	Booths     []Booth    `json:"booths,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Voters     []Voter    `json:"voters,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Users      []User     `json:"users,omitempty"`
}

// IsClone reports whether this ward was produced by the cloning engine.
func (w *Ward) IsClone() bool {
	return w.ClonedFromWardID != nil
}

// Booth is a physical polling location within a ward.
type Booth struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	BoothNumber string    `json:"booth_number" gorm:"size:50;not null"`
	PanchayatID uint      `json:"panchayat_id" gorm:"index;not null"`
	WardID      uint      `json:"ward_id" gorm:"index;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Panchayat *Panchayat `json:"panchayat,omitempty"`
	Ward      *Ward      `json:"ward,omitempty"`
}

// CreatePanchayatRequest is the payload for creating a panchayat.
type CreatePanchayatRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Code        *string `json:"code"`
	District    string  `json:"district" binding:"max=255"`
	Description string  `json:"description"`
}

// UpdatePanchayatRequest is the payload for updating a panchayat.
type UpdatePanchayatRequest struct {
	Name        string  `json:"name"`
	Code        *string `json:"code"`
	District    *string `json:"district"`
	Description *string `json:"description"`
}

// CreateWardRequest is the payload for creating a ward.
type CreateWardRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	WardNumber  string `json:"ward_number" binding:"required"`
	PanchayatID uint   `json:"panchayat_id" binding:"required"`
	Description string `json:"description"`
}

// UpdateWardRequest is the payload for updating a ward.
type UpdateWardRequest struct {
	Name        string  `json:"name"`
	WardNumber  string  `json:"ward_number"`
	PanchayatID uint    `json:"panchayat_id"`
	Description *string `json:"description"`
}

// CloneWardRequest is the payload for cloning a ward.
type CloneWardRequest struct {
	WardID        uint   `json:"ward_id" binding:"required"`
	NewWardName   string `json:"new_ward_name" binding:"required,max=255"`
	NewWardNumber string `json:"new_ward_number" binding:"required"`
}

// CreateBoothRequest is the payload for creating a booth.
type CreateBoothRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	BoothNumber string `json:"booth_number" binding:"required"`
	PanchayatID uint   `json:"panchayat_id" binding:"required"`
	WardID      uint   `json:"ward_id" binding:"required"`
}

// UpdateBoothRequest is the payload for updating a booth.
type UpdateBoothRequest struct {
	Name        string `json:"name"`
	BoothNumber string `json:"booth_number"`
	PanchayatID uint   `json:"panchayat_id"`
	WardID      uint   `json:"ward_id"`
}
