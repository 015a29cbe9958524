package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. A closed set: a user's capability set is entirely determined by
// its role plus ward/booth affiliation.
const (
	RoleSuperadmin = "superadmin"
	RoleTeamLead   = "team_lead"
	RoleBoothAgent = "booth_agent"
	RoleWorker     = "worker"
)

// Roles lists every valid role value.
var Roles = []string{RoleSuperadmin, RoleTeamLead, RoleBoothAgent, RoleWorker}

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a system user.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:255;not null"`
	Email     string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password  string         `json:"-" gorm:"size:255"` // bcrypt hash
	Phone     string         `json:"phone" gorm:"size:20"`
	Role      string         `json:"role" gorm:"size:20;not null;index"`
	WardID    *uint          `json:"ward_id" gorm:"index"`
	BoothID   *uint          `json:"booth_id" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Ward *Ward `json:"ward,omitempty"`
}

// IsSuperadmin reports whether the user is a superadmin.
func (u *User) IsSuperadmin() bool { return u.Role == RoleSuperadmin }

// IsTeamLead reports whether the user is a team lead.
func (u *User) IsTeamLead() bool { return u.Role == RoleTeamLead }

// IsBoothAgent reports whether the user is a booth agent.
func (u *User) IsBoothAgent() bool { return u.Role == RoleBoothAgent }

// IsWorker reports whether the user is a worker.
func (u *User) IsWorker() bool { return u.Role == RoleWorker }

// LoginRequest represents login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"max=20"`
	Role     string `json:"role" binding:"required"`
	WardID   *uint  `json:"ward_id"`
	BoothID  *uint  `json:"booth_id"`
}

// UpdateUserRequest is the payload for updating a user.
type UpdateUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email" binding:"omitempty,email"`
	Password string  `json:"password" binding:"omitempty,min=8"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
	WardID   *uint   `json:"ward_id"`
	BoothID  *uint   `json:"booth_id"`
}
