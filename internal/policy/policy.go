// Package policy holds the role capability checks and the visibility scoper.
// Roles are a closed set of four; every check is a single switch over the
// role tag, not an extensible permission table.
package policy

import (
	"errors"

	"gorm.io/gorm"

	"rollcall/api/internal/model"
)

// ErrForbidden signals that the requester lacks the capability for the
// requested scope or action.
var ErrForbidden = errors.New("forbidden")

// ScopeVoters narrows a voter query to the rows the requester may see:
// superadmins see everything, ward roles see their ward, workers see only
// voters assigned to them. Caller filters compose with the returned query by
// AND, so they can never widen it.
func ScopeVoters(db *gorm.DB, user *model.User) (*gorm.DB, error) {
	switch user.Role {
	case model.RoleSuperadmin:
		return db, nil
	case model.RoleTeamLead, model.RoleBoothAgent:
		if user.WardID == nil {
			return nil, ErrForbidden
		}
		return db.Where("voters.ward_id = ?", *user.WardID), nil
	case model.RoleWorker:
		return db.Where(
			"EXISTS (SELECT 1 FROM voter_worker_assignments a WHERE a.voter_id = voters.id AND a.worker_id = ?)",
			user.ID,
		), nil
	default:
		return nil, ErrForbidden
	}
}

// CanViewVoter reports whether the user may see this specific voter.
func CanViewVoter(db *gorm.DB, user *model.User, voter *model.Voter) bool {
	switch user.Role {
	case model.RoleSuperadmin:
		return true
	case model.RoleTeamLead, model.RoleBoothAgent:
		return user.WardID != nil && *user.WardID == voter.WardID
	case model.RoleWorker:
		return isAssignedTo(db, user.ID, voter.ID)
	}
	return false
}

// CanCreateVoter reports whether the user may create voters.
func CanCreateVoter(user *model.User) bool { return user.IsSuperadmin() }

// CanUpdateVoter reports whether the user may update the voter.
func CanUpdateVoter(user *model.User) bool { return user.IsSuperadmin() }

// CanDeleteVoter reports whether the user may delete the voter.
func CanDeleteVoter(user *model.User) bool { return user.IsSuperadmin() }

// CanRecordStatus reports whether the user may append the given status to the
// voter's ledger. Superadmins and ward roles may record any of the four
// values inside their scope; workers may record only visited or not_visited,
// and only on voters currently assigned to them.
func CanRecordStatus(db *gorm.DB, user *model.User, voter *model.Voter, status string) bool {
	switch user.Role {
	case model.RoleSuperadmin:
		return true
	case model.RoleTeamLead, model.RoleBoothAgent:
		return user.WardID != nil && *user.WardID == voter.WardID
	case model.RoleWorker:
		if status != model.StatusVisited && status != model.StatusNotVisited {
			return false
		}
		return isAssignedTo(db, user.ID, voter.ID)
	}
	return false
}

// CanUpdateRemark reports whether the user may set the remark on the voter's
// assignment. Only the worker currently holding the assignment may.
func CanUpdateRemark(db *gorm.DB, user *model.User, voter *model.Voter) bool {
	return user.IsWorker() && isAssignedTo(db, user.ID, voter.ID)
}

// CanAssign reports whether the user may assign the voter to the worker: only
// a team lead of the ward both the voter and the worker belong to.
func CanAssign(user *model.User, voter *model.Voter, worker *model.User) bool {
	if !user.IsTeamLead() || user.WardID == nil {
		return false
	}
	if *user.WardID != voter.WardID {
		return false
	}
	if worker.WardID == nil || *user.WardID != *worker.WardID || !worker.IsWorker() {
		return false
	}
	return true
}

// CanUnassign reports whether the user may remove the voter's assignment.
func CanUnassign(user *model.User, voter *model.Voter) bool {
	if user.IsSuperadmin() {
		return true
	}
	return user.IsTeamLead() && user.WardID != nil && *user.WardID == voter.WardID
}

// CanViewCategory reports whether the user may see the category.
func CanViewCategory(user *model.User, category *model.VoterCategory) bool {
	return user.ID == category.UserID
}

// CanModifyCategory reports whether the user may update, delete, or edit the
// membership of the category.
func CanModifyCategory(user *model.User, category *model.VoterCategory) bool {
	return user.ID == category.UserID
}

func isAssignedTo(db *gorm.DB, workerID, voterID uint) bool {
	var count int64
	db.Model(&model.VoterWorkerAssignment{}).
		Where("voter_id = ? AND worker_id = ?", voterID, workerID).
		Count(&count)
	return count > 0
}
