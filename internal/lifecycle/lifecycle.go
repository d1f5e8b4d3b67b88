// Package lifecycle decides how a player's case moves between review states.
// It performs no I/O.
package lifecycle

import (
	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/models"
)

// ErrPermission is returned when the actor's roles do not allow the action.
var ErrPermission = apperr.Permission("judgement.permissionDenied", "permission denied")

// ErrUnknownAction is returned for actions outside the action vocabulary.
var ErrUnknownAction = apperr.Validation("judgement.bad", "unknown action")

type rule struct {
	allowed []models.Privilege // nil means any role
	next    func(current models.Status) models.Status
}

func moveTo(s models.Status) func(models.Status) models.Status {
	return func(models.Status) models.Status { return s }
}

var rules = map[models.Action]rule{
	models.ActionReport: {
		next: func(current models.Status) models.Status {
			if current == models.StatusNone {
				return models.StatusSuspect
			}
			return current
		},
	},
	models.ActionSuspect:  {allowed: models.StaffPrivileges, next: moveTo(models.StatusSuspect)},
	models.ActionDiscuss:  {allowed: models.StaffPrivileges, next: moveTo(models.StatusDiscuss)},
	models.ActionInnocent: {allowed: models.StaffPrivileges, next: moveTo(models.StatusInnocent)},
	models.ActionGuilt:    {allowed: models.StaffPrivileges, next: moveTo(models.StatusBanned)},
	models.ActionKill:     {allowed: models.ElevatedPrivileges, next: moveTo(models.StatusBanned)},
}

// NextStatus returns the status a case in current moves to when an actor
// holding roles performs action. The result depends only on its inputs.
func NextStatus(current models.Status, roles models.PrivilegeSet, action models.Action) (models.Status, error) {
	r, ok := rules[action]
	if !ok {
		return current, ErrUnknownAction
	}
	if r.allowed != nil && !roles.HasAny(r.allowed...) {
		return current, ErrPermission
	}
	return r.next(current), nil
}

// Changed reports whether a transition actually moved the case.
func Changed(previous, next models.Status) bool {
	return previous != next
}

// CanPerform reports whether roles may perform action at all.
func CanPerform(roles models.PrivilegeSet, action models.Action) bool {
	r, ok := rules[action]
	if !ok {
		return false
	}
	return r.allowed == nil || roles.HasAny(r.allowed...)
}
