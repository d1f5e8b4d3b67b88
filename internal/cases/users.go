package cases

import (
	"context"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/models"
)

var errUserNotFound = apperr.NotFound("user.notFound", "no such user")

// GrantPrivilege adds p to a user's privilege set and returns the new set.
func (s *Service) GrantPrivilege(ctx context.Context, userID string, p models.Privilege) (models.PrivilegeSet, error) {
	return s.changePrivileges(ctx, userID, p, models.PrivilegeSet.Grant)
}

// RevokePrivilege removes p from a user's privilege set and returns the new set.
func (s *Service) RevokePrivilege(ctx context.Context, userID string, p models.Privilege) (models.PrivilegeSet, error) {
	return s.changePrivileges(ctx, userID, p, models.PrivilegeSet.Revoke)
}

func (s *Service) changePrivileges(ctx context.Context, userID string, p models.Privilege, op func(models.PrivilegeSet, models.Privilege) models.PrivilegeSet) (models.PrivilegeSet, error) {
	if !p.IsKnown() {
		return nil, apperr.Validation("user.bad", "unknown privilege "+string(p))
	}
	u, err := s.Storage.GetUser(ctx, userID)
	if err != nil {
		return nil, storageErr(err, errUserNotFound, "user")
	}
	next := op(u.PrivilegeSet(), p)
	if err := s.Storage.SetUserPrivileges(ctx, u.ID, next); err != nil {
		return nil, storageErr(err, errUserNotFound, "user")
	}
	return next, nil
}

// Principal loads the actor behind an authenticated user id.
func (s *Service) Principal(ctx context.Context, userID string) (Actor, error) {
	u, err := s.Storage.GetUser(ctx, userID)
	if err != nil {
		return Actor{}, storageErr(err, errUserNotFound, "user")
	}
	return Actor{UserID: u.ID, Roles: u.PrivilegeSet()}, nil
}
