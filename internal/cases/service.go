// Package cases implements the case operations: reporting players, judging
// them, replies, ban appeals and the read side of a case.
//
// Every mutating operation persists its records first and then publishes
// exactly one domain event; it never waits for subscribers.
package cases

import (
	"context"
	"errors"
	"strings"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/resolver"
	"cheatreport/backend/internal/storage"
)

// Identities resolves external profiles.
type Identities interface {
	ByName(ctx context.Context, name string) (models.Profile, error)
	ByUserID(ctx context.Context, userID string) (models.Profile, error)
	Avatar(ctx context.Context, userID, fallback string) string
}

type Publisher interface {
	Publish(kind eventbus.Kind, payload any) bool
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Roles  models.PrivilegeSet
}

func (a Actor) restricted() bool {
	return a.Roles.HasAny(models.RestrictedPrivileges...)
}

// Service handles the business logic for cases.
type Service struct {
	Storage    storage.Store
	Identities Identities
	Bus        Publisher
	log        *logger.Logger
}

// NewService creates a new case service.
func NewService(s storage.Store, ids Identities, bus Publisher, log *logger.Logger) *Service {
	return &Service{Storage: s, Identities: ids, Bus: bus, log: log}
}

// publish hands ev to the bus. A dropped event is already counted and
// logged by the bus and does not fail the operation.
func (s *Service) publish(kind eventbus.Kind, payload any) {
	s.Bus.Publish(kind, payload)
}

// storageErr classifies a storage failure: a missing row becomes notFound,
// anything else a subsystem failure under prefix.
func storageErr(err error, notFound *apperr.Error, prefix string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(notFound, err)
	}
	return apperr.Subsystem(prefix+".error", err)
}

// resolveErr maps a failed identity resolution. An identity no source can
// resolve is reported as not found.
func resolveErr(err error, prefix string) error {
	var all *resolver.AllSourcesFailedError
	if errors.As(err, &all) {
		return apperr.Wrap(apperr.NotFound(prefix+".notFound", "player not found"), err)
	}
	return apperr.Subsystem(prefix+".error", err)
}

func checkContent(content, code string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > config.MaxContentLength {
		return "", apperr.Validation(code, "content must be 1 to 65535 bytes")
	}
	return content, nil
}
