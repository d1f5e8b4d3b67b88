// Package nametracker keeps the name history of every reported identity.
//
// For each identity there is at most one current NameLog row, and two
// consecutive rows never carry the same name.
package nametracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/storage"

	"go.uber.org/zap"
)

// Publisher is the part of the bus the tracker announces name changes on.
type Publisher interface {
	Publish(kind eventbus.Kind, payload any) bool
}

type Tracker struct {
	store storage.NameLogStore
	bus   Publisher
	log   *logger.Logger
	now   func() time.Time
}

func New(store storage.NameLogStore, bus Publisher, log *logger.Logger) *Tracker {
	return &Tracker{store: store, bus: bus, log: log, now: time.Now}
}

// Observe records that the identity currently carries name. Observations
// for one identity must not run concurrently; the bus dispatcher guarantees
// that when Observe is driven through Handle.
func (t *Tracker) Observe(ctx context.Context, name, originUserID, personaID string) error {
	if originUserID == "" || name == "" {
		return fmt.Errorf("observe name: identity or name missing")
	}
	now := t.now()

	latest, err := t.store.LatestNameLog(ctx, originUserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load name log of %s: %w", originUserID, err)
	}
	if latest != nil && latest.OriginName == name {
		return t.store.ExtendNameLog(ctx, latest.ID, now)
	}

	next := &models.NameLog{
		OriginName:      name,
		OriginUserID:    originUserID,
		OriginPersonaID: personaID,
		FromTime:        now,
		ToTime:          now,
		Current:         true,
	}
	if err := t.store.RotateNameLog(ctx, latest, next); err != nil {
		return fmt.Errorf("rotate name log of %s: %w", originUserID, err)
	}

	t.log.Info("identity name recorded",
		zap.String("origin_user_id", originUserID),
		zap.String("name", name),
		zap.Bool("renamed", latest != nil),
	)
	t.bus.Publish(eventbus.KindNameTracker, eventbus.NameLogPayload{Log: *next, Previous: latest})
	return nil
}

// Handle is the bus subscriber for report and profile_refresh events.
func (t *Tracker) Handle(ctx context.Context, ev eventbus.Event) error {
	var p models.Player
	switch payload := ev.Payload.(type) {
	case eventbus.ReportPayload:
		p = payload.Player
	case eventbus.ProfileRefreshPayload:
		p = payload.Player
	default:
		return fmt.Errorf("unexpected payload %T for %s", ev.Payload, ev.Kind)
	}
	return t.Observe(ctx, p.OriginName, p.OriginUserID, p.OriginPersonaID)
}

// Kinds lists the events Handle consumes.
func Kinds() []eventbus.Kind {
	return []eventbus.Kind{eventbus.KindReport, eventbus.KindProfileRefresh}
}
