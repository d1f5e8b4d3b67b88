package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/metrics"
	"cheatreport/backend/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrProfileNotFound is returned by a source that knows the identity does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUnsupported is returned by a source that cannot perform the requested kind of lookup.
	ErrUnsupported = errors.New("lookup not supported by source")
)

// Source is one independent place a profile can be resolved from.
type Source interface {
	Name() string
	ByName(ctx context.Context, name string) (models.Profile, error)
	ByUserID(ctx context.Context, userID string) (models.Profile, error)
}

// AvatarSource is implemented by sources that can also serve avatars.
type AvatarSource interface {
	Avatar(ctx context.Context, userID string) (string, error)
}

// ProfileCache remembers resolved profiles so later races can be won locally.
type ProfileCache interface {
	Store(ctx context.Context, p models.Profile) error
}

// Resolver races every configured source for each resolution.
// Concurrent resolutions of the same key share a single race.
type Resolver struct {
	sources []Source
	cache   ProfileCache
	log     *logger.Logger
	group   singleflight.Group
}

// New creates a Resolver. cache may be nil.
func New(sources []Source, cache ProfileCache, log *logger.Logger) *Resolver {
	return &Resolver{sources: sources, cache: cache, log: log}
}

// ByName resolves an identity from its current display name.
func (r *Resolver) ByName(ctx context.Context, name string) (models.Profile, error) {
	return r.resolve(ctx, "name:"+strings.ToLower(name), func(ctx context.Context, s Source) (models.Profile, error) {
		return s.ByName(ctx, name)
	})
}

// ByUserID resolves an identity from its external primary id.
func (r *Resolver) ByUserID(ctx context.Context, userID string) (models.Profile, error) {
	return r.resolve(ctx, "id:"+userID, func(ctx context.Context, s Source) (models.Profile, error) {
		return s.ByUserID(ctx, userID)
	})
}

// Avatar asks the avatar-capable sources in order and returns fallback if
// none answers.
func (r *Resolver) Avatar(ctx context.Context, userID, fallback string) string {
	for _, s := range r.sources {
		as, ok := s.(AvatarSource)
		if !ok {
			continue
		}
		link, err := as.Avatar(ctx, userID)
		if err == nil && link != "" {
			return link
		}
		if err != nil {
			r.log.Debug("avatar lookup failed", zap.String("source", s.Name()), zap.Error(err))
		}
	}
	return fallback
}

func (r *Resolver) resolve(ctx context.Context, key string, call func(context.Context, Source) (models.Profile, error)) (models.Profile, error) {
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.race(ctx, call)
	})
	if err != nil {
		return models.Profile{}, err
	}
	return v.(models.Profile), nil
}

func (r *Resolver) race(ctx context.Context, call func(context.Context, Source) (models.Profile, error)) (models.Profile, error) {
	start := time.Now()
	lookups := make([]Lookup[models.Profile], 0, len(r.sources))
	for _, s := range r.sources {
		lookups = append(lookups, r.instrument(s, call))
	}

	profile, err := FirstSuccess(ctx, lookups...)
	metrics.ResolverLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ResolverRacesTotal.WithLabelValues("all_failed").Inc()
		return models.Profile{}, err
	}
	metrics.ResolverRacesTotal.WithLabelValues("resolved").Inc()

	if r.cache != nil {
		if err := r.cache.Store(ctx, profile); err != nil {
			r.log.Warn("failed to cache resolved profile", zap.String("origin_user_id", profile.UserID), zap.Error(err))
		}
	}
	return profile, nil
}

func (r *Resolver) instrument(s Source, call func(context.Context, Source) (models.Profile, error)) Lookup[models.Profile] {
	return func(ctx context.Context) (models.Profile, error) {
		p, err := call(ctx, s)
		if err == nil && p.UserID == "" {
			err = fmt.Errorf("source returned a profile without user id")
		}
		if err != nil {
			metrics.ResolverLookupsTotal.WithLabelValues(s.Name(), "failure").Inc()
			return models.Profile{}, fmt.Errorf("%s: %w", s.Name(), err)
		}
		metrics.ResolverLookupsTotal.WithLabelValues(s.Name(), "success").Inc()
		return p, nil
	}
}
