package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name    string
	profile models.Profile
	err     error
	delay   time.Duration
	avatar  string
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) lookup(ctx context.Context) (models.Profile, error) {
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return models.Profile{}, ctx.Err()
	}
	return f.profile, f.err
}

func (f *fakeSource) ByName(ctx context.Context, _ string) (models.Profile, error) {
	return f.lookup(ctx)
}

func (f *fakeSource) ByUserID(ctx context.Context, _ string) (models.Profile, error) {
	return f.lookup(ctx)
}

func (f *fakeSource) Avatar(context.Context, string) (string, error) {
	if f.avatar == "" {
		return "", errors.New("no avatar")
	}
	return f.avatar, nil
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Store(ctx context.Context, p models.Profile) error {
	return m.Called(p).Error(0)
}

var alice = models.Profile{Name: "Alice", UserID: "1001", PersonaID: "2001"}

func TestResolver_ByName_FirstSuccessWins(t *testing.T) {
	down := &fakeSource{name: "down", err: errors.New("503")}
	slow := &fakeSource{name: "slow", profile: models.Profile{Name: "Alice", UserID: "stale"}, delay: 500 * time.Millisecond}
	fast := &fakeSource{name: "fast", profile: alice, delay: 5 * time.Millisecond}

	cache := new(MockCache)
	cache.On("Store", alice).Return(nil)

	r := New([]Source{down, slow, fast}, cache, logger.Nop())
	got, err := r.ByName(context.Background(), "Alice")

	require.NoError(t, err)
	assert.Equal(t, alice, got)
	cache.AssertExpectations(t)
}

func TestResolver_AllFailed(t *testing.T) {
	r := New([]Source{
		&fakeSource{name: "a", err: ErrProfileNotFound},
		&fakeSource{name: "b", err: errors.New("timeout")},
	}, nil, logger.Nop())

	_, err := r.ByUserID(context.Background(), "404")

	var all *AllSourcesFailedError
	require.ErrorAs(t, err, &all)
	assert.Len(t, all.Errors, 2)
	assert.Contains(t, err.Error(), "a: profile not found")
}

func TestResolver_ProfileWithoutIDIsFailure(t *testing.T) {
	r := New([]Source{&fakeSource{name: "broken", profile: models.Profile{Name: "x"}}}, nil, logger.Nop())

	_, err := r.ByName(context.Background(), "x")
	assert.Error(t, err)
}

func TestResolver_CacheFailureDoesNotFailResolution(t *testing.T) {
	cache := new(MockCache)
	cache.On("Store", alice).Return(errors.New("redis down"))

	r := New([]Source{&fakeSource{name: "ok", profile: alice}}, cache, logger.Nop())
	got, err := r.ByName(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestResolver_ConcurrentSameNameSharesRace(t *testing.T) {
	src := &fakeSource{name: "only", profile: alice, delay: 50 * time.Millisecond}
	r := New([]Source{src}, nil, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.ByName(context.Background(), "ALICE")
			assert.NoError(t, err)
			assert.Equal(t, alice, p)
		}()
	}
	wg.Wait()

	assert.Less(t, src.calls.Load(), int32(10), "concurrent lookups of one name are coalesced")
}

func TestResolver_Avatar(t *testing.T) {
	r := New([]Source{
		&fakeSource{name: "no-avatar"},
		&fakeSource{name: "has-avatar", avatar: "https://cdn/a.png"},
	}, nil, logger.Nop())
	assert.Equal(t, "https://cdn/a.png", r.Avatar(context.Background(), "1001", "default"))

	r = New([]Source{&fakeSource{name: "no-avatar"}}, nil, logger.Nop())
	assert.Equal(t, "default", r.Avatar(context.Background(), "1001", "default"))
}
