// Package tracker records which activities each tracked user had open in every
// minute of their local day and keeps the persisted timeline graphs current.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redqct/redqct/internal/palette"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyTracked is returned when tracking a user twice.
	ErrAlreadyTracked = errors.New("user is already tracked")
	// ErrNotTracked is returned for operations on users that are not tracked.
	ErrNotTracked = errors.New("user is not tracked")
)

// dateLayout formats the local date a rollover happened on.
const dateLayout = "2006-01-02"

// Registry owns every tracked user. Commands and ticks are serialised by a
// single mutex, and users are ticked one after another.
type Registry struct {
	store     *Store
	platform  Platform
	renderer  Renderer
	allocator *palette.Allocator
	logger    *zap.Logger
	tracer    trace.Tracer

	mu    sync.Mutex
	users map[string]*User
}

// NewRegistry creates an empty registry. Call Load to restore persisted users.
func NewRegistry(
	store *Store, platform Platform, renderer Renderer, allocator *palette.Allocator, logger *zap.Logger,
) *Registry {
	return &Registry{
		store:     store,
		platform:  platform,
		renderer:  renderer,
		allocator: allocator,
		logger:    logger.Named("tracker"),
		tracer:    otel.Tracer("tracker"),
		users:     make(map[string]*User),
	}
}

// Load scans the data directory. Directories of users that left the group are
// deleted; unreadable ones are skipped and left on disk.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.store.List()
	if err != nil {
		return err
	}

	for _, id := range ids {
		member, err := r.platform.IsMember(ctx, id)
		if err != nil {
			r.logger.Warn("Failed to check membership, loading anyway",
				zap.String("userID", id),
				zap.Error(err))
			member = true
		}

		if !member {
			if err := r.store.Remove(id); err != nil {
				r.logger.Error("Failed to remove stale user", zap.String("userID", id), zap.Error(err))
				continue
			}
			r.logger.Info("Removed stale tracked user", zap.String("userID", id))
			continue
		}

		user, err := r.read(id)
		if err != nil {
			r.logger.Error("Failed to load tracked user", zap.String("userID", id), zap.Error(err))
			continue
		}

		r.users[id] = user
	}

	r.logger.Info("Loaded tracked users", zap.Int("count", len(r.users)))

	return nil
}

// read loads the persisted records of id.
func (r *Registry) read(id string) (*User, error) {
	offset, err := r.store.ReadOffset(id)
	if err != nil {
		return nil, err
	}

	legend, err := r.store.ReadLegend(id)
	if err != nil {
		return nil, err
	}

	profile, err := r.store.ReadProfile(id)
	if err != nil {
		return nil, err
	}

	return &User{ID: id, Profile: profile, Offset: offset, Legend: legend}, nil
}

// Track starts tracking id at the given offset. If a directory for id already
// exists its initialisation is skipped and the persisted state is used.
func (r *Registry) Track(ctx context.Context, id, offset string, now time.Time) (Snapshot, error) {
	o, err := ParseOffset(offset)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; ok {
		return Snapshot{}, ErrAlreadyTracked
	}

	identity, err := r.platform.Identity(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to look up user: %w", err)
	}

	profile := Profile{Name: identity.Name, Tag: identity.Tag}

	empty, err := r.renderer.Empty(identity.Name, identity.Tag, o.Apply(now), o.Hours, o.Minutes)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to render empty graph: %w", err)
	}

	created, err := r.store.Init(id, profile, o, empty)
	if err != nil {
		return Snapshot{}, err
	}

	user := &User{ID: id, Profile: profile, Offset: o, Legend: NewLegend(nil)}
	if !created {
		if user, err = r.read(id); err != nil {
			return Snapshot{}, err
		}
	}

	r.users[id] = user
	r.logger.Info("Tracking user",
		zap.String("userID", id),
		zap.String("offset", user.Offset.String()),
		zap.Bool("created", created))

	return user.snapshot(), nil
}

// Untrack stops tracking id and deletes its directory.
func (r *Registry) Untrack(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.untrack(id)
}

func (r *Registry) untrack(id string) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotTracked
	}

	delete(r.users, id)

	if err := r.store.Remove(id); err != nil {
		return err
	}

	r.logger.Info("Untracked user", zap.String("userID", id))
	return nil
}

// Exists reports whether id is tracked.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[id]
	return ok
}

// Get returns a copy of the state of id.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return Snapshot{}, false
	}
	return user.snapshot(), true
}

// Users returns the tracked ids in tick order.
func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ids()
}

func (r *Registry) ids() []string {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Graph returns the encoded graph of id for day.
func (r *Registry) Graph(id string, day Day) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return nil, ErrNotTracked
	}
	return r.store.GraphBytes(id, day)
}

// Tick processes every tracked user for the minute containing now. A failure
// for one user is logged and does not stop the others.
func (r *Registry) Tick(ctx context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "tracker.Tick", trace.WithAttributes(
		attribute.Int("users", len(r.users)),
	))
	defer span.End()

	var errs []error

	for _, id := range r.ids() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if err := r.tickUser(ctx, r.users[id], now); err != nil {
			r.logger.Error("Failed to update tracked user", zap.String("userID", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
		}
	}

	return errors.Join(errs...)
}
