package controller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Logger is satisfied by *logging.Logger.
type Logger interface {
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}

// Registry is a read-through cache of paired controllers in front of a
// Repository. Writes go to the repository first and reach the cache only
// when they succeed. Callers always receive copies.
type Registry struct {
	repo   Repository
	logger Logger

	mu    sync.RWMutex
	known map[string]*Controller
}

// NewRegistry returns an empty registry; call RefreshCache to load it.
func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo, logger: noopLogger{}, known: map[string]*Controller{}}
}

// SetLogger must be called before the registry is shared.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache replaces the cache with the repository contents.
func (r *Registry) RefreshCache(ctx context.Context) error {
	list, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading controllers: %w", err)
	}

	known := make(map[string]*Controller, len(list))
	for i := range list {
		known[list[i].UID] = list[i].Clone()
	}

	r.mu.Lock()
	r.known = known
	r.mu.Unlock()

	r.logger.Info("controller cache refreshed", "count", len(known))
	return nil
}

func (r *Registry) cached(uid string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.known[uid]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (r *Registry) remember(c *Controller) {
	r.mu.Lock()
	r.known[c.UID] = c.Clone()
	r.mu.Unlock()
}

// Get returns uid from the cache, falling back to the repository.
func (r *Registry) Get(ctx context.Context, uid string) (*Controller, error) {
	if c, ok := r.cached(uid); ok {
		return c, nil
	}
	c, err := r.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	r.remember(c)
	return c, nil
}

// Exists reports whether uid has been paired.
func (r *Registry) Exists(ctx context.Context, uid string) (bool, error) {
	_, err := r.Get(ctx, uid)
	if errors.Is(err, ErrControllerNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns every cached controller, ordered by name then UID.
func (r *Registry) List() []Controller {
	r.mu.RLock()
	out := make([]Controller, 0, len(r.known))
	for _, c := range r.known {
		out = append(out, *c.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Controller) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.UID, b.UID))
	})
	return out
}

// Count is the number of cached controllers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.known)
}

// Add stores a newly paired controller.
func (r *Registry) Add(ctx context.Context, c *Controller) error {
	if err := r.repo.Create(ctx, c); err != nil {
		return err
	}
	r.remember(c)
	r.logger.Info("controller paired", "uid", c.UID, "name", c.Name, "host", c.Host, "port", c.Port)
	return nil
}

// Readdress updates the name and address of a paired controller, keeping
// its pairing and poll history. It reports whether anything changed.
func (r *Registry) Readdress(ctx context.Context, uid, name, host string, port int) (bool, error) {
	c, err := r.Get(ctx, uid)
	if err != nil {
		return false, err
	}
	if c.Name == name && c.Host == host && c.Port == port {
		return false, nil
	}

	c.Name, c.Host, c.Port = name, host, port
	if err := r.repo.Update(ctx, c); err != nil {
		return false, err
	}
	r.remember(c)
	r.logger.Info("controller address updated", "uid", uid, "host", host, "port", port)
	return true, nil
}

// Remove forgets uid.
func (r *Registry) Remove(ctx context.Context, uid string) error {
	if err := r.repo.Delete(ctx, uid); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.known, uid)
	r.mu.Unlock()
	r.logger.Info("controller removed", "uid", uid)
	return nil
}

// Touch records a successful poll of uid.
func (r *Registry) Touch(ctx context.Context, uid string, seen time.Time, paramCount int) error {
	if err := r.repo.Touch(ctx, uid, seen, paramCount); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.known[uid]; ok {
		at := seen.UTC()
		c.LastSeenAt = &at
		c.ParamCount = paramCount
	}
	return nil
}
