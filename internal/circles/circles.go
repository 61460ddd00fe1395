// Package circles resolves extracted circle names to circle ids, creating
// circles on demand.
package circles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
)

var (
	// ErrCircleInUse is returned when deleting a circle that still has records.
	ErrCircleInUse = errors.New("circles: circle has records")

	// ErrEmptyName is returned when a circle name is blank.
	ErrEmptyName = errors.New("circles: empty circle name")
)

// Default circle names materialised for an owner with no circles.
var defaultNames = []string{"好友局", "家庭局", "同事局"}

// Repository is the persistence the resolver needs.
type Repository interface {
	InsertCircles(ctx context.Context, ownerID string, circles []domain.Circle) error
}

// NewID mints a circle identifier. Identifiers from files or completion
// output are never reused.
func NewID() string {
	return uuid.NewString()
}

// DefaultCircles returns the fallback circle set, each with a fresh id.
// The first one is the default.
func DefaultCircles() []domain.Circle {
	out := make([]domain.Circle, 0, len(defaultNames))
	for i, name := range defaultNames {
		out = append(out, domain.Circle{ID: NewID(), Name: name, IsDefault: i == 0})
	}
	return out
}

// FindExact returns the first circle whose name equals name, ignoring
// surrounding whitespace.
func FindExact(known []domain.Circle, name string) (domain.Circle, bool) {
	name = strings.TrimSpace(name)
	for _, c := range known {
		if strings.TrimSpace(c.Name) == name {
			return c, true
		}
	}
	return domain.Circle{}, false
}

// Match finds a circle by exact name, then by substring in either direction
// ("同事" matches "同事圈"). Matching is case-sensitive and the first hit in
// list order wins.
func Match(known []domain.Circle, name string) (domain.Circle, bool) {
	if name == "" {
		return domain.Circle{}, false
	}
	if c, ok := FindExact(known, name); ok {
		return c, true
	}
	for _, c := range known {
		if c.Name == "" {
			continue
		}
		if strings.Contains(c.Name, name) || strings.Contains(name, c.Name) {
			return c, true
		}
	}
	return domain.Circle{}, false
}

// Resolver maps circle names to ids over a local working set. Circles it
// creates are persisted immediately and become visible to later calls on the
// same Resolver. A Resolver is not safe for concurrent use.
type Resolver struct {
	repo    Repository
	ownerID string
	known   []domain.Circle
	created []domain.Circle
}

// NewResolver creates a Resolver seeded with a copy of known.
func NewResolver(repo Repository, ownerID string, known []domain.Circle) *Resolver {
	working := make([]domain.Circle, len(known))
	copy(working, known)
	return &Resolver{
		repo:    repo,
		ownerID: ownerID,
		known:   working,
	}
}

// Resolve returns the id for name. A nil or empty name resolves to
// selectedID. An unmatched name creates a new circle.
func (r *Resolver) Resolve(ctx context.Context, name *string, selectedID string) (string, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return selectedID, nil
	}
	return r.ResolveName(ctx, *name)
}

// ResolveName returns the id of the circle matching name, creating one when
// nothing matches. Names are stored trimmed.
func (r *Resolver) ResolveName(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("ResolveName: %w", ErrEmptyName)
	}
	if c, ok := Match(r.known, name); ok {
		return c.ID, nil
	}

	c := domain.Circle{ID: NewID(), Name: name}
	if err := r.repo.InsertCircles(ctx, r.ownerID, []domain.Circle{c}); err != nil {
		return "", fmt.Errorf("ResolveName: creating circle %q: %w", name, err)
	}

	r.known = append(r.known, c)
	r.created = append(r.created, c)

	log := logger.FromContext(ctx)
	log.Info().
		Str("owner_id", r.ownerID).
		Str("circle_id", c.ID).
		Str("circle_name", c.Name).
		Msg("Created circle")

	return c.ID, nil
}

// Circles returns the current working set.
func (r *Resolver) Circles() []domain.Circle {
	out := make([]domain.Circle, len(r.known))
	copy(out, r.known)
	return out
}

// Created returns the circles this Resolver created, in creation order.
func (r *Resolver) Created() []domain.Circle {
	out := make([]domain.Circle, len(r.created))
	copy(out, r.created)
	return out
}

// Names returns the names of the given circles in order.
func Names(cs []domain.Circle) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}
