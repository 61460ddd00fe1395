// Package ledger ties extraction, circle resolution, record storage and
// backups together behind one owner-scoped service.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/circles"
	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
	"github.com/dvloznov/mahjong-ledger/internal/pipeline"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

// ErrInvalidInput means a request failed validation before reaching the store.
var ErrInvalidInput = errors.New("ledger: invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Service is the application facade. Every method takes the authenticated
// owner's id and never touches another owner's data.
type Service struct {
	store     store.RecordStore
	extractor pipeline.Extractor
	now       func() time.Time
}

// NewService creates a Service. extractor may be nil when extraction is not
// configured; Extract then reports a missing credential.
func NewService(st store.RecordStore, extractor pipeline.Extractor) *Service {
	return &Service{
		store:     st,
		extractor: extractor,
		now:       time.Now,
	}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// today returns the current date at midnight in the clock's location.
func (s *Service) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ListCircles returns the owner's circles, materialising the default set
// when the owner has none.
func (s *Service) ListCircles(ctx context.Context, ownerID string) ([]domain.Circle, error) {
	cs, err := s.store.FetchCircles(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListCircles: fetching circles: %w", err)
	}
	if len(cs) > 0 {
		return cs, nil
	}

	defaults := circles.DefaultCircles()
	if err := s.store.InsertCircles(ctx, ownerID, defaults); err != nil {
		return nil, fmt.Errorf("ListCircles: creating default circles: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("owner_id", ownerID).
		Int("circles", len(defaults)).
		Msg("Created default circles")

	return defaults, nil
}

// CreateCircle adds a circle with a fresh id. An existing circle with the
// same name is returned instead of creating a duplicate.
func (s *Service) CreateCircle(ctx context.Context, ownerID, name string) (domain.Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Circle{}, invalid("circle name is required")
	}

	cs, err := s.ListCircles(ctx, ownerID)
	if err != nil {
		return domain.Circle{}, err
	}
	if c, ok := circles.FindExact(cs, name); ok {
		return c, nil
	}

	c := domain.Circle{ID: circles.NewID(), Name: name}
	if err := s.store.InsertCircles(ctx, ownerID, []domain.Circle{c}); err != nil {
		return domain.Circle{}, fmt.Errorf("CreateCircle: %w", err)
	}
	return c, nil
}

// RenameCircle changes a circle's display name.
func (s *Service) RenameCircle(ctx context.Context, ownerID, circleID, name string) (domain.Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Circle{}, invalid("circle name is required")
	}

	var renamed domain.Circle
	err := s.modifyCircles(ctx, ownerID, circleID, func(cs []domain.Circle, i int) []domain.Circle {
		cs[i].Name = name
		renamed = cs[i]
		return cs
	})
	if err != nil {
		return domain.Circle{}, fmt.Errorf("RenameCircle: %w", err)
	}
	return renamed, nil
}

// SetDefaultCircle marks one circle as the default and clears the flag on the rest.
func (s *Service) SetDefaultCircle(ctx context.Context, ownerID, circleID string) error {
	err := s.modifyCircles(ctx, ownerID, circleID, func(cs []domain.Circle, i int) []domain.Circle {
		for j := range cs {
			cs[j].IsDefault = j == i
		}
		return cs
	})
	if err != nil {
		return fmt.Errorf("SetDefaultCircle: %w", err)
	}
	return nil
}

// DeleteCircle removes a circle that has no records.
func (s *Service) DeleteCircle(ctx context.Context, ownerID, circleID string) error {
	recs, err := s.store.FetchRecords(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("DeleteCircle: fetching records: %w", err)
	}
	for _, r := range recs {
		if r.CircleID == circleID {
			return fmt.Errorf("DeleteCircle %s: %w", circleID, circles.ErrCircleInUse)
		}
	}

	err = s.modifyCircles(ctx, ownerID, circleID, func(cs []domain.Circle, i int) []domain.Circle {
		return append(cs[:i], cs[i+1:]...)
	})
	if err != nil {
		return fmt.Errorf("DeleteCircle: %w", err)
	}

	prefs, err := s.store.FetchPreferences(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("DeleteCircle: fetching preferences: %w", err)
	}
	if prefs.SelectedCircleID == circleID {
		prefs.SelectedCircleID = ""
		prefs.UpdatedAt = s.now()
		if err := s.store.SavePreferences(ctx, ownerID, prefs); err != nil {
			return fmt.Errorf("DeleteCircle: clearing selection: %w", err)
		}
	}
	return nil
}

// modifyCircles applies fn to the owner's circle set and writes it back with
// replace-set semantics.
func (s *Service) modifyCircles(ctx context.Context, ownerID, circleID string, fn func(cs []domain.Circle, i int) []domain.Circle) error {
	cs, err := s.store.FetchCircles(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("fetching circles: %w", err)
	}
	idx := -1
	for i, c := range cs {
		if c.ID == circleID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("circle %s: %w", circleID, store.ErrNotFound)
	}
	return s.store.UpsertCircles(ctx, ownerID, fn(cs, idx))
}

// Preferences returns the owner's preferences.
func (s *Service) Preferences(ctx context.Context, ownerID string) (domain.Preferences, error) {
	prefs, err := s.store.FetchPreferences(ctx, ownerID)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("Preferences: %w", err)
	}
	return prefs, nil
}

// SelectCircle stores circleID as the owner's active circle.
func (s *Service) SelectCircle(ctx context.Context, ownerID, circleID string) (domain.Preferences, error) {
	cs, err := s.ListCircles(ctx, ownerID)
	if err != nil {
		return domain.Preferences{}, err
	}
	if !hasCircle(cs, circleID) {
		return domain.Preferences{}, fmt.Errorf("SelectCircle %s: %w", circleID, store.ErrNotFound)
	}

	prefs := domain.Preferences{SelectedCircleID: circleID, UpdatedAt: s.now()}
	if err := s.store.SavePreferences(ctx, ownerID, prefs); err != nil {
		return domain.Preferences{}, fmt.Errorf("SelectCircle: %w", err)
	}
	return prefs, nil
}

// selectedCircleID returns the saved selection if it still exists, else the
// default circle, else the first circle.
func (s *Service) selectedCircleID(ctx context.Context, ownerID string, cs []domain.Circle) (string, error) {
	prefs, err := s.store.FetchPreferences(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("fetching preferences: %w", err)
	}
	if prefs.SelectedCircleID != "" && hasCircle(cs, prefs.SelectedCircleID) {
		return prefs.SelectedCircleID, nil
	}
	for _, c := range cs {
		if c.IsDefault {
			return c.ID, nil
		}
	}
	if len(cs) > 0 {
		return cs[0].ID, nil
	}
	return "", nil
}

func hasCircle(cs []domain.Circle, id string) bool {
	for _, c := range cs {
		if c.ID == id {
			return true
		}
	}
	return false
}
