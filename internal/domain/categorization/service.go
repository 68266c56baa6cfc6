package categorization

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store is the read side the service needs; *Repository implements it.
type Store interface {
	ActiveTree(ctx context.Context, householdID uuid.UUID) (Tree, error)
	RecentMappings(ctx context.Context, householdID uuid.UUID, limit int) ([]Mapping, error)
}

// Snapshot is everything the categorizer needs about a household.
type Snapshot struct {
	Tree     Tree
	Mappings *MappingCache
}

// Service loads category context for imports
type Service struct {
	store    Store
	lookback int
	logger   *slog.Logger
}

// NewService creates a new categorization service. lookback bounds how many
// distinct past descriptions seed the mapping cache.
func NewService(store Store, lookback int, logger *slog.Logger) *Service {
	if lookback <= 0 {
		lookback = 500
	}
	return &Service{store: store, lookback: lookback, logger: logger}
}

// Tree loads only the household's active categories.
func (s *Service) Tree(ctx context.Context, householdID uuid.UUID) (Tree, error) {
	tree, err := s.store.ActiveTree(ctx, householdID)
	if err != nil {
		return Tree{}, fmt.Errorf("load categories: %w", err)
	}
	return tree, nil
}

// Snapshot loads the category tree and the mapping cache concurrently.
func (s *Service) Snapshot(ctx context.Context, householdID uuid.UUID) (*Snapshot, error) {
	var (
		tree     Tree
		mappings []Mapping
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.store.ActiveTree(gctx, householdID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		tree = t
		return nil
	})
	g.Go(func() error {
		m, err := s.store.RecentMappings(gctx, householdID, s.lookback)
		if err != nil {
			return fmt.Errorf("load mappings: %w", err)
		}
		mappings = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cache := NewMappingCache(mappings)
	s.logger.Debug("category snapshot loaded",
		slog.String("household_id", householdID.String()),
		slog.Int("categories", tree.Len()),
		slog.Int("mappings", cache.Len()),
	)
	return &Snapshot{Tree: tree, Mappings: cache}, nil
}
