package categorization

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/household-budget/internal/domain/common"
	"github.com/FACorreiaa/household-budget/pkg/db"
)

// Repository handles database reads for categories and learned mappings
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new categorization repository
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// ActiveCategories fetches the household's active categories plus the global
// defaults, parents before children.
func (r *Repository) ActiveCategories(ctx context.Context, householdID uuid.UUID) ([]Category, error) {
	query := `
		SELECT id, parent_id, name, type
		FROM categories
		WHERE is_active AND (household_id = $1 OR household_id IS NULL)
		ORDER BY (parent_id IS NOT NULL), sort_order, name
	`

	rows, err := r.db.Query(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var (
			c       Category
			txnType string
		)
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &txnType); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = common.TransactionType(txnType)
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// ActiveTree is ActiveCategories arranged as a Tree.
func (r *Repository) ActiveTree(ctx context.Context, householdID uuid.UUID) (Tree, error) {
	flat, err := r.ActiveCategories(ctx, householdID)
	if err != nil {
		return Tree{}, err
	}
	return NewTree(flat), nil
}

// RecentMappings projects the household's transaction history into
// description -> category mappings: the latest categorized transaction per
// distinct source description, newest first, bounded by limit.
func (r *Repository) RecentMappings(ctx context.Context, householdID uuid.UUID, limit int) ([]Mapping, error) {
	query := `
		SELECT description, category_id, parent_id, category_name
		FROM (
			SELECT DISTINCT ON (t.source_description)
				t.source_description AS description,
				t.category_id,
				c.parent_id,
				c.name AS category_name,
				t.created_at
			FROM transactions t
			JOIN categories c ON c.id = t.category_id
			WHERE t.household_id = $1
				AND t.source_description IS NOT NULL
				AND t.source_description <> ''
			ORDER BY t.source_description, t.created_at DESC
		) latest
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.Description, &m.CategoryID, &m.ParentCategoryID, &m.CategoryName); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}
