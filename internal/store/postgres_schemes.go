package store

import (
	"context"
	"database/sql"
	"fmt"

	"agrichat/internal/common/errors"
	"agrichat/internal/models"
)

// allIndia marks schemes that apply in every state.
const allIndia = "All India"

// PostgresSchemeCatalog reads the government scheme catalog.
type PostgresSchemeCatalog struct {
	db *sql.DB
}

func NewPostgresSchemeCatalog(db *sql.DB) *PostgresSchemeCatalog {
	return &PostgresSchemeCatalog{db: db}
}

// FindByState returns up to limit schemes for the given state, including
// nation-wide schemes.
func (c *PostgresSchemeCatalog) FindByState(ctx context.Context, state string, activeOnly bool, limit int) ([]models.Scheme, error) {
	query := `
		SELECT id, title, state, category, is_active
		FROM schemes
		WHERE (state = $1 OR state = $2)`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += `
		ORDER BY title
		LIMIT $3`

	rows, err := c.db.QueryContext(ctx, query, state, allIndia, limit)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewCatalogTimeoutError("schemes")
		}
		return nil, errors.NewCatalogQueryError("schemes", err)
	}
	defer rows.Close()

	var schemes []models.Scheme
	for rows.Next() {
		var scheme models.Scheme
		var category sql.NullString
		if err := rows.Scan(&scheme.ID, &scheme.Title, &scheme.State, &category, &scheme.IsActive); err != nil {
			return nil, errors.NewCatalogQueryError("schemes", fmt.Errorf("scan scheme row: %w", err))
		}
		scheme.Category = category.String
		schemes = append(schemes, scheme)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogQueryError("schemes", err)
	}
	return schemes, nil
}
