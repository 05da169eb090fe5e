package store

import (
	"context"
	"database/sql"
	"fmt"

	"agrichat/internal/common/errors"
	"agrichat/internal/models"

	"github.com/lib/pq"
)

// PostgresCropCatalog reads the platform's crop catalog. The dialogue engine
// only ever queries it; writes belong to the CRUD API outside this service.
type PostgresCropCatalog struct {
	db *sql.DB
}

func NewPostgresCropCatalog(db *sql.DB) *PostgresCropCatalog {
	return &PostgresCropCatalog{db: db}
}

// FindBySoilType returns up to limit crops whose soil_types include soilType.
func (c *PostgresCropCatalog) FindBySoilType(ctx context.Context, soilType string, activeOnly bool, limit int) ([]models.Crop, error) {
	query := `
		SELECT id, name, soil_types, season, is_active
		FROM crops
		WHERE $1 = ANY(soil_types)`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += `
		ORDER BY name
		LIMIT $2`

	rows, err := c.db.QueryContext(ctx, query, soilType, limit)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewCatalogTimeoutError("crops")
		}
		return nil, errors.NewCatalogQueryError("crops", err)
	}
	defer rows.Close()

	var crops []models.Crop
	for rows.Next() {
		var crop models.Crop
		var season sql.NullString
		if err := rows.Scan(&crop.ID, &crop.Name, pq.Array(&crop.SoilTypes), &season, &crop.IsActive); err != nil {
			return nil, errors.NewCatalogQueryError("crops", fmt.Errorf("scan crop row: %w", err))
		}
		crop.Season = season.String
		crops = append(crops, crop)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogQueryError("crops", err)
	}
	return crops, nil
}
