package locations

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"weather-risk-service/internal/models"
)

const suggestLimit = 10

// AreaStore answers area-name autocomplete queries from an embedded SQLite
// table.
type AreaStore struct {
	db *sql.DB
}

// OpenAreaStore opens (or creates) the area database at path.
func OpenAreaStore(path string) (*AreaStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening area database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS areas (
			area_name     TEXT NOT NULL,
			district_name TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing area table: %w", err)
	}

	return &AreaStore{db: db}, nil
}

// Suggest returns up to ten areas whose name starts with prefix.
func (s *AreaStore) Suggest(ctx context.Context, prefix string) ([]models.AreaSuggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT area_name, district_name
		FROM areas
		WHERE area_name LIKE ?
		LIMIT ?`, prefix+"%", suggestLimit)
	if err != nil {
		return nil, fmt.Errorf("querying area suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]models.AreaSuggestion, 0, suggestLimit)
	for rows.Next() {
		var s models.AreaSuggestion
		if err := rows.Scan(&s.AreaName, &s.DistrictName); err != nil {
			return nil, fmt.Errorf("scanning area suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	return suggestions, rows.Err()
}

// Add inserts one area row. Used by seeding tools and tests.
func (s *AreaStore) Add(ctx context.Context, area, district string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO areas (area_name, district_name) VALUES (?, ?)`, area, district)
	return err
}

func (s *AreaStore) Close() error {
	return s.db.Close()
}
