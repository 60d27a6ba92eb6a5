package layout

import (
	"context"
	"fmt"

	"github.com/vaultgraph/vaultgraph/internal/db"
)

// Store persists the position map so a daemon restart does not trigger a
// full relayout of the vault.
type Store struct {
	db *db.DB
}

// NewStore creates a position store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Load returns every persisted node position.
func (s *Store) Load(ctx context.Context) (PositionMap, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id, x, y, z FROM node_positions`)
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}
	defer rows.Close()

	positions := make(PositionMap)
	for rows.Next() {
		var id string
		var pos Position
		if err := rows.Scan(&id, &pos.X, &pos.Y, &pos.Z); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		positions[id] = pos
	}
	return positions, rows.Err()
}

// Save upserts the given positions and removes rows for nodes the map no
// longer contains, inside one transaction.
func (s *Store) Save(ctx context.Context, positions PositionMap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning position save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM node_positions`); err != nil {
		return fmt.Errorf("clearing positions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO node_positions (node_id, x, y, z) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing position insert: %w", err)
	}
	defer stmt.Close()

	for id, pos := range positions {
		if _, err := stmt.ExecContext(ctx, id, pos.X, pos.Y, pos.Z); err != nil {
			return fmt.Errorf("inserting position for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing positions: %w", err)
	}
	return nil
}
