package postgres

import (
	"context"

	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/types"
)

var (
	_ store.DriverStore = (*DirectoryStore)(nil)
	_ store.CenterStore = (*DirectoryStore)(nil)
)

// DirectoryStore reads drivers and centers.
type DirectoryStore struct {
	db DBTX
}

func NewDirectoryStore(db DBTX) *DirectoryStore {
	return &DirectoryStore{db: db}
}

// GetDriver retrieves a driver by id.
func (s *DirectoryStore) GetDriver(ctx context.Context, id string) (*types.Driver, error) {
	query := `
		SELECT id, name, phone, email, is_active
		FROM drivers
		WHERE id = $1`

	d := &types.Driver{}
	err := s.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Phone, &d.Email, &d.IsActive)
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// GetCenter retrieves a loading center by id.
func (s *DirectoryStore) GetCenter(ctx context.Context, id string) (*types.Center, error) {
	query := `SELECT id, name FROM centers WHERE id = $1`

	c := &types.Center{}
	if err := s.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name); err != nil {
		return nil, mapError(err)
	}
	return c, nil
}
