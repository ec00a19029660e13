package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/poll"
)

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing history repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, record *poll.StateRecord) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := json.Marshal(record.State)
	if err != nil {
		return errFactory.Wrap(ErrInvalidRecord, err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO observations (
            site_id, timestamp, mode, soe, grid_status, payload
        ) VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(site_id, timestamp) DO UPDATE SET
            mode = excluded.mode,
            soe = excluded.soe,
            grid_status = excluded.grid_status,
            payload = excluded.payload
    `,
		record.SiteID,
		record.Timestamp.Unix(),
		record.Mode.String(),
		extractSOE(record.State),
		extractGridStatus(record.State),
		string(payload),
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

// extractSOE pulls the state-of-energy percentage out of the snapshot
// when the transport reports one. The column is indexable convenience;
// the full payload is kept regardless.
func extractSOE(state map[string]interface{}) sql.NullFloat64 {
	for _, key := range []string{"soe", "percentage", "percentage_charged"} {
		if v, ok := state[key].(float64); ok {
			return sql.NullFloat64{Float64: v, Valid: true}
		}
	}

	return sql.NullFloat64{}
}

func extractGridStatus(state map[string]interface{}) sql.NullString {
	for _, key := range []string{"grid_status", "island_status"} {
		if v, ok := state[key].(string); ok {
			return sql.NullString{String: v, Valid: true}
		}
	}

	return sql.NullString{}
}
