package history

import (
	"database/sql"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
)

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS observations (
            site_id TEXT NOT NULL,
            timestamp INTEGER NOT NULL,
            mode TEXT,
            soe REAL,
            grid_status TEXT,
            payload TEXT,
            PRIMARY KEY (site_id, timestamp)
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrStorageInit, err)
	}

	return nil
}
