package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/config"
	"github.com/verlofplanner/verlof/internal/database"
	"github.com/verlofplanner/verlof/pkg/storage"
)

// OpenRepository opens and migrates the configured state store. The returned function
// releases it.
func OpenRepository(cfg config.Application) (storage.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite, "":
		db, err := database.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateSQLite(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Infof("using SQLite state store at %s", cfg.Storage.Path)
		return storage.NewRepository(db), func() { _ = db.Close() }, nil

	case config.StoragePostgres:
		if err := database.Migrate(cfg.Database); err != nil {
			return nil, nil, err
		}
		pool, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("using PostgreSQL state store at %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
		return storage.NewPgRepository(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
