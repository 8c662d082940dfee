// Package store opens the document source a job reads from.
package store

import (
	"fmt"

	"github.com/dbsmedya/docschema/internal/config"
	"github.com/dbsmedya/docschema/internal/database"
	"github.com/dbsmedya/docschema/internal/logger"
	"github.com/dbsmedya/docschema/internal/schema"
	"github.com/dbsmedya/docschema/internal/store/filestore"
	"github.com/dbsmedya/docschema/internal/store/mongostore"
	"github.com/dbsmedya/docschema/internal/store/mysqlstore"
)

// Open returns the source for job. mgr must already be connected for the
// mongodb and mysql drivers.
func Open(cfg *config.Config, mgr *database.Manager, job *config.JobConfig, batchSize int, log *logger.Logger) (schema.DocumentSource, error) {
	switch cfg.Source.Driver {
	case config.DriverMongoDB:
		if mgr == nil || mgr.Mongo == nil {
			return nil, fmt.Errorf("mongodb source is not connected")
		}
		return mongostore.New(mgr.Mongo.Database(cfg.Source.Database), job.Collection, batchSize), nil
	case config.DriverMySQL:
		if mgr == nil || mgr.SQL == nil {
			return nil, fmt.Errorf("mysql source is not connected")
		}
		return mysqlstore.New(mgr.SQL, job.Collection, job.DocumentColumn, log)
	case config.DriverFile:
		return filestore.New(cfg.Source.Path, job.Collection)
	}
	return nil, fmt.Errorf("unsupported source driver %q", cfg.Source.Driver)
}
