// Package source loads object records and settings rows from the
// configured backend.
package source

import (
	"context"
	"fmt"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/model"
)

const (
	KindBolt     = "bolt"
	KindPostgres = "postgres"
	KindHTTP     = "http"
)

// Source is a read-only view of objects and settings.
type Source interface {
	// Object returns the record of objectID or an error wrapping
	// common.ErrObjectNotFound.
	Object(ctx context.Context, objectID int64) (model.Object, error)
	// Settings returns every settings row of a category. No rows is not
	// an error.
	Settings(ctx context.Context, category string) ([]model.Setting, error)
	Close() error
}

// Writer is implemented by sources that accept upserts.
type Writer interface {
	PutObject(ctx context.Context, o model.Object) error
	PutSetting(ctx context.Context, s model.Setting) error
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	// Dir is the bolt directory.
	Dir string
	// DSN is the postgres connection string.
	DSN      string
	MaxConns int32
	// Remote is the base URL of the object API.
	Remote  string
	Timeout int
}

// New opens the backend named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Source, error) {
	switch cfg.Kind {
	case KindBolt, "":
		return NewBolt(cfg.Dir)
	case KindPostgres:
		return NewPostgres(ctx, cfg.DSN, cfg.MaxConns)
	case KindHTTP:
		return NewRemote(cfg.Remote, cfg.Timeout)
	}
	return nil, fmt.Errorf("%q: %w", cfg.Kind, common.ErrSourceKind)
}

func objectNotFound(objectID int64) error {
	return fmt.Errorf("object %d: %w", objectID, common.ErrObjectNotFound)
}
