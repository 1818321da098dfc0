package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lodastack/log"

	"github.com/lodastack/meterboard/model"
)

const (
	selectObject = `SELECT objectid, COALESCE(name, ''), meter, report
FROM objects WHERE objectid = $1`

	selectSettings = `SELECT category, key_name, value
FROM settings WHERE category = $1 ORDER BY id`
)

// querier is the part of *pgxpool.Pool the source uses.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads the objects and settings tables.
type Postgres struct {
	db     querier
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres connects a pool to dsn and checks it with a ping.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to initialize pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	p := newPostgres(pool)
	p.pool = pool
	p.logger.Infof("connected to postgres, max conns %d", poolConfig.MaxConns)
	return p, nil
}

func newPostgres(db querier) *Postgres {
	return &Postgres{db: db, logger: log.New("INFO", "source", model.LogBackend)}
}

func (p *Postgres) Object(ctx context.Context, objectID int64) (model.Object, error) {
	var (
		o             model.Object
		meter, report []byte
	)
	err := p.db.QueryRow(ctx, selectObject, objectID).Scan(&o.ObjectID, &o.Name, &meter, &report)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Object{}, objectNotFound(objectID)
	}
	if err != nil {
		return model.Object{}, fmt.Errorf("query object %d: %w", objectID, err)
	}
	if len(meter) > 0 {
		if err := json.Unmarshal(meter, &o.Meter); err != nil {
			return model.Object{}, fmt.Errorf("meter of object %d: %w", objectID, err)
		}
	}
	if len(report) > 0 {
		// a broken report only disables the explicit layout
		if err := json.Unmarshal(report, &o.Report); err != nil {
			p.logger.Errorf("ignore report of object %d: %s", objectID, err.Error())
			o.Report = nil
		}
	}
	return o, nil
}

func (p *Postgres) Settings(ctx context.Context, category string) ([]model.Setting, error) {
	rows, err := p.db.Query(ctx, selectSettings, category)
	if err != nil {
		return nil, fmt.Errorf("query settings %s: %w", category, err)
	}
	defer rows.Close()

	settings := []model.Setting{}
	for rows.Next() {
		var (
			s     model.Setting
			value []byte
		)
		if err := rows.Scan(&s.Category, &s.KeyName, &value); err != nil {
			return nil, err
		}
		s.Value = value
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
