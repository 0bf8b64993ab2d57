package pgschema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

// Applier runs DDL inside a single transaction.
type Applier struct {
	dsn         string
	pingTimeout time.Duration
	open        func(driver, dsn string) (*sql.DB, error)
}

var _ ports.SchemaApplier = (*Applier)(nil)

func NewApplier(dsn string) *Applier {
	return &Applier{
		dsn:         dsn,
		pingTimeout: 10 * time.Second,
		open:        sql.Open,
	}
}

func (a *Applier) Apply(ctx context.Context, statements []string) error {
	if strings.TrimSpace(a.dsn) == "" {
		return &domain.OpError{
			Op:   "pgschema.apply",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("%w: database url is required", domain.ErrMissingCredentials),
		}
	}

	db, err := a.open("postgres", a.dsn)
	if err != nil {
		return execErr("pgschema.open", err)
	}
	defer db.Close()

	pctx, cancel := context.WithTimeout(ctx, a.pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		return execErr("pgschema.ping", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return execErr("pgschema.begin", err)
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return execErr("pgschema.exec", fmt.Errorf("statement %d: %w", i+1, describe(err)))
		}
	}

	if err := tx.Commit(); err != nil {
		return execErr("pgschema.commit", err)
	}
	return nil
}

// describe adds the SQLSTATE to server errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (%s): %w", pqErr.Message, pqErr.Code, err)
	}
	return err
}

func execErr(op string, err error) error {
	return &domain.OpError{
		Op:   op,
		Kind: domain.KindExecution,
		Err:  fmt.Errorf("%w: %v", domain.ErrExecution, err),
	}
}
