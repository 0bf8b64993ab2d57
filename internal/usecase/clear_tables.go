package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
	ucextract "github.com/streakerapp/supacheck/internal/usecase/extract"
)

// ClearTables wipes every row from the configured tables using the service key.
type ClearTables struct {
	tables ports.TableGateway
	log    *slog.Logger
}

func NewClearTables(tables ports.TableGateway, log *slog.Logger) *ClearTables {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &ClearTables{tables: tables, log: log}
}

// Execute refuses to run unless confirmed. Tables are cleared in order so
// children go before the rows they reference; one failing table does not
// stop the rest.
func (uc *ClearTables) Execute(ctx context.Context, tables []string, confirmed bool) ([]domain.TableClearResult, error) {
	if !confirmed {
		return nil, &domain.OpError{
			Op:   "clear.confirm",
			Kind: domain.KindInvalidConfig,
			Err:  domain.ErrNotConfirmed,
		}
	}
	if len(tables) == 0 {
		return nil, &domain.OpError{
			Op:   "clear.validate",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("%w: no tables configured", domain.ErrInvalidConfig),
		}
	}

	out := make([]domain.TableClearResult, 0, len(tables))
	for _, t := range tables {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if ctx.Err() != nil {
			out = append(out, domain.TableClearResult{
				Table:   t,
				Message: "canceled",
				Error:   domain.NewRunError(ctx.Err()),
			})
			continue
		}
		out = append(out, uc.clearOne(ctx, t))
	}
	return out, nil
}

func (uc *ClearTables) clearOne(ctx context.Context, table string) domain.TableClearResult {
	res := domain.TableClearResult{Table: table}

	resp, err := uc.tables.DeleteAll(ctx, table)
	res.StatusCode = resp.StatusCode
	if err != nil {
		res.Error = domain.NewRunError(err)
		res.Message = err.Error()
		uc.log.Warn("clear.table.error", "table", table, "err", err)
		return res
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Message = ucextract.Message(resp.Body)
		uc.log.Warn("clear.table.rejected", "table", table, "status", resp.StatusCode, "message", res.Message)
		return res
	}
	res.Cleared = true

	n, cresp, err := uc.tables.Count(ctx, table)
	switch {
	case err != nil:
		res.Message = "cleared; count failed: " + err.Error()
	case cresp.StatusCode < 200 || cresp.StatusCode > 299:
		res.Message = fmt.Sprintf("cleared; count returned status %d", cresp.StatusCode)
	default:
		res.Remaining = &n
		res.Message = fmt.Sprintf("cleared, %d rows remaining", n)
	}

	uc.log.Info("clear.table.done", "table", table, "message", res.Message)
	return res
}
