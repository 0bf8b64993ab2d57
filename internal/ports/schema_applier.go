package ports

import "context"

// SchemaApplier executes DDL statements against the backing database.
type SchemaApplier interface {
	Apply(ctx context.Context, statements []string) error
}
