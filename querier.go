package analyst

import "context"

// Querier executes a SQL statement against the warehouse connection and
// returns the result as a display-ready table. Errors cover both
// infrastructure failures and statement failures; callers surface them as
// error notes on the turn.
type Querier interface {
	Query(ctx context.Context, statement string) (TableBlock, error)
}
