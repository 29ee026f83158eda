package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/fait-coop/scheduling/libs/db"
)

const (
	ColumnServiceAgentID = "service_agent_id"
	ColumnContractorID   = "contractor_id"
)

// ProviderColumn names the bookings column that references the provider.
// Older databases still carry contractor_id; newer ones use service_agent_id.
// Only whitelisted identifiers are ever returned, so the result is safe to
// interpolate into SQL.
type ProviderColumn struct {
	probe func(ctx context.Context) ([]string, error)

	mu   sync.Mutex
	name string
}

// NewProviderColumn pins the column when override is set, otherwise the
// column is probed from information_schema on first use.
func NewProviderColumn(pool *db.Pool, override string) (*ProviderColumn, error) {
	c := &ProviderColumn{probe: bookingColumnsProbe(pool)}
	if override != "" {
		if !slices.Contains([]string{ColumnServiceAgentID, ColumnContractorID}, override) {
			return nil, fmt.Errorf("unsupported bookings provider column %q", override)
		}
		c.name = override
	}
	return c, nil
}

// Resolve returns the column name. A successful probe is cached for the life
// of the process; a failed one is retried on the next call.
func (c *ProviderColumn) Resolve(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.name != "" {
		return c.name, nil
	}

	cols, err := c.probe(ctx)
	if err != nil {
		return "", fmt.Errorf("probe bookings columns: %w", err)
	}
	name, err := pickProviderColumn(cols)
	if err != nil {
		return "", err
	}
	c.name = name
	return name, nil
}

func pickProviderColumn(columns []string) (string, error) {
	switch {
	case slices.Contains(columns, ColumnServiceAgentID):
		return ColumnServiceAgentID, nil
	case slices.Contains(columns, ColumnContractorID):
		return ColumnContractorID, nil
	}
	return "", fmt.Errorf("bookings table has neither %s nor %s", ColumnServiceAgentID, ColumnContractorID)
}

func bookingColumnsProbe(pool *db.Pool) func(ctx context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		rows, err := pool.Query(ctx, `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema()
				AND table_name = 'bookings'
				AND column_name = ANY($1)
		`, []string{ColumnServiceAgentID, ColumnContractorID})
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var cols []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			cols = append(cols, name)
		}
		if rows.Err() != nil {
			return nil, rows.Err()
		}
		return cols, nil
	}
}
