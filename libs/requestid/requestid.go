// Package requestid carries a per-request correlation id across HTTP, gRPC
// and log lines.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

const (
	Header      = "X-Request-Id"
	MetadataKey = "x-request-id"

	maxLen = 128
)

type ctxKey struct{}

func New() string {
	return uuid.NewString()
}

// Ensure returns id when a caller-supplied value is usable, else a fresh id.
// Ids are echoed into headers and logs, so only short printable ASCII is kept.
func Ensure(id string) string {
	if id == "" || len(id) > maxLen {
		return New()
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return New()
		}
	}
	return id
}

func NewContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}
