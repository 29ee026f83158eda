package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestShutdownRunsEveryStep(t *testing.T) {
	var order []string
	step := func(name string, err error) Step {
		return Step{Name: name, Stop: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Fatalf("%s: expected a deadline", name)
			}
			order = append(order, name)
			return err
		}}
	}

	failed := Shutdown(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second,
		step("http", nil),
		step("grpc", errors.New("already closed")),
		Step{Name: "skipped"},
		step("otel", nil),
	)
	if failed != 1 {
		t.Fatalf("expected 1 failure, got %d", failed)
	}
	if len(order) != 3 || order[0] != "http" || order[2] != "otel" {
		t.Fatalf("unexpected order %v", order)
	}
}
