package health

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestStatusWithoutDatabase(t *testing.T) {
	got := NewService(nil).Status(context.Background())
	if !got.OK || got.Storage != "memory" {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestStatusReportsUnreachableDatabase(t *testing.T) {
	svc := NewService(pingFunc(func(context.Context) error { return errors.New("connection refused") }))
	got := svc.Status(context.Background())
	if got.OK || got.Database != "unreachable" {
		t.Fatalf("unexpected report: %+v", got)
	}

	svc = NewService(pingFunc(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("expected ping deadline")
		}
		return nil
	}))
	if got := svc.Status(context.Background()); !got.OK || got.Database != "ok" {
		t.Fatalf("unexpected report: %+v", got)
	}
}
