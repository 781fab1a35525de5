package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSetBaseContext_NilResetsToBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	cancel()
	// nolint:staticcheck // SA1012: nil is the documented reset value
	SetBaseContext(nil)
	if serverBaseCtx.Err() != nil {
		t.Fatalf("base context should be Background after reset, err=%v", serverBaseCtx.Err())
	}
}

func TestJoinContexts_CancelsWhenEitherDone(t *testing.T) {
	for _, which := range []string{"a", "b"} {
		t.Run(which, func(t *testing.T) {
			a, ac := context.WithCancel(context.Background())
			defer ac()
			b, bc := context.WithCancel(context.Background())
			defer bc()
			j, cancelJ := joinContexts(a, b)
			defer cancelJ()
			if which == "a" {
				ac()
			} else {
				bc()
			}
			select {
			case <-j.Done():
				if !errors.Is(j.Err(), context.Canceled) {
					t.Fatalf("err=%v", j.Err())
				}
			case <-time.After(500 * time.Millisecond):
				t.Fatalf("joined context not canceled when %s was canceled", which)
			}
		})
	}
}

func TestJoinContexts_CancelFuncReleases(t *testing.T) {
	j, cancelJ := joinContexts(context.Background(), context.Background())
	cancelJ()
	select {
	case <-j.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("cancel func did not cancel joined context")
	}
}
