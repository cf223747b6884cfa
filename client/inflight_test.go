package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestIdentityKeyExcludesQuery(t *testing.T) {
	a := identityKey(http.MethodGet, "/tasks/")
	b := identityKey(http.MethodGet, "/tasks/")
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	if a == identityKey(http.MethodPost, "/tasks/") {
		t.Error("method must be part of the identity")
	}
	if a == identityKey(http.MethodGet, "/tasks/1") {
		t.Error("path must be part of the identity")
	}
}

func TestRegisterSupersedesPrior(t *testing.T) {
	r := newInflightRegistry()
	key := identityKey(http.MethodGet, "/tasks/")

	ctx1, release1 := r.register(context.Background(), key)
	ctx2, release2 := r.register(context.Background(), key)
	defer release2()

	select {
	case <-ctx1.Done():
	default:
		t.Fatal("first context not cancelled after supersede")
	}
	if cause := context.Cause(ctx1); !errors.Is(cause, errSuperseded) {
		t.Errorf("cause = %v, want errSuperseded", cause)
	}
	if ctx2.Err() != nil {
		t.Error("second context must remain live")
	}

	// The superseded call's release must not evict the newer entry.
	release1()
	r.cancel(key)
	select {
	case <-ctx2.Done():
	default:
		t.Error("cancel(key) did not reach the current entry")
	}
}

func TestRegisterDistinctKeysIndependent(t *testing.T) {
	r := newInflightRegistry()

	ctx1, release1 := r.register(context.Background(), identityKey(http.MethodGet, "/tasks/"))
	defer release1()
	ctx2, release2 := r.register(context.Background(), identityKey(http.MethodGet, "/tasks/7"))
	defer release2()

	if ctx1.Err() != nil || ctx2.Err() != nil {
		t.Error("distinct identities must not cancel each other")
	}
}

func TestCancelAll(t *testing.T) {
	r := newInflightRegistry()
	ctx1, _ := r.register(context.Background(), "GET /tasks/")
	ctx2, _ := r.register(context.Background(), "POST /tasks/")

	r.cancelAll()
	if ctx1.Err() == nil || ctx2.Err() == nil {
		t.Error("cancelAll left a live context")
	}
}

func TestCancelUnknownKeyIsNoop(t *testing.T) {
	r := newInflightRegistry()
	r.cancel("GET /nowhere")
}
