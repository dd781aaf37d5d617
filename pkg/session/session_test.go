package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/pkg/apperror"
)

func TestContext_FollowsProvider(t *testing.T) {
	var b Broadcaster
	ctx := New(&b)

	if _, loading := ctx.Current(); !loading {
		t.Fatal("context should be loading before Init")
	}

	ctx.Init()
	id, loading := ctx.Current()
	if id != nil || loading {
		t.Fatalf("after Init with nobody signed in: id=%v loading=%v", id, loading)
	}
	if _, err := ctx.Require(); !errors.Is(err, apperror.ErrSignedOut) {
		t.Fatalf("Require = %v, want ErrSignedOut", err)
	}

	owner := &Identity{UserID: uuid.New(), Email: "a@example.com", StoreName: "Shop"}
	b.Publish(owner)
	got, err := ctx.Require()
	if err != nil || got.UserID != owner.UserID {
		t.Fatalf("Require = %+v, %v", got, err)
	}

	b.Publish(nil)
	if id, _ := ctx.Current(); id != nil {
		t.Fatal("sign-out not observed")
	}
}

func TestContext_CloseUnsubscribes(t *testing.T) {
	var b Broadcaster
	ctx := New(&b)
	ctx.Init()
	ctx.Init()
	if b.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", b.Subscribers())
	}

	ctx.Close()
	if b.Subscribers() != 0 {
		t.Fatal("Close did not unsubscribe")
	}
	b.Publish(&Identity{UserID: uuid.New()})
	if id, _ := ctx.Current(); id != nil {
		t.Fatal("closed context still receives events")
	}

	// Restartable.
	ctx.Init()
	if id, _ := ctx.Current(); id == nil {
		t.Fatal("re-initialised context missed the current identity")
	}
}

func TestStatic(t *testing.T) {
	owner := &Identity{UserID: uuid.New()}
	ctx := New(Static{Identity: owner})
	ctx.Init()
	defer ctx.Close()

	got, err := ctx.Require()
	if err != nil || got.UserID != owner.UserID {
		t.Fatalf("Require = %+v, %v", got, err)
	}
	got.Email = "changed"
	again, _ := ctx.Require()
	if again.Email == "changed" {
		t.Fatal("Require leaked internal state")
	}
}
