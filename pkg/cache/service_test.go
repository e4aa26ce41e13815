package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cityFixture struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestService(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client), mr
}

func TestGetMissAndSet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var got cityFixture
	if err := svc.Get(ctx, "busline:cities:1", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := svc.Set(ctx, "busline:cities:1", cityFixture{ID: "1", Name: "Abidjan"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := svc.Get(ctx, "busline:cities:1", &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Abidjan" {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestGetOrSetCallsFetchOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cityFixture{ID: "2", Name: "Bouake"}, nil
	}

	for i := 0; i < 3; i++ {
		var got cityFixture
		if err := svc.GetOrSet(ctx, "busline:cities:2", time.Minute, &got, fetch); err != nil {
			t.Fatal(err)
		}
		if got.Name != "Bouake" {
			t.Fatalf("unexpected value %+v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
}

func TestGetOrSetPropagatesFetchError(t *testing.T) {
	svc, _ := newTestService(t)
	boom := errors.New("db down")

	var got cityFixture
	err := svc.GetOrSet(context.Background(), "k", time.Minute, &got, func() (interface{}, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestDeletePattern(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	for _, k := range []string{"busline:routes:graph:a", "busline:routes:graph:b", "busline:companies:x"} {
		if err := svc.Set(ctx, k, 1, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.DeletePattern(ctx, "busline:routes:*"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("busline:routes:graph:a") || mr.Exists("busline:routes:graph:b") {
		t.Fatal("route keys should be gone")
	}
	if !mr.Exists("busline:companies:x") {
		t.Fatal("company key should survive")
	}
}

func TestNoopAlwaysFetches(t *testing.T) {
	svc := NewNoop()
	calls := 0
	for i := 0; i < 2; i++ {
		var got cityFixture
		err := svc.GetOrSet(context.Background(), "k", time.Minute, &got, func() (interface{}, error) {
			calls++
			return cityFixture{Name: "Yamoussoukro"}, nil
		})
		if err != nil || got.Name != "Yamoussoukro" {
			t.Fatalf("unexpected result %+v %v", got, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected two fetches, got %d", calls)
	}
}
