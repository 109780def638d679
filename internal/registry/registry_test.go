package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-dynapi/internal/registry"
)

func newDefinition(name string) *registry.Definition {
	return &registry.Definition{
		Name:    name,
		Schema:  map[string]any{"type": "object"},
		Options: registry.DefaultOptions(20),
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := registry.New(10)

	if err := reg.Register(newDefinition("products")); err != nil {
		t.Fatalf("register products: %v", err)
	}

	def, err := reg.Get("products")
	if err != nil {
		t.Fatalf("get products: %v", err)
	}
	if def.Name != "products" {
		t.Fatalf("expected products, got %q", def.Name)
	}
	if !reg.Has("products") {
		t.Fatal("expected Has to report products")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", reg.Len())
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	reg := registry.New(10)

	if err := reg.Register(newDefinition("orders")); err != nil {
		t.Fatalf("first register: %v", err)
	}

	err := reg.Register(newDefinition("orders"))
	if !errors.Is(err, registry.ErrAPIExists) {
		t.Fatalf("expected ErrAPIExists, got %v", err)
	}

	var conflict *registry.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %T", err)
	}
	if conflict.Name != "orders" {
		t.Fatalf("expected conflict on orders, got %q", conflict.Name)
	}
}

func TestRegistryCapacity(t *testing.T) {
	reg := registry.New(2)

	if err := reg.Register(newDefinition("a")); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := reg.Register(newDefinition("b")); err != nil {
		t.Fatalf("register b: %v", err)
	}

	err := reg.Register(newDefinition("c"))
	if !errors.Is(err, registry.ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("capacity breach: %d entries", reg.Len())
	}
}

func TestRegistryListSorted(t *testing.T) {
	reg := registry.New(10)
	for _, name := range []string{"zebra", "alpha", "middle"} {
		if err := reg.Register(newDefinition(name)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	defs := reg.List()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	want := []string{"alpha", "middle", "zebra"}
	for i, name := range want {
		if defs[i].Name != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, defs[i].Name)
		}
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := registry.New(10)
	if err := reg.Register(newDefinition("items")); err != nil {
		t.Fatalf("register items: %v", err)
	}

	def, err := reg.Unregister("items")
	if err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if def.Name != "items" {
		t.Fatalf("expected items, got %q", def.Name)
	}
	if reg.Has("items") {
		t.Fatal("expected items to be gone")
	}

	if _, err := reg.Unregister("items"); !errors.Is(err, registry.ErrAPINotFound) {
		t.Fatalf("expected ErrAPINotFound, got %v", err)
	}
}

func TestRegistryReserveCommitRelease(t *testing.T) {
	reg := registry.New(10)

	if err := reg.Reserve("pending"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// reservations block other claims but stay invisible to lookups
	if err := reg.Reserve("pending"); !errors.Is(err, registry.ErrAPIExists) {
		t.Fatalf("expected ErrAPIExists on double reserve, got %v", err)
	}
	if reg.Has("pending") {
		t.Fatal("reservation must not be visible")
	}
	if _, err := reg.Get("pending"); !errors.Is(err, registry.ErrAPINotFound) {
		t.Fatalf("expected ErrAPINotFound during reservation, got %v", err)
	}
	if defs := reg.List(); len(defs) != 0 {
		t.Fatalf("expected empty list during reservation, got %d", len(defs))
	}

	if err := reg.Commit(newDefinition("pending")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !reg.Has("pending") {
		t.Fatal("expected committed definition to be visible")
	}

	if err := reg.Reserve("aborted"); err != nil {
		t.Fatalf("reserve aborted: %v", err)
	}
	reg.Release("aborted")
	if err := reg.Reserve("aborted"); err != nil {
		t.Fatalf("expected name to be claimable after release, got %v", err)
	}

	// Release never drops a committed definition
	reg.Release("pending")
	if !reg.Has("pending") {
		t.Fatal("release must not remove committed definitions")
	}
}

func TestRegistryCommitWithoutReservation(t *testing.T) {
	reg := registry.New(10)

	if err := reg.Commit(newDefinition("ghost")); !errors.Is(err, registry.ErrAPINotFound) {
		t.Fatalf("expected ErrAPINotFound, got %v", err)
	}
}

func TestRegistryReserveConsumesCapacity(t *testing.T) {
	reg := registry.New(1)

	if err := reg.Reserve("only"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := reg.Register(newDefinition("other")); !errors.Is(err, registry.ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}
}

func TestRegistryConcurrentRegisterSingleWinner(t *testing.T) {
	reg := registry.New(50)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := reg.Register(newDefinition("contested"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, registry.ErrAPIExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful register, got %d", successes)
	}
	if conflicts != workers-1 {
		t.Fatalf("expected %d conflicts, got %d", workers-1, conflicts)
	}
}

func TestMemoryDefinitionRepository(t *testing.T) {
	ctx := context.Background()
	repo := registry.NewMemoryDefinitionRepository()

	created, err := repo.Create(ctx, newDefinition("products"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected assigned ID")
	}

	if _, err := repo.Create(ctx, newDefinition("products")); !errors.Is(err, registry.ErrAPIExists) {
		t.Fatalf("expected ErrAPIExists, got %v", err)
	}

	got, err := repo.GetByName(ctx, "products")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, got.ID)
	}

	defs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}

	if err := repo.Delete(ctx, created); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByName(ctx, "products"); !errors.Is(err, registry.ErrAPINotFound) {
		t.Fatalf("expected ErrAPINotFound after delete, got %v", err)
	}
}
