package apis_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-dynapi/internal/apis"
	"github.com/goliatone/go-dynapi/internal/registry"
	"github.com/goliatone/go-dynapi/internal/schema"
	"github.com/goliatone/go-dynapi/internal/storage"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:apis_%s?mode=memory&cache=shared&_fk=1", t.Name()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type testEnv struct {
	db       *bun.DB
	registry *registry.Registry
	prov     *storage.Provisioner
	repo     *registry.MemoryDefinitionRepository
	service  apis.Service
}

func newTestEnv(t *testing.T, opts ...apis.ServiceOption) *testEnv {
	t.Helper()

	db := newTestDB(t)
	reg := registry.New(50)
	prov := storage.NewProvisioner(db)
	repo := registry.NewMemoryDefinitionRepository()

	base := []apis.ServiceOption{apis.WithRepository(repo)}
	svc := apis.NewService(reg, prov, append(base, opts...)...)

	return &testEnv{db: db, registry: reg, prov: prov, repo: repo, service: svc}
}

func productsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "maxLength": float64(120)},
			"price":    map[string]any{"type": "number", "minimum": float64(0)},
			"in_stock": map[string]any{"type": "boolean", "default": true},
			"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"title", "price"},
	}
}

func TestServiceCreateProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Name != "products" {
		t.Fatalf("expected products, got %q", created.Name)
	}
	if created.Table != "dynamic_products" {
		t.Fatalf("expected dynamic_products, got %q", created.Table)
	}
	// identity plus the four declared properties
	if len(created.Fields) != 5 {
		t.Fatalf("expected 5 record fields, got %d", len(created.Fields))
	}
	if created.Fields[0].Name != "id" {
		t.Fatalf("expected identity first, got %q", created.Fields[0].Name)
	}
	if len(created.Endpoints) != 5 {
		t.Fatalf("expected 5 default endpoints, got %d", len(created.Endpoints))
	}
	for _, ep := range created.Endpoints {
		if ep.Method == "DELETE" && ep.Path == "/api/products" {
			t.Fatal("delete-all must be off by default")
		}
	}

	exists, err := env.prov.Exists(ctx, "products")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected provisioned table")
	}
	if !env.registry.Has("products") {
		t.Fatal("expected committed registry entry")
	}
	if _, err := env.repo.GetByName(ctx, "products"); err != nil {
		t.Fatalf("expected persisted definition: %v", err)
	}
}

func TestServiceCreatePartialOptionsMergeOverDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	off := false
	size := 5
	created, err := env.service.Create(ctx, apis.CreateRequest{
		Name:   "products",
		Schema: productsSchema(),
		Options: &registry.OptionOverrides{
			Pagination: registry.PaginationOverrides{Size: &size},
			Routes:     registry.RouteOverrides{DeleteOne: &off},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	routes := created.Options.Routes
	if !routes.GetAll || !routes.GetOne || !routes.Create || !routes.Update {
		t.Fatalf("expected untouched verbs to keep defaults, got %+v", routes)
	}
	if routes.DeleteOne {
		t.Fatal("expected delete_one off")
	}
	if routes.DeleteAll {
		t.Fatal("expected delete_all to keep its off default")
	}
	if created.Options.Pagination.Size != 5 {
		t.Fatalf("expected page size 5, got %d", created.Options.Pagination.Size)
	}
	if !created.Options.Pagination.Enabled {
		t.Fatal("expected pagination to keep its on default")
	}
}

func TestServiceCreateDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()})
	if !errors.Is(err, registry.ErrAPIExists) {
		t.Fatalf("expected ErrAPIExists, got %v", err)
	}
}

func TestServiceCreateNameRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		want error
	}{
		{"", apis.ErrNameRequired},
		{"   ", apis.ErrNameRequired},
		{"9lives", apis.ErrNameInvalid},
		{"health", apis.ErrNameReserved},
		{"apis", apis.ErrNameReserved},
	}
	for _, tc := range cases {
		_, err := env.service.Create(ctx, apis.CreateRequest{Name: tc.name, Schema: productsSchema()})
		if !errors.Is(err, tc.want) {
			t.Fatalf("name %q: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// names are slug-normalized before use
	created, err := env.service.Create(ctx, apis.CreateRequest{Name: "  My Products  ", Schema: productsSchema()})
	if err != nil {
		t.Fatalf("create normalized: %v", err)
	}
	if created.Name != "my_products" {
		t.Fatalf("expected my_products, got %q", created.Name)
	}
}

func TestServiceCreateInvalidSchemaLeavesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":    map[string]any{"type": "string"},
			"Title": map[string]any{"type": "string"},
		},
		"required": []any{"missing"},
	}

	_, err := env.service.Create(ctx, apis.CreateRequest{Name: "broken", Schema: bad})
	if !errors.Is(err, schema.ErrDocumentInvalid) {
		t.Fatalf("expected ErrDocumentInvalid, got %v", err)
	}

	if env.registry.Has("broken") {
		t.Fatal("registry must not hold a failed creation")
	}
	exists, err := env.prov.Exists(ctx, "broken")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("no table may exist after a failed creation")
	}

	// the name is immediately reusable
	if _, err := env.service.Create(ctx, apis.CreateRequest{Name: "broken", Schema: productsSchema()}); err != nil {
		t.Fatalf("reuse after failure: %v", err)
	}
}

type failingBinder struct{}

func (failingBinder) Bind(string, *registry.Definition) error {
	return errors.New("bind refused")
}
func (failingBinder) Unbind(string) {}

func TestServiceCreateRollsBackOnBindFailure(t *testing.T) {
	env := newTestEnv(t, apis.WithBinder(failingBinder{}))
	ctx := context.Background()

	_, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()})
	if err == nil {
		t.Fatal("expected bind failure")
	}

	if env.registry.Has("products") {
		t.Fatal("registry entry must be rolled back")
	}
	exists, err := env.prov.Exists(ctx, "products")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("table must be dropped on rollback")
	}
	defs, err := env.repo.List(ctx)
	if err != nil {
		t.Fatalf("repo list: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("no definition may be persisted, got %d", len(defs))
	}
}

func TestServiceDeleteKeepsTableByDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := env.service.Delete(ctx, "products"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if env.registry.Has("products") {
		t.Fatal("expected registry entry removed")
	}
	if _, err := env.repo.GetByName(ctx, "products"); !errors.Is(err, registry.ErrAPINotFound) {
		t.Fatalf("expected persisted definition removed, got %v", err)
	}

	exists, err := env.prov.Exists(ctx, "products")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("table must survive delete by default")
	}

	if err := env.service.Delete(ctx, "products"); !errors.Is(err, registry.ErrAPINotFound) {
		t.Fatalf("expected ErrAPINotFound on second delete, got %v", err)
	}
}

func TestServiceDeleteDropsTableWhenConfigured(t *testing.T) {
	env := newTestEnv(t, apis.WithDropOnDelete(true))
	ctx := context.Background()

	if _, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.service.Delete(ctx, "products"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	exists, err := env.prov.Exists(ctx, "products")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected table dropped")
	}

	// the name is free for reuse
	if _, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()}); err != nil {
		t.Fatalf("recreate: %v", err)
	}
}

func TestServiceGetAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"orders", "products"} {
		if _, err := env.service.Create(ctx, apis.CreateRequest{Name: name, Schema: productsSchema()}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	info, err := env.service.Get(ctx, "products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if info.Table != "dynamic_products" {
		t.Fatalf("unexpected table: %q", info.Table)
	}
	if info.Schema == nil {
		t.Fatal("expected original schema document")
	}
	if info.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}

	if _, err := env.service.Get(ctx, "ghosts"); !errors.Is(err, registry.ErrAPINotFound) {
		t.Fatalf("expected ErrAPINotFound, got %v", err)
	}

	infos, err := env.service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 apis, got %d", len(infos))
	}
	if infos[0].Name != "orders" || infos[1].Name != "products" {
		t.Fatalf("expected sorted names, got %q %q", infos[0].Name, infos[1].Name)
	}
}

func TestServiceDegradedTypes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"payload": map[string]any{"type": "binary"},
		},
	}

	created, err := env.service.Create(ctx, apis.CreateRequest{Name: "blobs", Schema: doc})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var found bool
	for _, field := range created.Fields {
		if field.Name == "payload" {
			found = true
			if !field.Degraded {
				t.Fatal("expected degraded flag")
			}
			if field.RawType != "binary" {
				t.Fatalf("expected raw type preserved, got %q", field.RawType)
			}
		}
	}
	if !found {
		t.Fatal("payload field missing")
	}
}

func TestServiceValidateSchema(t *testing.T) {
	env := newTestEnv(t)

	report := env.service.ValidateSchema(productsSchema())
	if !report.Valid {
		t.Fatalf("expected valid report, issues: %v", report.Issues)
	}
	if len(report.Fields) != 4 {
		t.Fatalf("expected 4 mapped fields, got %d", len(report.Fields))
	}

	bad := map[string]any{
		"type": "array",
	}
	report = env.service.ValidateSchema(bad)
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	if len(report.Issues) == 0 {
		t.Fatal("expected issues listed")
	}

	report = env.service.ValidateSchema(nil)
	if report.Valid || len(report.Issues) == 0 {
		t.Fatal("expected rejection of empty document")
	}

	// validation must not create anything
	if env.registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", env.registry.Len())
	}
}

func TestServiceRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, apis.CreateRequest{Name: "products", Schema: productsSchema()}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// a fresh registry fed from the same repository, as after a restart
	fresh := registry.New(50)
	restored := apis.NewService(fresh, env.prov, apis.WithRepository(env.repo))
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if !fresh.Has("products") {
		t.Fatal("expected restored registry entry")
	}
	info, err := restored.Get(ctx, "products")
	if err != nil {
		t.Fatalf("get after restore: %v", err)
	}
	if len(info.Fields) != 5 {
		t.Fatalf("expected restored fields, got %d", len(info.Fields))
	}
}
