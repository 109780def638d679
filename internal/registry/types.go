package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-dynapi/internal/descriptor"
	"github.com/goliatone/go-dynapi/internal/model"
)

// Definition is the ledger entry for one live dynamic API: the submitted
// schema, the resolved options, the derived shapes, and bookkeeping. Once
// registered a definition is immutable; there is no in-place schema
// evolution.
type Definition struct {
	bun.BaseModel `bun:"table:dynamic_api_definitions,alias:dad"`

	ID        uuid.UUID                    `bun:",pk,type:uuid"              json:"id"`
	Name      string                       `bun:"name,notnull,unique"        json:"name"`
	Schema    map[string]any               `bun:"schema,type:jsonb,notnull"  json:"schema"`
	Options   Options                      `bun:"options,type:jsonb,notnull" json:"options"`
	Fields    []descriptor.FieldDescriptor `bun:"fields,type:jsonb,notnull"  json:"fields"`
	Shapes    model.Shapes                 `bun:"shapes,type:jsonb,notnull"  json:"shapes"`
	CreatedAt time.Time                    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Options captures per-API behaviour toggles.
type Options struct {
	Pagination PaginationOptions `json:"pagination"`
	Routes     RouteFlags        `json:"routes"`
}

// PaginationOptions controls list-route paging for one API.
type PaginationOptions struct {
	Enabled bool `json:"enabled"`
	Size    int  `json:"size"`
}

// RouteFlags enables or disables individual CRUD verbs. DeleteAll is off
// unless explicitly requested; it is the only destructive bulk verb.
type RouteFlags struct {
	GetAll    bool `json:"get_all"`
	GetOne    bool `json:"get_one"`
	Create    bool `json:"create"`
	Update    bool `json:"update"`
	DeleteOne bool `json:"delete_one"`
	DeleteAll bool `json:"delete_all"`
}

// Enabled lists the verbs switched on, in route-registration order.
func (f RouteFlags) Enabled() []string {
	out := []string{}
	if f.GetAll {
		out = append(out, "get_all")
	}
	if f.GetOne {
		out = append(out, "get_one")
	}
	if f.Create {
		out = append(out, "create")
	}
	if f.Update {
		out = append(out, "update")
	}
	if f.DeleteOne {
		out = append(out, "delete_one")
	}
	if f.DeleteAll {
		out = append(out, "delete_all")
	}
	return out
}

// OptionOverrides carries the option fields a creation request actually
// sent. Nil fields keep the base value, so a request toggling one verb
// leaves every other default in place.
type OptionOverrides struct {
	Pagination PaginationOverrides `json:"pagination"`
	Routes     RouteOverrides      `json:"routes"`
}

// PaginationOverrides is the requested subset of PaginationOptions.
type PaginationOverrides struct {
	Enabled *bool `json:"enabled"`
	Size    *int  `json:"size"`
}

// RouteOverrides is the requested subset of RouteFlags.
type RouteOverrides struct {
	GetAll    *bool `json:"get_all"`
	GetOne    *bool `json:"get_one"`
	Create    *bool `json:"create"`
	Update    *bool `json:"update"`
	DeleteOne *bool `json:"delete_one"`
	DeleteAll *bool `json:"delete_all"`
}

// Apply resolves the overrides on top of base and returns the result.
func (o *OptionOverrides) Apply(base Options) Options {
	if o == nil {
		return base
	}
	if o.Pagination.Enabled != nil {
		base.Pagination.Enabled = *o.Pagination.Enabled
	}
	if o.Pagination.Size != nil {
		base.Pagination.Size = *o.Pagination.Size
	}
	if o.Routes.GetAll != nil {
		base.Routes.GetAll = *o.Routes.GetAll
	}
	if o.Routes.GetOne != nil {
		base.Routes.GetOne = *o.Routes.GetOne
	}
	if o.Routes.Create != nil {
		base.Routes.Create = *o.Routes.Create
	}
	if o.Routes.Update != nil {
		base.Routes.Update = *o.Routes.Update
	}
	if o.Routes.DeleteOne != nil {
		base.Routes.DeleteOne = *o.Routes.DeleteOne
	}
	if o.Routes.DeleteAll != nil {
		base.Routes.DeleteAll = *o.Routes.DeleteAll
	}
	return base
}

// DefaultOptions returns the option set applied when a creation request
// leaves options unset.
func DefaultOptions(pageSize int) Options {
	return Options{
		Pagination: PaginationOptions{
			Enabled: true,
			Size:    pageSize,
		},
		Routes: RouteFlags{
			GetAll:    true,
			GetOne:    true,
			Create:    true,
			Update:    true,
			DeleteOne: true,
			DeleteAll: false,
		},
	}
}
