package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-dynapi/internal/descriptor"
	"github.com/goliatone/go-dynapi/internal/logging"
	"github.com/goliatone/go-dynapi/internal/model"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

// DefaultTablePrefix is prepended to entity names so dynamic tables never
// collide with application tables.
const DefaultTablePrefix = "dynamic_"

// Provisioner creates and drops the backing table for a dynamic API. DDL is
// rendered per dialect; sqlite and postgres are supported.
type Provisioner struct {
	db     *bun.DB
	prefix string
	logger interfaces.Logger
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithTablePrefix overrides the dynamic table prefix.
func WithTablePrefix(prefix string) ProvisionerOption {
	return func(p *Provisioner) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithProvisionerLogger attaches a logger.
func WithProvisionerLogger(logger interfaces.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvisioner builds a Provisioner on top of a bun database handle.
func NewProvisioner(db *bun.DB, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		db:     db,
		prefix: DefaultTablePrefix,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TableName returns the physical table name for an entity.
func (p *Provisioner) TableName(entity string) string {
	return p.prefix + entity
}

// Provision creates the table for an entity from its record shape. The
// identity column becomes an auto-increment primary key; every other field
// maps to a column typed after its descriptor kind. An existing table is a
// conflict, never reused. A failed CREATE drops whatever partial table the
// engine left behind before surfacing.
func (p *Provisioner) Provision(ctx context.Context, entity string, record model.Shape) (string, error) {
	table := p.TableName(entity)

	exists, err := p.Exists(ctx, entity)
	if err != nil {
		return "", err
	}
	if exists {
		return "", &ConflictError{Table: table}
	}

	ddl, err := p.createTableSQL(table, record)
	if err != nil {
		return "", err
	}

	p.logger.Debug("provisioning table", "table", table, "columns", len(record.Fields))

	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		rolledBack := p.dropQuiet(ctx, table)
		return "", &ProvisionError{Table: table, RolledBack: rolledBack, cause: err}
	}
	return table, nil
}

// Drop removes the backing table for an entity. Dropping an absent table is
// not an error.
func (p *Provisioner) Drop(ctx context.Context, entity string) error {
	table := p.TableName(entity)
	if _, err := p.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table))); err != nil {
		return &StorageError{Op: "drop", Table: table, cause: err}
	}
	p.logger.Info("dropped table", "table", table)
	return nil
}

// Exists reports whether the entity's backing table is present.
func (p *Provisioner) Exists(ctx context.Context, entity string) (bool, error) {
	table := p.TableName(entity)

	var query string
	switch p.db.Dialect().Name() {
	case dialect.SQLite:
		query = "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case dialect.PG:
		query = "SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	default:
		return false, ErrDialectUnsupported
	}

	var count int
	if err := p.db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, &StorageError{Op: "exists", Table: table, cause: err}
	}
	return count > 0, nil
}

// Catalog lists every provisioned dynamic table, prefix stripped, sorted by
// the underlying catalog's default order.
func (p *Provisioner) Catalog(ctx context.Context) ([]string, error) {
	var query string
	switch p.db.Dialect().Name() {
	case dialect.SQLite:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ? ORDER BY name"
	case dialect.PG:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name LIKE ? ORDER BY table_name"
	default:
		return nil, ErrDialectUnsupported
	}

	rows, err := p.db.QueryContext(ctx, query, p.prefix+"%")
	if err != nil {
		return nil, &StorageError{Op: "catalog", Table: p.prefix + "%", cause: err}
	}
	defer rows.Close()

	var entities []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, &StorageError{Op: "catalog", Table: table, cause: err}
		}
		entities = append(entities, strings.TrimPrefix(table, p.prefix))
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "catalog", Table: p.prefix + "%", cause: err}
	}
	return entities, nil
}

func (p *Provisioner) dropQuiet(ctx context.Context, table string) bool {
	_, err := p.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table)))
	if err != nil {
		p.logger.Warn("partial table left behind", "table", table, "error", err)
		return false
	}
	return true
}

func (p *Provisioner) createTableSQL(table string, record model.Shape) (string, error) {
	dialectName := p.db.Dialect().Name()
	if dialectName != dialect.SQLite && dialectName != dialect.PG {
		return "", ErrDialectUnsupported
	}

	columns := make([]string, 0, len(record.Fields))
	for _, field := range record.Fields {
		if field.Name == model.IdentityField {
			columns = append(columns, fmt.Sprintf("%s %s", quoteIdent(field.Name), identityColumn(dialectName)))
			continue
		}
		column := fmt.Sprintf("%s %s", quoteIdent(field.Name), columnType(dialectName, field))
		if field.Required {
			column += " NOT NULL"
		}
		columns = append(columns, column)
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(columns, ", ")), nil
}

func identityColumn(name dialect.Name) string {
	if name == dialect.PG {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// columnType maps a descriptor kind to a column type. Bounded strings become
// VARCHAR up to 500 characters; longer ones fall back to TEXT.
func columnType(name dialect.Name, field descriptor.FieldDescriptor) string {
	switch field.Kind {
	case descriptor.KindString:
		if field.Constraints == nil || field.Constraints.MaxLength == nil {
			return "VARCHAR(255)"
		}
		if max := *field.Constraints.MaxLength; max <= 500 {
			return fmt.Sprintf("VARCHAR(%d)", max)
		}
		return "TEXT"
	case descriptor.KindInteger:
		return "BIGINT"
	case descriptor.KindNumber:
		return "DOUBLE PRECISION"
	case descriptor.KindBoolean:
		return "BOOLEAN"
	case descriptor.KindDateTime:
		return "TIMESTAMP"
	case descriptor.KindArray, descriptor.KindObject:
		if name == dialect.PG {
			return "JSONB"
		}
		return "TEXT"
	case descriptor.KindEmail, descriptor.KindUUID:
		return "TEXT"
	default:
		return "TEXT"
	}
}

// quoteIdent double-quotes an identifier. Entity and field names are
// validated upstream as lowercase identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}
