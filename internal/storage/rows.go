package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-dynapi/internal/descriptor"
	"github.com/goliatone/go-dynapi/internal/logging"
	"github.com/goliatone/go-dynapi/internal/model"
	"github.com/goliatone/go-dynapi/pkg/interfaces"
)

// RowStore performs CRUD over the map-shaped rows of dynamic tables. Rows
// travel as map[string]any; JSON columns are encoded on the way in and
// decoded on the way out according to the record shape's descriptor kinds.
type RowStore struct {
	db     *bun.DB
	logger interfaces.Logger
}

// RowStoreOption configures a RowStore.
type RowStoreOption func(*RowStore)

// WithRowStoreLogger attaches a logger.
func WithRowStoreLogger(logger interfaces.Logger) RowStoreOption {
	return func(s *RowStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRowStore builds a RowStore on top of a bun database handle.
func NewRowStore(db *bun.DB, opts ...RowStoreOption) *RowStore {
	s := &RowStore{db: db, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert stores a new row and returns it as persisted, identity included.
func (s *RowStore) Insert(ctx context.Context, table string, record model.Shape, values map[string]any) (map[string]any, error) {
	encoded, err := encodeRow(record, values)
	if err != nil {
		return nil, &StorageError{Op: "insert", Table: table, cause: err}
	}

	var id int64
	if len(encoded) == 0 {
		// All-optional shapes accept an empty payload; a map-model insert
		// with zero columns is not valid SQL, so let every column default.
		err := s.db.NewRaw("INSERT INTO ? DEFAULT VALUES RETURNING ?",
			bun.Ident(table), bun.Ident(model.IdentityField)).Scan(ctx, &id)
		if err != nil {
			return nil, &StorageError{Op: "insert", Table: table, cause: err}
		}
		return s.Get(ctx, table, record, id)
	}

	q := s.db.NewInsert().
		Model(&encoded).
		TableExpr("?", bun.Ident(table)).
		Returning("?", bun.Ident(model.IdentityField))
	if _, err := q.Exec(ctx, &id); err != nil {
		return nil, &StorageError{Op: "insert", Table: table, cause: err}
	}
	return s.Get(ctx, table, record, id)
}

// Get fetches one row by identity.
func (s *RowStore) Get(ctx context.Context, table string, record model.Shape, id int64) (map[string]any, error) {
	row := map[string]any{}
	err := s.db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		Where("? = ?", bun.Ident(model.IdentityField), id).
		Limit(1).
		Scan(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &RowNotFoundError{Table: table, ID: id}
		}
		return nil, &StorageError{Op: "get", Table: table, cause: err}
	}
	return decodeRow(record, row), nil
}

// List fetches a page of rows ordered by identity ascending, plus the total
// row count.
func (s *RowStore) List(ctx context.Context, table string, record model.Shape, limit, offset int) ([]map[string]any, int, error) {
	var rows []map[string]any
	q := s.db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		OrderExpr("? ASC", bun.Ident(model.IdentityField))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	total, err := q.ScanAndCount(ctx, &rows)
	if err != nil {
		return nil, 0, &StorageError{Op: "list", Table: table, cause: err}
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, decodeRow(record, row))
	}
	return out, total, nil
}

// Update applies a partial set of column values to one row and returns the
// row as persisted.
func (s *RowStore) Update(ctx context.Context, table string, record model.Shape, id int64, values map[string]any) (map[string]any, error) {
	encoded, err := encodeRow(record, values)
	if err != nil {
		return nil, &StorageError{Op: "update", Table: table, cause: err}
	}

	res, err := s.db.NewUpdate().
		Model(&encoded).
		TableExpr("?", bun.Ident(table)).
		Where("? = ?", bun.Ident(model.IdentityField), id).
		Exec(ctx)
	if err != nil {
		return nil, &StorageError{Op: "update", Table: table, cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, &StorageError{Op: "update", Table: table, cause: err}
	}
	if affected == 0 {
		return nil, &RowNotFoundError{Table: table, ID: id}
	}
	return s.Get(ctx, table, record, id)
}

// Delete removes one row by identity.
func (s *RowStore) Delete(ctx context.Context, table string, id int64) error {
	res, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(table)).
		Where("? = ?", bun.Ident(model.IdentityField), id).
		Exec(ctx)
	if err != nil {
		return &StorageError{Op: "delete", Table: table, cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Op: "delete", Table: table, cause: err}
	}
	if affected == 0 {
		return &RowNotFoundError{Table: table, ID: id}
	}
	return nil
}

// DeleteAll removes every row in the table and returns the count removed.
func (s *RowStore) DeleteAll(ctx context.Context, table string) (int64, error) {
	res, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(table)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, &StorageError{Op: "delete_all", Table: table, cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "delete_all", Table: table, cause: err}
	}
	s.logger.Warn("deleted all rows", "table", table, "count", affected)
	return affected, nil
}

// encodeRow converts payload values into column values: array and object
// fields are serialized to JSON text.
func encodeRow(record model.Shape, values map[string]any) (map[string]any, error) {
	encoded := make(map[string]any, len(values))
	for name, value := range values {
		field, ok := record.Field(name)
		if !ok || value == nil {
			encoded[name] = value
			continue
		}
		switch field.Kind {
		case descriptor.KindArray, descriptor.KindObject:
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("encode column %q: %w", name, err)
			}
			encoded[name] = string(raw)
		default:
			encoded[name] = value
		}
	}
	return encoded, nil
}

// decodeRow converts column values back into payload values: JSON columns
// are unmarshaled, sqlite integer booleans become bool, and whole-number
// columns declared as numbers come back as float64.
func decodeRow(record model.Shape, row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for name, value := range row {
		field, ok := record.Field(name)
		if !ok || value == nil {
			out[name] = value
			continue
		}
		out[name] = decodeColumn(field, value)
	}
	return out
}

func decodeColumn(field descriptor.FieldDescriptor, value any) any {
	switch field.Kind {
	case descriptor.KindArray, descriptor.KindObject:
		var raw []byte
		switch v := value.(type) {
		case string:
			raw = []byte(v)
		case []byte:
			raw = v
		default:
			return value
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return value
		}
		return decoded
	case descriptor.KindBoolean:
		switch v := value.(type) {
		case int64:
			return v != 0
		case bool:
			return v
		}
		return value
	case descriptor.KindNumber:
		if v, ok := value.(int64); ok {
			return float64(v)
		}
		return value
	default:
		return value
	}
}
