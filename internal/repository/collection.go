// Package repository implements data access over the document store.
// One repository per entity, each built on a shared Collection that
// provides the generic find/findByID/create/updateByID/deleteByID
// capability set the handler factory consumes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/trailpeak/api/internal/database"
	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/query"
)

// versionField is the internal metadata field projected away unless the
// request names an explicit field list.
const versionField = "revision"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// WriteOp identifies the mutation that triggered an after-write callback
type WriteOp int

// Write operations
const (
	OpCreate WriteOp = iota
	OpUpdate
	OpDelete
)

// CollectionConfig describes one entity collection
type CollectionConfig struct {
	// Table is the collection name in the store
	Table string

	// Deny lists fields projected away when no explicit field list is
	// requested. The internal version field is always denied.
	Deny []string

	// BaseFilter is a raw condition ANDed into every read
	// (e.g. "secretTour != true" for tours, "active != false" for users)
	BaseFilter string

	// Fetch lists related reference fields resolved on reads
	Fetch []string

	// Validate checks fields before a write; partial marks update semantics
	Validate func(fields model.Record, partial bool) []model.FieldError

	// BeforeSave mutates fields before persisting (defaults, derived fields)
	BeforeSave func(ctx context.Context, fields model.Record, isNew bool) error

	// AfterWrite runs after a successful mutation commits. Failures inside
	// the callback are its own concern; the write has already happened.
	AfterWrite func(ctx context.Context, rec model.Record, op WriteOp)
}

// Collection provides generic document CRUD for one entity collection
type Collection struct {
	db  database.Database
	cfg CollectionConfig
}

// NewCollection creates a collection over the given database
func NewCollection(db database.Database, cfg CollectionConfig) *Collection {
	return &Collection{db: db, cfg: cfg}
}

// Find executes a read described by spec, optionally scoped by extra
// equality constraints (parent-resource filters from the route).
func (c *Collection) Find(ctx context.Context, spec query.Spec, scope map[string]string) ([]model.Record, error) {
	q, vars, err := c.buildSelect(spec, scope)
	if err != nil {
		return nil, err
	}

	result, err := c.db.Query(ctx, q, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return []model.Record{}, nil
		}
		return nil, err
	}

	rows, _ := extractQueryResults(result)
	records := make([]model.Record, 0, len(rows))
	for _, item := range rows {
		if rec := normalizeRecord(item); rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// FindByID retrieves a single record. A missing id yields (nil, nil);
// records excluded by the base filter read as absent too.
func (c *Collection) FindByID(ctx context.Context, id string) (model.Record, error) {
	q := fmt.Sprintf("SELECT * OMIT %s FROM type::record($id)", c.omitList())
	if c.cfg.BaseFilter != "" {
		q += " WHERE " + c.cfg.BaseFilter
	}
	if len(c.cfg.Fetch) > 0 {
		q += " FETCH " + strings.Join(c.cfg.Fetch, ", ")
	}

	result, err := c.db.QueryOne(ctx, q, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return normalizeRecord(result), nil
}

// Create validates and persists a new record
func (c *Collection) Create(ctx context.Context, fields model.Record) (model.Record, error) {
	if c.cfg.Validate != nil {
		if errs := c.cfg.Validate(fields, false); len(errs) > 0 {
			return nil, model.NewValidationError(errs)
		}
	}
	if c.cfg.BeforeSave != nil {
		if err := c.cfg.BeforeSave(ctx, fields, true); err != nil {
			return nil, err
		}
	}
	if _, ok := fields["createdAt"]; !ok {
		fields["createdAt"] = time.Now().UTC()
	}
	fields[versionField] = 0

	result, err := c.db.QueryOne(ctx,
		fmt.Sprintf("CREATE %s CONTENT $data", c.cfg.Table),
		map[string]interface{}{"data": fields},
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %v", database.ErrDuplicate, err)
		}
		return nil, err
	}

	rec := normalizeRecord(result)
	if c.cfg.AfterWrite != nil {
		c.cfg.AfterWrite(ctx, rec, OpCreate)
	}
	return rec, nil
}

// UpdateByID validates and merges a partial field set into an existing
// record, returning the merged state. A missing id is ErrNotFound.
func (c *Collection) UpdateByID(ctx context.Context, id string, fields model.Record) (model.Record, error) {
	if c.cfg.Validate != nil {
		if errs := c.cfg.Validate(fields, true); len(errs) > 0 {
			return nil, model.NewValidationError(errs)
		}
	}
	if c.cfg.BeforeSave != nil {
		if err := c.cfg.BeforeSave(ctx, fields, false); err != nil {
			return nil, err
		}
	}

	result, err := c.db.QueryOne(ctx,
		"UPDATE type::record($id) MERGE $data",
		map[string]interface{}{"id": id, "data": fields},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, database.ErrNotFound
		}
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %v", database.ErrDuplicate, err)
		}
		return nil, err
	}

	rec := normalizeRecord(result)
	if c.cfg.AfterWrite != nil {
		c.cfg.AfterWrite(ctx, rec, OpUpdate)
	}
	return rec, nil
}

// DeleteByID removes a record. Deleting a missing id is not an error.
func (c *Collection) DeleteByID(ctx context.Context, id string) error {
	err := c.db.Execute(ctx, "DELETE type::record($id)", map[string]interface{}{"id": id})
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if c.cfg.AfterWrite != nil {
		c.cfg.AfterWrite(ctx, model.Record{"id": id}, OpDelete)
	}
	return nil
}

// buildSelect renders a Spec into a SurrealQL SELECT with bound variables.
// Stages were applied to the Spec in fixed order; here filter becomes the
// WHERE clause, sort the ORDER BY, projection the field list, and
// pagination the LIMIT/START window.
func (c *Collection) buildSelect(spec query.Spec, scope map[string]string) (string, map[string]interface{}, error) {
	var b strings.Builder
	vars := make(map[string]interface{})

	b.WriteString("SELECT ")
	if len(spec.Fields) > 0 {
		fields := make([]string, 0, len(spec.Fields)+1)
		fields = append(fields, "id")
		for _, f := range spec.Fields {
			if f == "id" {
				continue
			}
			if !identPattern.MatchString(f) {
				return "", nil, fmt.Errorf("%w: invalid field %q", database.ErrQuery, f)
			}
			fields = append(fields, f)
		}
		b.WriteString(strings.Join(fields, ", "))
	} else {
		b.WriteString("* OMIT ")
		b.WriteString(c.omitList())
	}
	b.WriteString(" FROM ")
	b.WriteString(c.cfg.Table)

	var conds []string
	if c.cfg.BaseFilter != "" {
		conds = append(conds, c.cfg.BaseFilter)
	}
	for i, constraint := range spec.Filter {
		if !identPattern.MatchString(constraint.Field) {
			return "", nil, fmt.Errorf("%w: invalid field %q", database.ErrQuery, constraint.Field)
		}
		name := fmt.Sprintf("f%d", i)
		vars[name] = coerceValue(constraint.Value)
		conds = append(conds, fmt.Sprintf("%s %s $%s", constraint.Field, constraint.Op, name))
	}
	scopeIdx := 0
	for field, value := range scope {
		if !identPattern.MatchString(field) {
			return "", nil, fmt.Errorf("%w: invalid field %q", database.ErrQuery, field)
		}
		name := fmt.Sprintf("s%d", scopeIdx)
		scopeIdx++
		if strings.Contains(value, ":") {
			vars[name] = value
			conds = append(conds, fmt.Sprintf("%s = type::record($%s)", field, name))
			continue
		}
		vars[name] = value
		conds = append(conds, fmt.Sprintf("%s = $%s", field, name))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if len(spec.Sort) > 0 {
		keys := make([]string, 0, len(spec.Sort))
		for _, k := range spec.Sort {
			if !identPattern.MatchString(k.Field) {
				return "", nil, fmt.Errorf("%w: invalid field %q", database.ErrQuery, k.Field)
			}
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			keys = append(keys, k.Field+" "+dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(keys, ", "))
	}

	fmt.Fprintf(&b, " LIMIT %d START %d", spec.Limit, spec.Skip())

	if len(c.cfg.Fetch) > 0 {
		b.WriteString(" FETCH ")
		b.WriteString(strings.Join(c.cfg.Fetch, ", "))
	}

	return b.String(), vars, nil
}

func (c *Collection) omitList() string {
	omit := append([]string{versionField}, c.cfg.Deny...)
	return strings.Join(omit, ", ")
}

// coerceValue converts a raw filter string into the store's type:
// numbers and booleans bind typed, record references bind as records,
// everything else stays a string.
func coerceValue(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
