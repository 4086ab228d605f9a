// Package query translates raw request query parameters into a Spec: a
// fully-resolved description of a read operation (filter, sort,
// projection, pagination).
//
// A Spec is built fresh per request through a fixed pipeline of four
// stages, in order: filter, sort, project, paginate. The order matters
// because pagination must window the final filtered and sorted result
// set. The builder itself never fails: malformed values either fall back
// to defaults (page, limit) or pass through untouched and surface later
// as persistence-layer failures.
//
// Parameter grammar:
//
//	field=value              equality
//	field[gt|gte|lt|lte]=v   range constraint
//	sort=price,-ratingAverage
//	fields=name,price
//	page=2&limit=10
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// Reserved parameter names, never treated as filter fields
var reserved = map[string]bool{
	"sort":   true,
	"page":   true,
	"fields": true,
	"limit":  true,
}

// Op is a comparison kind for a filter constraint
type Op string

// Comparison kinds
const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

var rangeOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// Constraint is a single comparison on a field. Value carries the raw
// request string; type coercion is the persistence layer's job.
type Constraint struct {
	Field string
	Op    Op
	Value string
}

// SortKey is one (field, direction) pair of a composite sort
type SortKey struct {
	Field string
	Desc  bool
}

// Spec is an immutable description of a read request. An empty Fields
// slice means "all fields except the persistence layer's deny-list";
// a populated one is an exclusive allow-list.
type Spec struct {
	Filter []Constraint
	Sort   []SortKey
	Fields []string
	Page   int
	Limit  int
}

// Skip returns the window offset: (page-1)*limit, never negative
func (s Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// Parse builds a Spec from raw query parameters by applying the four
// stages in their fixed order.
func Parse(params url.Values) Spec {
	var s Spec
	s.filter(params)
	s.sortBy(params.Get("sort"))
	s.project(params.Get("fields"))
	s.paginate(params.Get("page"), params.Get("limit"))
	return s
}

// filter turns every non-reserved parameter into a constraint. Keys are
// visited in lexical order so the output is deterministic; a duplicated
// parameter keeps its last value.
func (s *Spec) filter(params url.Values) {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seen := make(map[string]int)
	for _, key := range keys {
		values := params[key]
		if len(values) == 0 {
			continue
		}
		value := values[len(values)-1]

		field, op := splitOperator(key)
		if reserved[field] {
			continue
		}

		c := Constraint{Field: field, Op: op, Value: value}
		dedupe := field + string(op)
		if i, ok := seen[dedupe]; ok {
			s.Filter[i] = c
			continue
		}
		seen[dedupe] = len(s.Filter)
		s.Filter = append(s.Filter, c)
	}
}

// splitOperator recognizes the field[op] suffix form. Unknown suffixes
// stay part of the field name and fail later at query time.
func splitOperator(key string) (string, Op) {
	if !strings.HasSuffix(key, "]") {
		return key, OpEq
	}
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return key, OpEq
	}
	if op, ok := rangeOps[key[open+1:len(key)-1]]; ok {
		return key[:open], op
	}
	return key, OpEq
}

func (s *Spec) sortBy(raw string) {
	if raw == "" {
		return
	}
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if strings.HasPrefix(key, "-") {
			s.Sort = append(s.Sort, SortKey{Field: key[1:], Desc: true})
			continue
		}
		s.Sort = append(s.Sort, SortKey{Field: key})
	}
}

func (s *Spec) project(raw string) {
	if raw == "" {
		return
	}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		s.Fields = append(s.Fields, field)
	}
}

// paginate coerces page and limit, silently falling back to defaults on
// missing, malformed, or out-of-range values.
func (s *Spec) paginate(page, limit string) {
	s.Page = DefaultPage
	s.Limit = DefaultLimit
	if n, err := strconv.Atoi(page); err == nil && n >= 1 {
		s.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n >= 1 {
		s.Limit = n
	}
}
