package query

import (
	"net/url"
	"sort"
	"strconv"
	"testing"
)

// ============================================================================
// Pagination Tests
// ============================================================================

func TestParse_PaginationDefaults(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{})

	if s.Page != DefaultPage {
		t.Errorf("expected default page %d, got %d", DefaultPage, s.Page)
	}
	if s.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, s.Limit)
	}
	if s.Skip() != 0 {
		t.Errorf("expected skip 0, got %d", s.Skip())
	}
}

func TestParse_SkipArithmetic(t *testing.T) {
	t.Parallel()
	cases := []struct {
		page, limit string
		wantSkip    int
	}{
		{"1", "10", 0},
		{"2", "10", 10},
		{"3", "25", 50},
		{"10", "100", 900},
	}
	for _, tc := range cases {
		s := Parse(url.Values{"page": {tc.page}, "limit": {tc.limit}})
		if s.Skip() != tc.wantSkip {
			t.Errorf("page=%s limit=%s: expected skip %d, got %d", tc.page, tc.limit, tc.wantSkip, s.Skip())
		}
	}
}

func TestParse_MalformedPaginationFallsBack(t *testing.T) {
	t.Parallel()
	cases := []url.Values{
		{"page": {"zero"}, "limit": {"banana"}},
		{"page": {"0"}, "limit": {"0"}},
		{"page": {"-3"}, "limit": {"-1"}},
		{"page": {"1.5"}, "limit": {""}},
	}
	for _, params := range cases {
		s := Parse(params)
		if s.Page != DefaultPage || s.Limit != DefaultLimit {
			t.Errorf("params %v: expected defaults %d/%d, got %d/%d",
				params, DefaultPage, DefaultLimit, s.Page, s.Limit)
		}
	}
}

// ============================================================================
// Filter Tests
// ============================================================================

func TestParse_EqualityConstraint(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{"difficulty": {"easy"}})

	if len(s.Filter) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(s.Filter))
	}
	c := s.Filter[0]
	if c.Field != "difficulty" || c.Op != OpEq || c.Value != "easy" {
		t.Errorf("unexpected constraint %+v", c)
	}
}

func TestParse_RangeConstraints(t *testing.T) {
	t.Parallel()
	cases := []struct {
		key  string
		want Op
	}{
		{"price[gt]", OpGt},
		{"price[gte]", OpGte},
		{"price[lt]", OpLt},
		{"price[lte]", OpLte},
	}
	for _, tc := range cases {
		s := Parse(url.Values{tc.key: {"100"}})
		if len(s.Filter) != 1 {
			t.Fatalf("%s: expected 1 constraint, got %d", tc.key, len(s.Filter))
		}
		c := s.Filter[0]
		if c.Field != "price" || c.Op != tc.want || c.Value != "100" {
			t.Errorf("%s: unexpected constraint %+v", tc.key, c)
		}
	}
}

func TestParse_UnknownOperatorSuffixStaysInFieldName(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{"price[between]": {"100"}})

	if len(s.Filter) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(s.Filter))
	}
	if s.Filter[0].Field != "price[between]" || s.Filter[0].Op != OpEq {
		t.Errorf("unexpected constraint %+v", s.Filter[0])
	}
}

func TestParse_ReservedKeysNeverBecomeConstraints(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{
		"sort":   {"price"},
		"page":   {"2"},
		"fields": {"name"},
		"limit":  {"5"},
	})
	if len(s.Filter) != 0 {
		t.Errorf("expected no constraints, got %+v", s.Filter)
	}
}

func TestParse_DuplicateParameterKeepsLastValue(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{"difficulty": {"easy", "medium"}})

	if len(s.Filter) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(s.Filter))
	}
	if s.Filter[0].Value != "medium" {
		t.Errorf("expected last value to win, got %q", s.Filter[0].Value)
	}
}

func TestParse_FilterOrderIsDeterministic(t *testing.T) {
	t.Parallel()
	params := url.Values{
		"duration":   {"5"},
		"difficulty": {"easy"},
		"price[lt]":  {"1000"},
	}
	first := Parse(params)
	for i := 0; i < 10; i++ {
		again := Parse(params)
		if len(again.Filter) != len(first.Filter) {
			t.Fatalf("constraint count changed between runs")
		}
		for j := range first.Filter {
			if again.Filter[j] != first.Filter[j] {
				t.Fatalf("run %d: constraint %d differs: %+v vs %+v",
					i, j, again.Filter[j], first.Filter[j])
			}
		}
	}
}

// ============================================================================
// Sort and Projection Tests
// ============================================================================

func TestParse_SortKeys(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{"sort": {"-ratingAverage,price"}})

	want := []SortKey{
		{Field: "ratingAverage", Desc: true},
		{Field: "price", Desc: false},
	}
	if len(s.Sort) != len(want) {
		t.Fatalf("expected %d sort keys, got %d", len(want), len(s.Sort))
	}
	for i := range want {
		if s.Sort[i] != want[i] {
			t.Errorf("sort key %d: expected %+v, got %+v", i, want[i], s.Sort[i])
		}
	}
}

func TestParse_Projection(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{"fields": {"name,price,ratingAverage"}})

	want := []string{"name", "price", "ratingAverage"}
	if len(s.Fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(s.Fields))
	}
	for i := range want {
		if s.Fields[i] != want[i] {
			t.Errorf("field %d: expected %q, got %q", i, want[i], s.Fields[i])
		}
	}
}

func TestParse_EmptyProjectionMeansAllFields(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{})
	if len(s.Fields) != 0 {
		t.Errorf("expected empty field list, got %v", s.Fields)
	}
}

// ============================================================================
// End-to-end Pipeline Tests
// ============================================================================

// applySpec evaluates a Spec against an in-memory price list the way the
// store would: filter, sort, then window.
func applySpec(s Spec, prices []float64) []float64 {
	var kept []float64
	for _, p := range prices {
		ok := true
		for _, c := range s.Filter {
			if c.Field != "price" {
				continue
			}
			v, err := strconv.ParseFloat(c.Value, 64)
			if err != nil {
				return nil
			}
			switch c.Op {
			case OpEq:
				ok = ok && p == v
			case OpGt:
				ok = ok && p > v
			case OpGte:
				ok = ok && p >= v
			case OpLt:
				ok = ok && p < v
			case OpLte:
				ok = ok && p <= v
			}
		}
		if ok {
			kept = append(kept, p)
		}
	}

	for _, key := range s.Sort {
		if key.Field != "price" {
			continue
		}
		desc := key.Desc
		sort.Slice(kept, func(i, j int) bool {
			if desc {
				return kept[i] > kept[j]
			}
			return kept[i] < kept[j]
		})
	}

	start := s.Skip()
	if start >= len(kept) {
		return nil
	}
	end := start + s.Limit
	if end > len(kept) {
		end = len(kept)
	}
	return kept[start:end]
}

func TestPipeline_FilterSortLimit(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{
		"price[gte]": {"100"},
		"sort":       {"-price"},
		"limit":      {"2"},
	})

	got := applySpec(s, []float64{50, 120, 200, 90, 300})

	want := []float64{300, 200}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestPipeline_PaginationWindowsFilteredSet(t *testing.T) {
	t.Parallel()
	s := Parse(url.Values{
		"price[gt]": {"0"},
		"sort":      {"price"},
		"page":      {"2"},
		"limit":     {"2"},
	})

	got := applySpec(s, []float64{5, 4, 3, 2, 1})

	want := []float64{3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
