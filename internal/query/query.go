// ABOUTME: Listing query engine: filter, stable ordering, and paging over notes.
// ABOUTME: Raw parameters are parsed once into closed enums; invalid values never get past Parse.

package query

import (
	"cmp"
	"math"
	"sort"
	"strings"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/validate"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortKey is the primary ordering column.
type SortKey int

const (
	SortUpdated SortKey = iota
	SortCreated
	SortTitle
	SortID
)

func (k SortKey) String() string {
	switch k {
	case SortID:
		return "id"
	case SortTitle:
		return "title"
	case SortCreated:
		return "created"
	default:
		return "updated"
	}
}

// ParseSortKey accepts id, title, created|createdAt and updated|updatedAt in
// any case. Blank means updated.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "updated", "updatedat":
		return SortUpdated, true
	case "created", "createdat":
		return SortCreated, true
	case "title":
		return SortTitle, true
	case "id":
		return SortID, true
	}
	return SortUpdated, false
}

// Direction applies to both the primary key and the id tie-break.
type Direction int

const (
	Desc Direction = iota
	Asc
)

func (d Direction) String() string {
	if d == Asc {
		return "asc"
	}
	return "desc"
}

// ParseDirection accepts asc or desc in any case. Blank means desc.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return Desc, true
	case "asc":
		return Asc, true
	}
	return Desc, false
}

// Params are the unchecked listing inputs as a transport receives them.
type Params struct {
	Filter   string
	Page     int
	PageSize int
	Sort     string
	Dir      string
}

// Query is a normalized, validated listing request.
type Query struct {
	Filter   string
	Page     int
	PageSize int
	Sort     SortKey
	Dir      Direction
}

// Parse clamps paging and rejects unknown sort keys or directions. Both
// failures are reported together.
func (p Params) Parse() (Query, error) {
	q := Query{
		Filter:   p.Filter,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
	if q.Page < 1 {
		q.Page = 1
	}
	q.PageSize = min(max(q.PageSize, 1), MaxPageSize)

	verr := &validate.Error{}
	var ok bool
	if q.Sort, ok = ParseSortKey(p.Sort); !ok {
		verr.Add("sort", validate.RuleOneOf, "invalid sort key")
	}
	if q.Dir, ok = ParseDirection(p.Dir); !ok {
		verr.Add("dir", validate.RuleOneOf, "invalid sort direction")
	}
	if err := verr.Err(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Term is the trimmed, lower-cased filter; empty means no filtering.
func (q Query) Term() string {
	return strings.ToLower(strings.TrimSpace(q.Filter))
}

// Offset is the number of ordered records skipped before the page.
func (q Query) Offset() int {
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// Page is one window of an ordered listing. Total counts every note matching
// the filter, regardless of the window.
type Page struct {
	Items    []*models.Note
	Total    int
	Page     int
	PageSize int
}

// Matches reports whether n passes the filter term (already lower-cased).
func Matches(n *models.Note, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), term) ||
		strings.Contains(strings.ToLower(n.Content), term)
}

// Compare orders a before b under q: primary key first, then id, both in q.Dir.
func Compare(q Query, a, b *models.Note) int {
	var c int
	switch q.Sort {
	case SortTitle:
		c = strings.Compare(a.Title, b.Title)
	case SortCreated:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case SortUpdated:
		c = a.SortTime().Compare(b.SortTime())
	}
	if c == 0 {
		c = cmp.Compare(a.ID, b.ID)
	}
	if q.Dir == Desc {
		c = -c
	}
	return c
}

// Apply runs the query over a full scan of notes. The input slice is not
// modified.
func Apply(all []*models.Note, q Query) Page {
	term := q.Term()
	matched := make([]*models.Note, 0, len(all))
	for _, n := range all {
		if Matches(n, term) {
			matched = append(matched, n)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return Compare(q, matched[i], matched[j]) < 0
	})

	page := Page{Total: len(matched), Page: q.Page, PageSize: q.PageSize}
	start := min(q.Offset(), len(matched))
	end := min(start+q.PageSize, len(matched))
	page.Items = matched[start:end]
	return page
}
