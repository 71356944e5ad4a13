package catalog

import (
	"net/url"
	"strings"

	"github.com/probin-johori/sustainable/internal/domain"
)

// Query selects brands by category and free text. The zero Query matches
// everything.
type Query struct {
	Categories []domain.Category `json:"categories,omitempty"`
	Text       string            `json:"q,omitempty"`
}

// ParseQuery reads the category and q parameters. Category values may repeat
// or be comma-separated. Unknown categories are returned separately so the
// caller can decide whether they are an error.
func ParseQuery(values url.Values) (q Query, unknown []string) {
	var raw []string
	for _, v := range values["category"] {
		raw = append(raw, strings.Split(v, ",")...)
	}
	q.Categories, unknown = domain.ParseCategories(raw)
	q.Text = strings.TrimSpace(values.Get("q"))
	return q, unknown
}

// Empty reports whether q places no restriction.
func (q Query) Empty() bool {
	return len(q.Categories) == 0 && q.Text == ""
}

// Values encodes q as URL parameters, the inverse of ParseQuery.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, c := range q.Categories {
		v.Add("category", string(c))
	}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	return v
}

// Selected reports whether c is one of the query's categories.
func (q Query) Selected(c domain.Category) bool {
	for _, qc := range q.Categories {
		if qc == c {
			return true
		}
	}
	return false
}

// Toggle returns a copy of q with c added to or removed from the selection.
func (q Query) Toggle(c domain.Category) Query {
	out := Query{Text: q.Text}
	found := false
	for _, qc := range q.Categories {
		if qc == c {
			found = true
			continue
		}
		out.Categories = append(out.Categories, qc)
	}
	if !found {
		out.Categories = append(out.Categories, c)
	}
	return out
}

// Matches reports whether b is visible under q: its categories intersect the
// selected set (or none are selected) and the lowercased text is a substring
// of its lowercased name or description (or the text is empty). The text is
// compared as given; ParseQuery trims URL input.
func (q Query) Matches(b domain.Brand) bool {
	return q.matches(b, strings.ToLower(q.Text))
}

func (q Query) matches(b domain.Brand, text string) bool {
	if len(q.Categories) > 0 {
		hit := false
		for _, c := range q.Categories {
			if b.HasCategory(c) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Name), text) ||
		strings.Contains(strings.ToLower(b.Description), text)
}

// Filter returns the brands matching q in their original order. The result
// is never nil.
func Filter(brands []domain.Brand, q Query) []domain.Brand {
	text := strings.ToLower(q.Text)
	out := make([]domain.Brand, 0, len(brands))
	for _, b := range brands {
		if q.matches(b, text) {
			out = append(out, b)
		}
	}
	return out
}
