package cda

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// MaxIncludeDepth is the deepest link level the API side-loads.
const MaxIncludeDepth = 10

// Query represents collection query parameters.
type Query struct {
	ContentType string
	Locale      string
	Limit       int
	Skip        int
	Include     *int
	Order       []string
	Select      []string
	Filters     map[string][]string
}

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{
		Filters: make(map[string][]string),
	}
}

// WithContentType restricts entries to a content type.
func (q *Query) WithContentType(id string) *Query {
	q.ContentType = id

	return q
}

// WithLocale sets the requested locale; LocaleAll requests every variant.
func (q *Query) WithLocale(locale string) *Query {
	q.Locale = locale

	return q
}

// WithLimit sets the page size.
func (q *Query) WithLimit(limit int) *Query {
	q.Limit = limit

	return q
}

// WithSkip sets the page offset.
func (q *Query) WithSkip(skip int) *Query {
	q.Skip = skip

	return q
}

// WithInclude sets how many link levels the API side-loads, clamped to [0, MaxIncludeDepth].
func (q *Query) WithInclude(depth int) *Query {
	depth = max(0, min(depth, MaxIncludeDepth))
	q.Include = &depth

	return q
}

// WithOrder sets the ordering; prefix a field with "-" to reverse it.
func (q *Query) WithOrder(fields ...string) *Query {
	q.Order = append(q.Order, fields...)

	return q
}

// WithSelect limits the returned fields.
func (q *Query) WithSelect(fields ...string) *Query {
	q.Select = append(q.Select, fields...)

	return q
}

// Where adds a filter. Multiple values are sent comma separated.
func (q *Query) Where(field string, values ...string) *Query {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[field] = append(q.Filters[field], values...)

	return q
}

// WithID restricts the collection to one sys.id.
func (q *Query) WithID(id string) *Query {
	return q.Where("sys.id", id)
}

// Clone returns a deep copy of the query.
func (q *Query) Clone() *Query {
	if q == nil {
		return NewQuery()
	}

	clone := *q
	clone.Order = append([]string(nil), q.Order...)
	clone.Select = append([]string(nil), q.Select...)
	clone.Filters = make(map[string][]string, len(q.Filters))

	for key, values := range q.Filters {
		clone.Filters[key] = append([]string(nil), values...)
	}

	if q.Include != nil {
		include := *q.Include
		clone.Include = &include
	}

	return &clone
}

// ToValues converts the query to url.Values.
func (q *Query) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.ContentType != "" {
		values.Set("content_type", q.ContentType)
	}

	if q.Locale != "" {
		values.Set("locale", q.Locale)
	}

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	if q.Skip > 0 {
		values.Set("skip", strconv.Itoa(q.Skip))
	}

	if q.Include != nil {
		values.Set("include", strconv.Itoa(*q.Include))
	}

	if len(q.Order) > 0 {
		values.Set("order", strings.Join(q.Order, ","))
	}

	if len(q.Select) > 0 {
		values.Set("select", strings.Join(q.Select, ","))
	}

	keys := make([]string, 0, len(q.Filters))
	for key := range q.Filters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		if len(q.Filters[key]) > 0 {
			values.Set(key, strings.Join(q.Filters[key], ","))
		}
	}

	return values
}
