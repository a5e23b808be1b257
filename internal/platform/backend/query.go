package backend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Filter is one column predicate in the rest API's `column=op.value` form.
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Eq matches rows whose column equals value.
func Eq(column, value string) Filter {
	return Filter{Column: column, Op: "eq", Value: value}
}

// Query describes a collection read.
type Query struct {
	Columns    []string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

func (q Query) values() url.Values {
	values := url.Values{}
	columns := "*"
	if len(q.Columns) > 0 {
		columns = strings.Join(q.Columns, ",")
	}
	values.Set("select", columns)
	for _, filter := range q.Filters {
		column := strings.TrimSpace(filter.Column)
		if column == "" {
			continue
		}
		op := strings.TrimSpace(filter.Op)
		if op == "" {
			op = "eq"
		}
		values.Add(column, op+"."+filter.Value)
	}
	if orderBy := strings.TrimSpace(q.OrderBy); orderBy != "" {
		direction := "asc"
		if q.Descending {
			direction = "desc"
		}
		values.Set("order", orderBy+"."+direction)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	return values
}

func validateCollection(collection string) error {
	if collection == "" {
		return fmt.Errorf("collection is required")
	}
	for _, r := range collection {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return fmt.Errorf("invalid collection name %q", collection)
		}
	}
	return nil
}

func unixTime(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

func secondsDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}
