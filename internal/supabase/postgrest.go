package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query is a PostgREST request against one table.
// Filters accumulate; a terminal method (Execute, Single, Count, Insert, Delete)
// sends the request.
type Query struct {
	client *Client
	table  string
	params url.Values
}

// From starts a query on table.
func (c *Client) From(table string) *Query {
	return &Query{
		client: c,
		table:  table,
		params: url.Values{},
	}
}

// Select sets the column list (PostgREST select syntax).
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// In adds a membership filter. Values are quoted so ids containing commas or
// parentheses survive PostgREST parsing.
func (q *Query) In(column string, values []string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	q.params.Add(column, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// Order sorts by column.
func (q *Query) Order(column string, descending bool) *Query {
	dir := "asc"
	if descending {
		dir = "desc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

func (q *Query) path() string {
	return "/rest/v1/" + q.table
}

// Execute runs a GET and decodes the resulting row array into out.
func (q *Query) Execute(ctx context.Context, out any) error {
	resp, err := q.client.request(ctx).
		SetQueryParamsFromValues(q.params).
		SetHeader("Accept", "application/json").
		Get(q.path())
	if err := check(resp, err, "select "+q.table); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("select %s: failed to decode rows: %w", q.table, err)
	}
	return nil
}

// Single runs the query expecting at most one row and decodes it into out.
// Returns ErrNotFound when no row matches.
func (q *Query) Single(ctx context.Context, out any) error {
	q.Limit(1)
	var rows []json.RawMessage
	if err := q.Execute(ctx, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("select %s: %w", q.table, ErrNotFound)
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("select %s: failed to decode row: %w", q.table, err)
	}
	return nil
}

// Count returns the exact number of matching rows without transferring them.
func (q *Query) Count(ctx context.Context) (int, error) {
	resp, err := q.client.request(ctx).
		SetQueryParamsFromValues(q.params).
		SetHeader("Prefer", "count=exact").
		Head(q.path())
	if err := check(resp, err, "count "+q.table); err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header().Get("Content-Range"))
}

// Insert creates row and, when out is non-nil, decodes the inserted
// representation (a one-element array) into out.
func (q *Query) Insert(ctx context.Context, row any, out any) error {
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	resp, err := q.client.request(ctx).
		SetQueryParamsFromValues(q.params).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", prefer).
		SetBody(row).
		Post(q.path())
	if err := check(resp, err, "insert "+q.table); err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return fmt.Errorf("insert %s: failed to decode representation: %w", q.table, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("insert %s: no row returned", q.table)
	}
	return json.Unmarshal(rows[0], out)
}

// Delete removes every row matching the accumulated filters.
// PostgREST refuses unfiltered deletes, and so does this client.
func (q *Query) Delete(ctx context.Context) error {
	if len(q.params) == 0 {
		return fmt.Errorf("delete %s: refusing unfiltered delete", q.table)
	}
	resp, err := q.client.request(ctx).
		SetQueryParamsFromValues(q.params).
		SetHeader("Prefer", "return=minimal").
		Delete(q.path())
	return check(resp, err, "delete "+q.table)
}

// parseContentRange extracts the total from a PostgREST Content-Range header
// ("0-24/3573" or "*/0").
func parseContentRange(header string) (int, error) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("invalid Content-Range %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("no exact count in Content-Range %q", header)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("invalid Content-Range %q: %w", header, err)
	}
	return n, nil
}
