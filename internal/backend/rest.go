package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query builds a request against the backend's auto-generated REST API.
// Filters compose in the PostgREST operator syntax; row-level authorization
// is enforced by the backend based on the access token passed to the
// executor, never re-implemented here.
type Query struct {
	client *Client
	table  string
	params url.Values
	single bool
}

// From starts a query against a table.
func (c *Client) From(table string) *Query {
	return &Query{
		client: c,
		table:  table,
		params: url.Values{},
	}
}

// Select restricts the returned columns ("*" for all).
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq adds an equality filter on a column.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// In adds a membership filter on a column.
func (q *Query) In(column string, values []string) *Query {
	q.params.Add(column, "in.("+strings.Join(values, ",")+")")
	return q
}

// OrIlike adds a disjunction of case-insensitive pattern matches over the
// given columns, as used by recipe search.
func (q *Query) OrIlike(columns []string, term string) *Query {
	// PostgREST uses * as the wildcard in URL filter syntax.
	pattern := "*" + strings.ReplaceAll(term, ",", " ") + "*"
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, col+".ilike."+pattern)
	}
	q.params.Set("or", "("+strings.Join(parts, ",")+")")
	return q
}

// Order sorts the result by a column.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Single makes the executor expect exactly one row and decode it as an
// object instead of a one-element array.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) path() string {
	return restPath + "/" + q.table
}

// Get executes the query and decodes rows into dest.
func (q *Query) Get(ctx context.Context, accessToken string, dest any) error {
	req, err := q.client.newRequest(ctx, http.MethodGet, q.path(), q.params, accessToken, nil)
	if err != nil {
		return err
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return q.client.do(req, dest)
}

// Count executes the query head-only and returns the exact row count.
func (q *Query) Count(ctx context.Context, accessToken string) (int64, error) {
	req, err := q.client.newRequest(ctx, http.MethodHead, q.path(), q.params, accessToken, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	resp, err := q.client.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &APIError{StatusCode: resp.StatusCode, Message: "count query failed"}
	}

	return parseContentRangeTotal(resp.Header.Get("Content-Range"))
}

// Insert creates rows. When dest is non-nil the created representation is
// requested back and decoded into it.
func (q *Query) Insert(ctx context.Context, accessToken string, body, dest any) error {
	req, err := q.client.newRequest(ctx, http.MethodPost, q.path(), q.params, accessToken, body)
	if err != nil {
		return err
	}
	if dest != nil {
		req.Header.Set("Prefer", "return=representation")
		if q.single {
			req.Header.Set("Accept", "application/vnd.pgrst.object+json")
		}
	}
	return q.client.do(req, dest)
}

// Update patches the rows matched by the query's filters. Callers must have
// added at least one filter; a filterless update is refused locally rather
// than mass-updating a table.
func (q *Query) Update(ctx context.Context, accessToken string, body any) error {
	if len(q.params) == 0 {
		return fmt.Errorf("refusing to update %s without filters", q.table)
	}
	req, err := q.client.newRequest(ctx, http.MethodPatch, q.path(), q.params, accessToken, body)
	if err != nil {
		return err
	}
	return q.client.do(req, nil)
}

// Delete removes the rows matched by the query's filters, with the same
// filterless-refusal guard as Update.
func (q *Query) Delete(ctx context.Context, accessToken string) error {
	if len(q.params) == 0 {
		return fmt.Errorf("refusing to delete from %s without filters", q.table)
	}
	req, err := q.client.newRequest(ctx, http.MethodDelete, q.path(), q.params, accessToken, nil)
	if err != nil {
		return err
	}
	return q.client.do(req, nil)
}

// parseContentRangeTotal extracts the total from a "0-24/57" (or "*/0")
// Content-Range header.
func parseContentRangeTotal(header string) (int64, error) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("missing count in Content-Range %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, nil
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count in Content-Range %q: %w", header, err)
	}
	return n, nil
}
