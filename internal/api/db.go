package api

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// inspectableTables limits the inspection endpoints to the
// contribution store. Segments live as JSON on disk, not in DuckDB.
var inspectableTables = []string{"contributions"}

// defaultInspectQuery summarizes contributions by kind and type when
// the caller sends no query of its own.
const defaultInspectQuery = `SELECT kind, type, COUNT(*) AS total
FROM contributions
GROUP BY kind, type
ORDER BY total DESC, kind, type`

// DBHandler exposes read-only inspection of the contribution
// database: table row counts and ad-hoc SELECT queries.
type DBHandler struct {
	db *sql.DB
}

// NewDBHandler creates a new database handler.
func NewDBHandler(db *sql.DB) *DBHandler {
	return &DBHandler{db: db}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables)
	huma.Post(api, "/api/v1/query", h.Query)
}

// TableInfo is one inspectable table and its current row count.
type TableInfo struct {
	Name string `json:"name" doc:"Table name"`
	Rows int64  `json:"rows" doc:"Current row count"`
}

// TablesBody lists the inspectable contribution tables.
type TablesBody struct {
	Tables []TableInfo `json:"tables" doc:"Inspectable tables with row counts"`
}

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body TablesBody
}

// ListTables returns the inspectable contribution tables with their
// row counts.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	tables := []TableInfo{}
	for _, name := range inspectableTables {
		var count int64
		// name comes from the fixed allowlist, never from the caller.
		row := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+name)
		if err := row.Scan(&count); err != nil {
			return nil, huma.Error500InternalServerError("Failed to count rows in "+name, err)
		}
		tables = append(tables, TableInfo{Name: name, Rows: count})
	}

	return &TablesOutput{Body: TablesBody{Tables: tables}}, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query,omitempty" doc:"Single SELECT statement; empty runs the kind/type summary"`
	}
}

// QueryBody carries the rows of an inspection query.
type QueryBody struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Result rows"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// QueryOutput is the response for SQL queries.
type QueryOutput struct {
	Body QueryBody
}

// Query runs a read-only query against the contribution database.
// Without a query it reports the contribution counts per kind and
// type.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	q := strings.TrimSpace(input.Body.Query)
	if q == "" {
		q = defaultInspectQuery
	}
	if err := validateQuery(q); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	rows, err := h.db.QueryContext(ctx, q)
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get columns", err)
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, huma.Error500InternalServerError("Failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	return &QueryOutput{Body: QueryBody{
		Columns: columns,
		Rows:    results,
		Count:   len(results),
	}}, nil
}

// validateQuery accepts a single SELECT (or WITH) statement.
// Mutations go through the service layer, never through this
// endpoint.
func validateQuery(q string) error {
	if strings.Contains(q, ";") {
		return errors.New("multiple statements are not allowed")
	}
	head := strings.ToUpper(q)
	if !strings.HasPrefix(head, "SELECT") && !strings.HasPrefix(head, "WITH") {
		return errors.New("only SELECT queries are allowed")
	}
	return nil
}
