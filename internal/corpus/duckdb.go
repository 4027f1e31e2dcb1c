package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// DB wraps an in-memory DuckDB connection used to query CSV files in place
// via read_csv_auto. Safe for concurrent readers.
type DB struct {
	db *sql.DB
}

// OpenDB opens an in-memory DuckDB instance.
func OpenDB() (*DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the DuckDB connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// quoteLiteral escapes a string for embedding as a SQL string literal.
// read_csv_auto takes the path as a literal, not a bind parameter.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// columns returns the column names of a CSV file, lowercased.
func (d *DB) columns(ctx context.Context, path string) ([]string, error) {
	q := fmt.Sprintf("DESCRIBE SELECT * FROM read_csv_auto(%s)", quoteLiteral(path))
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", path, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name, typ string
		var null, key, dflt, extra sql.NullString
		if err := rows.Scan(&name, &typ, &null, &key, &dflt, &extra); err != nil {
			return nil, fmt.Errorf("scan describe row: %w", err)
		}
		cols = append(cols, strings.ToLower(strings.TrimSpace(name)))
	}
	return cols, rows.Err()
}

// distinct returns up to limit distinct non-null values of a column.
func (d *DB) distinct(ctx context.Context, path, column string, limit int) ([]string, error) {
	q := fmt.Sprintf(
		"SELECT DISTINCT CAST(%s AS VARCHAR) AS v FROM read_csv_auto(%s) WHERE %s IS NOT NULL ORDER BY v LIMIT %d",
		quoteIdent(column), quoteLiteral(path), quoteIdent(column), limit,
	)
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("distinct %s of %s: %w", column, path, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// yearRange returns the min and max year of a file, or zeros when the column
// holds no parseable years.
func (d *DB) yearRange(ctx context.Context, path string) (int, int, error) {
	q := fmt.Sprintf(
		"SELECT MIN(TRY_CAST(year AS INTEGER)), MAX(TRY_CAST(year AS INTEGER)) FROM read_csv_auto(%s)",
		quoteLiteral(path),
	)
	var lo, hi sql.NullInt64
	if err := d.db.QueryRowContext(ctx, q).Scan(&lo, &hi); err != nil {
		return 0, 0, fmt.Errorf("year range of %s: %w", path, err)
	}
	if !lo.Valid || !hi.Valid {
		return 0, 0, nil
	}
	return int(lo.Int64), int(hi.Int64), nil
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// has reports whether cols contains name.
func has(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

// Load reads rows from a dataset, applying the filter for every constraint
// whose column the file actually has.
func (d *DB) Load(ctx context.Context, card DatasetCard, f Filter) ([]Row, error) {
	cols := make([]string, len(card.Schema))
	for i, c := range card.Schema {
		cols[i] = strings.ToLower(c)
	}

	var selects []string
	var scanPlan []string
	addCol := func(name, expr string) {
		selects = append(selects, expr)
		scanPlan = append(scanPlan, name)
	}

	if has(cols, ColVariable) {
		addCol(ColVariable, "CAST(variable AS VARCHAR)")
	}
	if has(cols, ColUnit) {
		addCol(ColUnit, "CAST(unit AS VARCHAR)")
	}
	if has(cols, ColYear) {
		addCol(ColYear, "TRY_CAST(year AS INTEGER)")
	}
	if has(cols, ColValue) {
		addCol(ColValue, "TRY_CAST(value AS DOUBLE)")
	}
	if has(cols, ColScenario) {
		addCol(ColScenario, "CAST(scenario AS VARCHAR)")
	}
	if has(cols, ColVariant) {
		addCol(ColVariant, "CAST(variant AS VARCHAR)")
	}
	for _, extra := range ExtraColumns {
		if has(cols, extra) {
			addCol(extra, fmt.Sprintf("CAST(%s AS VARCHAR)", quoteIdent(extra)))
		}
	}
	if len(selects) == 0 {
		return nil, fmt.Errorf("dataset %s has none of the expected columns", card.ID)
	}

	var where []string
	var args []any
	if f.Variable != "" && has(cols, ColVariable) {
		where = append(where, "variable = ?")
		args = append(args, f.Variable)
	}
	if f.Scenario != "" && has(cols, ColScenario) {
		where = append(where, "scenario = ?")
		args = append(args, f.Scenario)
	}
	if f.Variant != "" && has(cols, ColVariant) {
		where = append(where, "variant = ?")
		args = append(args, f.Variant)
	}
	if f.YearFrom > 0 && has(cols, ColYear) {
		where = append(where, "TRY_CAST(year AS INTEGER) >= ?")
		args = append(args, f.YearFrom)
	}
	if f.YearTo > 0 && has(cols, ColYear) {
		where = append(where, "TRY_CAST(year AS INTEGER) <= ?")
		args = append(args, f.YearTo)
	}

	q := fmt.Sprintf("SELECT %s FROM read_csv_auto(%s)", strings.Join(selects, ", "), quoteLiteral(card.Path))
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if has(cols, ColYear) {
		q += " ORDER BY TRY_CAST(year AS INTEGER)"
	}

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", card.ID, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		dest := make([]any, len(scanPlan))
		strVals := make([]sql.NullString, len(scanPlan))
		var year sql.NullInt64
		var value sql.NullFloat64
		for i, name := range scanPlan {
			switch name {
			case ColYear:
				dest[i] = &year
			case ColValue:
				dest[i] = &value
			default:
				dest[i] = &strVals[i]
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", card.ID, err)
		}

		row := Row{Extra: make(map[string]string)}
		for i, name := range scanPlan {
			switch name {
			case ColVariable:
				row.Variable = strVals[i].String
			case ColUnit:
				row.Unit = strVals[i].String
			case ColYear:
				row.Year = int(year.Int64)
			case ColValue:
				row.Value = value.Float64
			case ColScenario:
				row.Scenario = strVals[i].String
			case ColVariant:
				row.Variant = strVals[i].String
			default:
				if strVals[i].Valid {
					row.Extra[name] = strVals[i].String
				}
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
