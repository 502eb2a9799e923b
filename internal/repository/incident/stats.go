package incident

import (
	"context"
	"fmt"

	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	domstats "github.com/bakwc/ppg-incidents/internal/domain/stats"
)

// numericColumns are the columns NumericValues may read.
var numericColumns = map[string]bool{
	"wind_speed_ms":   true,
	"flight_altitude": true,
}

// CountByCountry groups matching rows by country, most frequent first.
// A non-positive limit returns every country.
func (r *Repo) CountByCountry(ctx context.Context, where filter.Clause, limit int) ([]domstats.CountryCount, error) {
	clause := filter.And(filter.Raw("country IS NOT NULL"), where)
	q := `SELECT country, COUNT(*) AS n FROM incidents` + clause.Where() +
		` GROUP BY country ORDER BY n DESC, country ASC`
	args := clause.Args()
	if limit > 0 {
		q += " LIMIT ?"
		args = append(append([]any(nil), args...), limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("count by country: %w", err)
	}
	defer rows.Close()

	out := []domstats.CountryCount{}
	for rows.Next() {
		var c domstats.CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, fmt.Errorf("scan country count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by country: %w", err)
	}
	return out, nil
}

// CountByYear groups matching dated rows by year, ascending.
func (r *Repo) CountByYear(ctx context.Context, where filter.Clause) ([]domstats.YearCount, error) {
	clause := filter.And(filter.Raw("date IS NOT NULL"), where)
	q := `SELECT CAST(substr(date, 1, 4) AS INTEGER) AS y, COUNT(*) FROM incidents` + clause.Where() +
		` GROUP BY y ORDER BY y ASC`

	rows, err := r.db.QueryContext(ctx, q, clause.Args()...)
	if err != nil {
		return nil, fmt.Errorf("count by year: %w", err)
	}
	defer rows.Close()

	out := []domstats.YearCount{}
	for rows.Next() {
		var c domstats.YearCount
		if err := rows.Scan(&c.Year, &c.Count); err != nil {
			return nil, fmt.Errorf("scan year count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by year: %w", err)
	}
	return out, nil
}

// NumericValues returns the non-null values of column among matching rows, ascending.
func (r *Repo) NumericValues(ctx context.Context, column string, where filter.Clause) ([]float64, error) {
	if !numericColumns[column] {
		return nil, fmt.Errorf("numeric values: unsupported column %q", column)
	}
	clause := filter.And(filter.Raw(column+" IS NOT NULL"), where)
	q := `SELECT ` + column + ` FROM incidents` + clause.Where() + ` ORDER BY ` + column + ` ASC`

	rows, err := r.db.QueryContext(ctx, q, clause.Args()...)
	if err != nil {
		return nil, fmt.Errorf("numeric values of %s: %w", column, err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("numeric values of %s: %w", column, err)
	}
	return out, nil
}

// Countries returns the distinct countries of matching rows, alphabetically.
func (r *Repo) Countries(ctx context.Context, where filter.Clause) ([]string, error) {
	clause := filter.And(filter.Raw("country IS NOT NULL"), where)
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT country FROM incidents`+clause.Where()+` ORDER BY country ASC`, clause.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return out, nil
}

// DateRange returns the earliest and latest date among matching rows.
// Both are empty when no matching row is dated.
func (r *Repo) DateRange(ctx context.Context, where filter.Clause) (domstats.DateRange, error) {
	clause := filter.And(filter.Raw("date IS NOT NULL"), where)
	var lo, hi *string
	if err := r.db.QueryRowContext(ctx,
		`SELECT MIN(date), MAX(date) FROM incidents`+clause.Where(), clause.Args()...).
		Scan(&lo, &hi); err != nil {
		return domstats.DateRange{}, fmt.Errorf("date range: %w", err)
	}
	var out domstats.DateRange
	if lo != nil {
		out.Earliest = *lo
	}
	if hi != nil {
		out.Latest = *hi
	}
	return out, nil
}
