package stats

import (
	"context"

	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	domstats "github.com/bakwc/ppg-incidents/internal/domain/stats"
)

// Repository defines the aggregate queries over incidents.
type Repository interface {
	Count(ctx context.Context, where filter.Clause) (int, error)
	CountByCountry(ctx context.Context, where filter.Clause, limit int) ([]domstats.CountryCount, error)
	CountByYear(ctx context.Context, where filter.Clause) ([]domstats.YearCount, error)
	NumericValues(ctx context.Context, column string, where filter.Clause) ([]float64, error)
	Countries(ctx context.Context, where filter.Clause) ([]string, error)
	DateRange(ctx context.Context, where filter.Clause) (domstats.DateRange, error)
}
