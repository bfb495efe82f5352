package heatmap

import (
	"time"

	"github.com/fastygo/todoboard/domain"
)

const DefaultFallbackDays = 90

// Options controls the empty-input fallback of Assemble.
type Options struct {
	// Now anchors the placeholder series. Zero means time.Now().
	Now time.Time
	// FallbackDays is the placeholder length; non-positive means DefaultFallbackDays.
	FallbackDays int
}

// Assemble allocates every week and concatenates the results in input order.
// Weeks are not re-sorted; callers supply them chronologically.
//
// With no weeks it returns a zero-filled series ending at opts.Now so a chart
// always has something to draw.
func Assemble(weeks []domain.WeeklyAggregate, opts Options) []domain.DailyActivityPoint {
	if len(weeks) == 0 {
		return Placeholder(opts)
	}

	series := make([]domain.DailyActivityPoint, 0, len(weeks)*DaysPerWeek)
	for _, week := range weeks {
		series = append(series, AllocateDaily(week)...)
	}
	return series
}

// Placeholder builds the zero-filled series used when there is no data.
func Placeholder(opts Options) []domain.DailyActivityPoint {
	opts = opts.withDefaults()

	y, m, d := opts.Now.UTC().Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(opts.FallbackDays - 1))

	series := make([]domain.DailyActivityPoint, 0, opts.FallbackDays)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		series = append(series, domain.DailyActivityPoint{Date: day.Format(domain.DateLayout)})
	}
	return series
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.FallbackDays <= 0 {
		o.FallbackDays = DefaultFallbackDays
	}
	return o
}
