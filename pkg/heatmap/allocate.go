package heatmap

import (
	"math"
	"sort"
	"time"

	"github.com/fastygo/todoboard/domain"
)

const (
	DaysPerWeek = 7
	// tasksPerActiveDay controls how bursty a week looks: roughly one active
	// day per three completions.
	tasksPerActiveDay = 3
)

type dayWeight struct {
	index  int
	weight float64
	tie    float64
}

// AllocateDaily splits week.CompletedTasks across the days from WeekStart to
// min(WeekStart+6, WeekEnd). Counts always add up to the (non-negative)
// completed total. Malformed dates yield an empty slice.
func AllocateDaily(week domain.WeeklyAggregate) []domain.DailyActivityPoint {
	dates := windowDates(week.WeekStart, week.WeekEnd)
	if len(dates) == 0 {
		return []domain.DailyActivityPoint{}
	}

	completed := nonNegative(week.CompletedTasks)
	counts := distribute(dates, completed)
	total := ceilDiv(nonNegative(week.TotalTasks), DaysPerWeek)

	points := make([]domain.DailyActivityPoint, len(dates))
	for i, date := range dates {
		points[i] = domain.DailyActivityPoint{
			Date:       date,
			Count:      counts[i],
			Total:      total,
			Percentage: percentage(counts[i], total),
		}
	}
	return points
}

// ActiveDays reports how many days of an n-day window receive activity.
func ActiveDays(completed, n int) int {
	if completed <= 0 || n <= 0 {
		return 0
	}
	days := ceilDiv(completed, tasksPerActiveDay)
	if days < 1 {
		days = 1
	}
	if days > DaysPerWeek {
		days = DaysPerWeek
	}
	if days > n {
		days = n
	}
	return days
}

func distribute(dates []string, completed int) []int {
	counts := make([]int, len(dates))
	active := ActiveDays(completed, len(dates))
	if active == 0 {
		return counts
	}

	chosen := pickActiveDays(dates, active)
	for _, idx := range chosen {
		counts[idx] = 1
	}

	remaining := completed - active
	if remaining <= 0 {
		return counts
	}

	spread := make([]dayWeight, len(chosen))
	totalWeight := 0.0
	for i, idx := range chosen {
		w := Weight(dates[idx], SaltSpread)
		spread[i] = dayWeight{index: idx, weight: w}
		totalWeight += w
	}
	sort.SliceStable(spread, func(a, b int) bool {
		return spread[a].weight > spread[b].weight
	})
	if totalWeight == 0 {
		totalWeight = float64(len(spread))
	}

	left := remaining
	for _, day := range spread[:len(spread)-1] {
		share := int(math.Round(day.weight / totalWeight * float64(remaining)))
		if share > left {
			share = left
		}
		counts[day.index] += share
		left -= share
	}
	counts[spread[len(spread)-1].index] += left
	return counts
}

// pickActiveDays favours weekdays: window edges (Sun/Sat for a week starting
// on Sunday) get half their bias weight, the rest get +0.5. The result is in
// calendar order.
func pickActiveDays(dates []string, active int) []int {
	candidates := make([]dayWeight, len(dates))
	for i, date := range dates {
		bias := Weight(date, SaltBias)
		priority := bias + 0.5
		if isWeekendSlot(i) {
			priority = bias * 0.5
		}
		candidates[i] = dayWeight{index: i, weight: priority, tie: Weight(date, SaltSelect)}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].weight != candidates[b].weight {
			return candidates[a].weight > candidates[b].weight
		}
		return candidates[a].tie > candidates[b].tie
	})

	chosen := make([]int, active)
	for i := range chosen {
		chosen[i] = candidates[i].index
	}
	sort.Ints(chosen)
	return chosen
}

func isWeekendSlot(i int) bool {
	return i == 0 || i == DaysPerWeek-1
}

func windowDates(weekStart, weekEnd string) []string {
	start, err := time.Parse(domain.DateLayout, weekStart)
	if err != nil {
		return nil
	}
	end, err := time.Parse(domain.DateLayout, weekEnd)
	if err != nil || end.Before(start) {
		return nil
	}
	last := start.AddDate(0, 0, DaysPerWeek-1)
	if end.Before(last) {
		last = end
	}

	var dates []string
	for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(domain.DateLayout))
	}
	return dates
}

func percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
