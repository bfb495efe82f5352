package domain

// DateLayout is the calendar-day format used by every analytics payload.
const DateLayout = "2006-01-02"

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status TaskStatus `json:"status"`
	Count  int        `json:"count"`
}

// WeeklyAggregate summarizes tasks created within one seven-day window.
type WeeklyAggregate struct {
	WeekStart      string  `json:"week_start"`
	WeekEnd        string  `json:"week_end"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// DailyActivityPoint is one heatmap cell. It is derived on every request and
// never stored.
type DailyActivityPoint struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

type CompletionStats struct {
	StatusDistribution []StatusCount     `json:"status_distribution"`
	WeeklyCompletion   []WeeklyAggregate `json:"weekly_completion"`
}

type HourlyCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type CompletionTime struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	CompletionTimeHours float64 `json:"completion_time_hours"`
}

type ProductivityPatterns struct {
	CreationHourDistribution []HourlyCount    `json:"creation_hour_distribution"`
	AvgCompletionTimeHours   float64          `json:"avg_completion_time_hours"`
	CompletionTimeData       []CompletionTime `json:"completion_time_data"`
}

type PlannedDuration struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	PlannedDurationDays float64    `json:"planned_duration_days"`
	Status              TaskStatus `json:"status"`
}

type DurationRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type DurationRanges struct {
	Short  DurationRange `json:"short"`
	Medium DurationRange `json:"medium"`
	Long   DurationRange `json:"long"`
}

type DurationAnalysis struct {
	DurationData   []PlannedDuration `json:"duration_data"`
	DurationRanges DurationRanges    `json:"duration_ranges"`
}

// ActivityHeatmap is the assembled daily series served to the heatmap chart.
type ActivityHeatmap struct {
	Days []DailyActivityPoint `json:"days"`
	// Synthetic is true when no weekly data existed and the series is a
	// zero-filled placeholder.
	Synthetic bool `json:"synthetic"`
}
