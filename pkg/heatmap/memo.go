package heatmap

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/fastygo/todoboard/domain"
)

const defaultMemoLimit = 256

// Memo caches Assemble results keyed by a digest of the input weeks.
// It is safe for concurrent use. The zero value is not usable; call NewMemo.
type Memo struct {
	mu      sync.Mutex
	limit   int
	entries map[uint64][]domain.DailyActivityPoint
	hits    uint64
	misses  uint64
}

// NewMemo creates a memo holding at most limit series. When full it is
// cleared wholesale.
func NewMemo(limit int) *Memo {
	if limit <= 0 {
		limit = defaultMemoLimit
	}
	return &Memo{
		limit:   limit,
		entries: make(map[uint64][]domain.DailyActivityPoint),
	}
}

// Assemble returns the memoized series for weeks, computing it on a miss.
// Callers get their own copy.
func (m *Memo) Assemble(weeks []domain.WeeklyAggregate, opts Options) []domain.DailyActivityPoint {
	opts = opts.withDefaults()
	key := memoKey(weeks, opts)

	m.mu.Lock()
	if cached, ok := m.entries[key]; ok {
		m.hits++
		m.mu.Unlock()
		return clonePoints(cached)
	}
	m.misses++
	m.mu.Unlock()

	series := Assemble(weeks, opts)

	m.mu.Lock()
	if len(m.entries) >= m.limit {
		m.entries = make(map[uint64][]domain.DailyActivityPoint)
	}
	m.entries[key] = clonePoints(series)
	m.mu.Unlock()

	return series
}

// Stats reports hit and miss counters.
func (m *Memo) Stats() (hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

func (m *Memo) Reset() {
	m.mu.Lock()
	m.entries = make(map[uint64][]domain.DailyActivityPoint)
	m.mu.Unlock()
}

func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// memoKey only folds in the fallback options when they matter.
func memoKey(weeks []domain.WeeklyAggregate, opts Options) uint64 {
	d := xxhash.New()
	if len(weeks) == 0 {
		_, _ = d.WriteString("empty|")
		_, _ = d.WriteString(opts.Now.UTC().Format(domain.DateLayout))
		_, _ = d.WriteString("|" + strconv.Itoa(opts.FallbackDays))
		return d.Sum64()
	}
	for _, w := range weeks {
		_, _ = d.WriteString(w.WeekStart)
		_, _ = d.WriteString("|")
		_, _ = d.WriteString(w.WeekEnd)
		_, _ = d.WriteString("|")
		_, _ = d.WriteString(strconv.Itoa(w.TotalTasks))
		_, _ = d.WriteString("|")
		_, _ = d.WriteString(strconv.Itoa(w.CompletedTasks))
		_, _ = d.WriteString(";")
	}
	return d.Sum64()
}

func clonePoints(points []domain.DailyActivityPoint) []domain.DailyActivityPoint {
	out := make([]domain.DailyActivityPoint, len(points))
	copy(out, points)
	return out
}
