package aggregator

import (
	"sort"
	"sync"
	"time"
)

// DefaultTimezone is the timezone used to derive calendar days when the
// configuration does not name one.
const DefaultTimezone = "America/Los_Angeles"

// Config is the main configuration
type Config struct {
	Env           string          `yaml:"env"`
	Timezone      string          `yaml:"timezone"`
	FlushInterval string          `yaml:"flush_interval"`
	MetricsAddr   string          `yaml:"metrics_addr"`
	MQTT          MQTTConfig      `yaml:"mqtt"`
	MySQL         MySQLConfig     `yaml:"mysql"`
	Writer        WriterConfig    `yaml:"writer"`
	Publisher     PublisherConfig `yaml:"publisher"`
}

// Location resolves the configured timezone identifier
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}

	return time.LoadLocation(name)
}

// Aggregator accumulates Messages and derives the daily report from them.
// Add is safe to call concurrently with BuildReport; a single mutex guards
// the message store on both paths.
type Aggregator struct {
	mu       sync.Mutex
	location *time.Location
	messages []Message
}

// Add appends a Message to the store. Duplicate readings for the same day
// and reservoir are kept and averaged in at report time.
func (a *Aggregator) Add(m Message) {
	a.mu.Lock()
	a.messages = append(a.messages, m)
	a.mu.Unlock()
}

// Len returns the number of accumulated Messages
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.messages)
}

// BuildReport derives the daily report from the accumulated Messages. It
// returns nil when no Message was ever added, so callers can tell "nothing
// received" apart from an empty report. The store is not modified; calling
// BuildReport again without intervening Adds yields the same Report.
func (a *Aggregator) BuildReport() *Report {
	a.mu.Lock()
	messages := make([]Message, len(a.messages))
	copy(messages, a.messages)
	a.mu.Unlock()

	if len(messages) == 0 {
		return nil
	}

	type key struct {
		date        string
		reservoirID string
	}

	type group struct {
		sumTAF float64
		sumAF  int64
		count  int64
	}

	groups := make(map[key]*group)

	for _, m := range messages {
		k := key{
			date:        m.Timestamp.In(a.location).Format("2006-01-02"),
			reservoirID: m.ReservoirID,
		}

		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
		}

		g.sumTAF += m.StorageTAF
		g.sumAF += m.StorageAF
		g.count++
	}

	rows := make([]Row, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, Row{
			Date:        k.date,
			ReservoirID: k.reservoirID,
			StorageTAF:  g.sumTAF / float64(g.count),
			StorageAF:   int64(roundPlaces(float64(g.sumAF)/float64(g.count), 0)),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ReservoirID != rows[j].ReservoirID {
			return rows[i].ReservoirID < rows[j].ReservoirID
		}

		return rows[i].Date < rows[j].Date
	})

	// Day-over-day delta within each reservoir's own row sequence. The
	// previous row need not be the calendar-adjacent day.
	for i := range rows {
		if i == 0 || rows[i].ReservoirID != rows[i-1].ReservoirID {
			continue
		}

		delta := roundPlaces(rows[i].StorageTAF-rows[i-1].StorageTAF, 3)
		rows[i].DeltaTAF = &delta
	}

	type total struct {
		taf float64
		af  int64
	}

	totals := make(map[string]*total)
	for _, r := range rows {
		t, ok := totals[r.Date]
		if !ok {
			t = &total{}
			totals[r.Date] = t
		}

		t.taf += r.StorageTAF
		t.af += r.StorageAF
	}

	for i := range rows {
		t := totals[rows[i].Date]
		rows[i].TotalTAF = t.taf
		rows[i].TotalAF = t.af

		if t.taf == 0 {
			rows[i].PctOfTotal = 0
		} else {
			rows[i].PctOfTotal = roundPlaces(rows[i].StorageTAF/t.taf*100, 2)
		}
	}

	return &Report{Rows: rows}
}

// NewAggregator creates a new Aggregator deriving days in the given location
func NewAggregator(location *time.Location) *Aggregator {
	return &Aggregator{
		location: location,
	}
}
