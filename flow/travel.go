package flow

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/geovalida/geovalida/territory"
)

// ErrNegativeTime indicates a travel record with a negative duration.
var ErrNegativeTime = errors.New("flow: negative travel time")

// TravelRecord is one directed origin-destination impedance observation,
// in hours.
type TravelRecord struct {
	Origin territory.MunicipalityID
	Dest   territory.MunicipalityID
	Hours  float64
}

// TravelTimes is the impedance table. Pairs are directed; a pair absent
// from the table is treated as unreachable under any limit.
type TravelTimes struct {
	hours map[territory.MunicipalityID]map[territory.MunicipalityID]float64
	log   *slog.Logger
}

// TravelOption configures NewTravelTimes.
type TravelOption func(*TravelTimes)

// WithTravelLogger attaches a structured logger; defaults to slog.Default().
func WithTravelLogger(l *slog.Logger) TravelOption {
	return func(t *TravelTimes) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTravelTimes builds the impedance table. When a pair repeats, the
// smallest observed duration wins. Negative durations abort with
// ErrNegativeTime; self-pairs are stored as zero regardless of input.
func NewTravelTimes(records []TravelRecord, opts ...TravelOption) (*TravelTimes, error) {
	t := &TravelTimes{
		hours: make(map[territory.MunicipalityID]map[territory.MunicipalityID]float64),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, r := range records {
		if r.Hours < 0 {
			return nil, ErrNegativeTime
		}
		h := r.Hours
		if r.Origin == r.Dest {
			h = 0
		}
		row := t.hours[r.Origin]
		if row == nil {
			row = make(map[territory.MunicipalityID]float64)
			t.hours[r.Origin] = row
		}
		if cur, ok := row[r.Dest]; !ok || h < cur {
			row[r.Dest] = h
		}
	}
	t.log.Info("travel times built", "origins", len(t.hours), "records", len(records))
	return t, nil
}

// Hours returns the recorded duration and whether the pair is known.
// An origin queried against itself is always known at zero hours.
func (t *TravelTimes) Hours(origin, dest territory.MunicipalityID) (float64, bool) {
	if origin == dest {
		return 0, true
	}
	h, ok := t.hours[origin][dest]
	return h, ok
}

// Reachable reports whether dest is within limit hours of origin. Unknown
// pairs are not reachable: absence of impedance data never counts as
// proximity.
func (t *TravelTimes) Reachable(origin, dest territory.MunicipalityID, limit float64) bool {
	h, ok := t.Hours(origin, dest)
	return ok && h <= limit
}

// Within returns the origin's known destinations no farther than limit
// hours, sorted.
func (t *TravelTimes) Within(origin territory.MunicipalityID, limit float64) []territory.MunicipalityID {
	var out []territory.MunicipalityID
	for d, h := range t.hours[origin] {
		if d != origin && h <= limit {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
