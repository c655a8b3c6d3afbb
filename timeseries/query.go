package timeseries

import (
	"time"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/errors"
)

// Extreme is the hottest or coldest sample of a room
type Extreme struct {
	Room      string    `json:"room"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Hottest returns the room's maximum temperature. Ties go to the earliest sample.
func (s *Store) Hottest(room string) (Extreme, error) {
	return s.extreme(room, func(candidate, best float64) bool { return candidate > best })
}

// Coldest returns the room's minimum temperature. Ties go to the earliest sample.
func (s *Store) Coldest(room string) (Extreme, error) {
	return s.extreme(room, func(candidate, best float64) bool { return candidate < best })
}

func (s *Store) extreme(room string, better func(candidate, best float64) bool) (Extreme, error) {
	series, ok := s.Series(room)
	if !ok {
		return Extreme{}, errors.NewNotFoundError("no time series for room %s", room)
	}
	if len(series.Samples) == 0 {
		return Extreme{}, errors.NewNotFoundError("room %s has no samples", room)
	}

	best := series.Samples[0]
	for _, sample := range series.Samples[1:] {
		// Strict comparison keeps the chronologically first sample on ties
		if better(sample.Temperature, best.Temperature) {
			best = sample
		}
	}
	return Extreme{Room: room, Value: best.Temperature, Timestamp: best.Timestamp}, nil
}

// OccupancyPattern returns the ascending, de-duplicated hours of day, in the
// store's location, in which the room was occupied at least once. A known room that was never
// occupied yields an empty slice.
func (s *Store) OccupancyPattern(room string) ([]int, error) {
	series, ok := s.Series(room)
	if !ok {
		return nil, errors.NewNotFoundError("no time series for room %s", room)
	}
	return occupiedHours(series, s.loc), nil
}

func occupiedHours(series building.RoomTimeSeries, loc *time.Location) []int {
	var seen [24]bool
	for _, sample := range series.Samples {
		if sample.Occupied {
			seen[sample.Timestamp.In(loc).Hour()] = true
		}
	}
	hours := []int{}
	for h, ok := range seen {
		if ok {
			hours = append(hours, h)
		}
	}
	return hours
}
