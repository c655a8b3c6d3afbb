// Package forecast estimates which rooms will be occupied in the coming hour.
//
// The estimator is an hour-of-day frequency table: for every room and every
// hour 0-23 it takes the share of historical samples in that hour that were
// occupied, irrespective of date. Day-of-week, trend and recency are
// deliberately not modelled.
package forecast

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teranos/roomq/building"
)

// DefaultThreshold is the inclusive probability cut-off for "likely occupied"
const DefaultThreshold = 0.5

// Engine computes occupancy forecasts. The zero value uses DefaultThreshold,
// the wall clock and UTC.
type Engine struct {
	Threshold *float64 // nil = DefaultThreshold; 0 is a valid cut-off
	Now       func() time.Time
	Location  *time.Location
}

// New creates an Engine with an explicit threshold and timezone
func New(threshold float64, loc *time.Location) *Engine {
	return &Engine{Threshold: &threshold, Location: loc}
}

// Result is a complete forecast
type Result struct {
	GeneratedAt    time.Time                 `json:"generated_at"`
	TargetHour     int                       `json:"target_hour"`
	TargetTime     time.Time                 `json:"target_time"`
	Threshold      float64                   `json:"threshold"`
	OccupiedNow    []string                  `json:"occupied_now"`
	VacantNow      []string                  `json:"vacant_now"`
	LikelyOccupied []string                  `json:"likely_occupied"`
	Probabilities  map[string]map[int]float64 `json:"probabilities"`
}

func (e *Engine) threshold() float64 {
	if e.Threshold == nil {
		return DefaultThreshold
	}
	return *e.Threshold
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.UTC
}

// CurrentStatus splits rooms by their chronologically last sample. Every
// room with at least one sample lands in exactly one of the two lists.
func (e *Engine) CurrentStatus(series map[string]building.RoomTimeSeries) (occupied, vacant []string) {
	occupied, vacant = []string{}, []string{}
	for room, rs := range series {
		latest, ok := latestSample(rs)
		if !ok {
			continue
		}
		if latest.Occupied {
			occupied = append(occupied, room)
		} else {
			vacant = append(vacant, room)
		}
	}
	sort.Strings(occupied)
	sort.Strings(vacant)
	return occupied, vacant
}

// latestSample does not trust slice order, so hand-built series work too
func latestSample(rs building.RoomTimeSeries) (building.Sample, bool) {
	if len(rs.Samples) == 0 {
		return building.Sample{}, false
	}
	latest := rs.Samples[0]
	for _, s := range rs.Samples[1:] {
		if !s.Timestamp.Before(latest.Timestamp) {
			latest = s
		}
	}
	return latest, true
}

// HourlyProbabilities returns, per room, the mean occupancy of the samples in
// each hour of day. Hours without samples are absent rather than zero.
func (e *Engine) HourlyProbabilities(series map[string]building.RoomTimeSeries) map[string]map[int]float64 {
	loc := e.location()
	out := make(map[string]map[int]float64, len(series))
	for room, rs := range series {
		var occupied, total [24]int
		for _, s := range rs.Samples {
			h := s.Timestamp.In(loc).Hour()
			total[h]++
			if s.Occupied {
				occupied[h]++
			}
		}
		probs := make(map[int]float64)
		for h := 0; h < 24; h++ {
			if total[h] > 0 {
				probs[h] = float64(occupied[h]) / float64(total[h])
			}
		}
		if len(probs) > 0 {
			out[room] = probs
		}
	}
	return out
}

// NextHour returns the hour of day following now in the engine's timezone
func (e *Engine) NextHour(now time.Time) int {
	return (now.In(e.location()).Hour() + 1) % 24
}

// LikelyOccupied returns the rooms whose probability for hour meets the
// threshold. Rooms with no samples in that hour are excluded.
func (e *Engine) LikelyOccupied(probs map[string]map[int]float64, hour int) []string {
	threshold := e.threshold()
	rooms := []string{}
	for room, byHour := range probs {
		if p, ok := byHour[hour]; ok && p >= threshold {
			rooms = append(rooms, room)
		}
	}
	sort.Strings(rooms)
	return rooms
}

// Forecast predicts the hour after now
func (e *Engine) Forecast(series map[string]building.RoomTimeSeries) Result {
	now := e.now()
	return e.forecast(series, now, e.NextHour(now))
}

// ForecastAt predicts an explicit hour of day
func (e *Engine) ForecastAt(series map[string]building.RoomTimeSeries, hour int) Result {
	return e.forecast(series, e.now(), ((hour%24)+24)%24)
}

func (e *Engine) forecast(series map[string]building.RoomTimeSeries, now time.Time, hour int) Result {
	occupied, vacant := e.CurrentStatus(series)
	probs := e.HourlyProbabilities(series)
	return Result{
		GeneratedAt:    now,
		TargetHour:     hour,
		TargetTime:     nextOccurrence(now.In(e.location()), hour),
		Threshold:      e.threshold(),
		OccupiedNow:    occupied,
		VacantNow:      vacant,
		LikelyOccupied: e.LikelyOccupied(probs, hour),
		Probabilities:  probs,
	}
}

// nextOccurrence is the first top of hour at or after now+1h with the given hour
func nextOccurrence(now time.Time, hour int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).Add(time.Hour)
	for i := 0; i < 24 && t.Hour() != hour; i++ {
		t = t.Add(time.Hour)
	}
	return t
}

// Summary renders the forecast as the text answer shown to the user
func (r Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Occupied now: %s\n", listOrDash(r.OccupiedNow))
	fmt.Fprintf(&b, "Vacant now: %s\n", listOrDash(r.VacantNow))
	when := r.TargetTime.Format("2006-01-02 15:00 MST")
	if len(r.LikelyOccupied) == 0 {
		fmt.Fprintf(&b, "Likely occupied at %s: No room crosses the %.0f%% probability threshold for the coming hour.",
			when, r.Threshold*100)
	} else {
		fmt.Fprintf(&b, "Likely occupied at %s: %s", when, strings.Join(r.LikelyOccupied, ", "))
	}
	return b.String()
}

func listOrDash(rooms []string) string {
	if len(rooms) == 0 {
		return "—"
	}
	return strings.Join(rooms, ", ")
}
