// Package building holds the domain types shared by every roomq component:
// rooms, AC units, sensors and the readings they produce.
package building

import (
	"fmt"
	"time"
)

// RoomCategory distinguishes rooms people live in from plant rooms
type RoomCategory string

const (
	CategoryDormitory  RoomCategory = "dormitory"
	CategoryMechanical RoomCategory = "mechanical"
)

// Room is a physical room in the building
type Room struct {
	ID       string       `json:"id"`
	Category RoomCategory `json:"category"`
}

// ACUnit is a climate-control unit. It SERVICES one or more dormitory rooms
// and is CONTAINED in a mechanical room.
type ACUnit struct {
	ID string `json:"id"`
}

// SensorKind is what a sensor measures
type SensorKind string

const (
	KindOccupancy   SensorKind = "occupancy"
	KindTemperature SensorKind = "temperature"
)

// Sensor is attached to exactly one room, and optionally to an AC unit
type Sensor struct {
	ID       string     `json:"id"`
	Kind     SensorKind `json:"kind"`
	RoomID   string     `json:"room_id"`
	ACUnitID string     `json:"ac_unit_id,omitempty"`
}

// Reading is one immutable measurement
type Reading struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ReadingTimeLayout is how reading timestamps are rendered in text
const ReadingTimeLayout = "2006-01-02 15:04"

// Text renders the reading as the sentence that gets embedded into the
// vector index, e.g. "room 101 temperature sensor TEMP_101 reported 23.40 at 2024-01-01 08:05".
func (r Reading) Text(roomID string, kind SensorKind) string {
	value := fmt.Sprintf("%.2f", r.Value)
	if kind == KindOccupancy {
		value = "vacant"
		if r.Value >= 1 {
			value = "occupied"
		}
	}
	return fmt.Sprintf("room %s %s sensor %s reported %s at %s",
		roomID, kind, r.SensorID, value, r.Timestamp.UTC().Format(ReadingTimeLayout))
}

// Sample is one row of a room's time series
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	Occupied    bool      `json:"occupied"`
	Temperature float64   `json:"temperature"`
}

// RoomTimeSeries is the ordered sample history of one room.
// Timestamps are strictly increasing.
type RoomTimeSeries struct {
	RoomID              string   `json:"room_id"`
	OccupancySensorID   string   `json:"occupancy_sensor_id"`
	TemperatureSensorID string   `json:"temperature_sensor_id"`
	Samples             []Sample `json:"samples"`
}

// Latest returns the most recent sample
func (s RoomTimeSeries) Latest() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}

// ReadingPair is the two readings a sample expands into
type ReadingPair struct {
	Occupancy   Reading
	Temperature Reading
}

// Readings expands every sample into the readings of the room's two sensors
func (s RoomTimeSeries) Readings() []ReadingPair {
	out := make([]ReadingPair, 0, len(s.Samples))
	for _, sample := range s.Samples {
		occ := 0.0
		if sample.Occupied {
			occ = 1
		}
		out = append(out, ReadingPair{
			Occupancy:   Reading{SensorID: s.OccupancySensorID, Timestamp: sample.Timestamp, Value: occ},
			Temperature: Reading{SensorID: s.TemperatureSensorID, Timestamp: sample.Timestamp, Value: sample.Temperature},
		})
	}
	return out
}
