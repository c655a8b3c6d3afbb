package building

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingText(t *testing.T) {
	ts := time.Date(2024, 1, 1, 8, 5, 0, 0, time.UTC)

	temp := Reading{SensorID: "TEMP_101", Timestamp: ts, Value: 23.4}
	assert.Equal(t, "room 101 temperature sensor TEMP_101 reported 23.40 at 2024-01-01 08:05",
		temp.Text("101", KindTemperature))

	occ := Reading{SensorID: "OCC_101", Timestamp: ts, Value: 1}
	assert.Equal(t, "room 101 occupancy sensor OCC_101 reported occupied at 2024-01-01 08:05",
		occ.Text("101", KindOccupancy))
}

func TestRoomTimeSeries_Readings(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := RoomTimeSeries{
		RoomID:              "102",
		OccupancySensorID:   "OCC_102",
		TemperatureSensorID: "TEMP_102",
		Samples: []Sample{
			{Timestamp: t0, Occupied: true, Temperature: 21},
			{Timestamp: t0.Add(5 * time.Minute), Occupied: false, Temperature: 21.5},
		},
	}

	pairs := s.Readings()
	require.Len(t, pairs, 2)
	assert.Equal(t, 1.0, pairs[0].Occupancy.Value)
	assert.Equal(t, "OCC_102", pairs[0].Occupancy.SensorID)
	assert.Equal(t, 0.0, pairs[1].Occupancy.Value)
	assert.Equal(t, 21.5, pairs[1].Temperature.Value)
	assert.Equal(t, "TEMP_102", pairs[1].Temperature.SensorID)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, t0.Add(5*time.Minute), latest.Timestamp)

	_, ok = RoomTimeSeries{}.Latest()
	assert.False(t, ok)
}
