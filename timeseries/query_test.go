package timeseries

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/errors"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func TestHottest_TieGoesToEarliest(t *testing.T) {
	store := NewFromSeries(building.RoomTimeSeries{
		RoomID: "101",
		Samples: []building.Sample{
			{Timestamp: at(0), Temperature: 22.0},
			{Timestamp: at(14 * time.Hour), Temperature: 27.3},
			{Timestamp: at(15 * time.Hour), Temperature: 27.3},
			{Timestamp: at(16 * time.Hour), Temperature: 25.0},
		},
	})

	got, err := store.Hottest("101")
	require.NoError(t, err)
	assert.Equal(t, Extreme{Room: "101", Value: 27.3, Timestamp: at(14 * time.Hour)}, got)
}

func TestColdest(t *testing.T) {
	store := NewFromSeries(building.RoomTimeSeries{
		RoomID: "102",
		Samples: []building.Sample{
			{Timestamp: at(0), Temperature: 19.5},
			{Timestamp: at(time.Hour), Temperature: 18.1},
			{Timestamp: at(2 * time.Hour), Temperature: 18.1},
		},
	})

	got, err := store.Coldest("102")
	require.NoError(t, err)
	assert.Equal(t, 18.1, got.Value)
	assert.Equal(t, at(time.Hour), got.Timestamp)
}

func TestExtreme_NotFound(t *testing.T) {
	store := NewFromSeries(building.RoomTimeSeries{RoomID: "empty"})

	_, err := store.Hottest("999")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = store.Coldest("empty")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestOccupancyPattern(t *testing.T) {
	store := NewFromSeries(
		building.RoomTimeSeries{
			RoomID: "101",
			Samples: []building.Sample{
				{Timestamp: at(8 * time.Hour), Occupied: true},
				{Timestamp: at(7*time.Hour + 5*time.Minute), Occupied: true},
				{Timestamp: at(7 * time.Hour), Occupied: true},
				{Timestamp: at(9 * time.Hour), Occupied: false},
				{Timestamp: at(24*time.Hour + 8*time.Hour), Occupied: true},
			},
		},
		building.RoomTimeSeries{
			RoomID:  "102",
			Samples: []building.Sample{{Timestamp: at(0), Occupied: false}},
		},
	)

	hours, err := store.OccupancyPattern("101")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, hours)

	hours, err = store.OccupancyPattern("102")
	require.NoError(t, err)
	assert.NotNil(t, hours)
	assert.Empty(t, hours)

	_, err = store.OccupancyPattern("999")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestOccupancyPattern_Location(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	series := building.RoomTimeSeries{
		RoomID:  "101",
		Samples: []building.Sample{{Timestamp: at(7 * time.Hour), Occupied: true}},
	}
	store := NewFromSeries(series)
	WithLocation(amsterdam)(store)

	hours, err := store.OccupancyPattern("101")
	require.NoError(t, err)
	// 07:00 UTC in January is 08:00 in Amsterdam
	assert.Equal(t, []int{8}, hours)
}
