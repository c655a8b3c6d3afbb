package timeseries

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/errors"
)

// Column names of a room time-series file
const (
	ColTimestamp   = "timestamp"
	ColRoomNumber  = "room_number"
	ColOccSensor   = "sensor_id_occ"
	ColTempSensor  = "sensor_id_temp"
	ColOccupancy   = "occupancy"
	ColTemperature = "temperature"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func readFile(path, roomID string) (building.RoomTimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return building.RoomTimeSeries{}, errors.Wrap(err, "open")
	}
	defer f.Close()
	return parse(f, roomID)
}

// parse reads one room's CSV. Samples come back sorted by timestamp with
// duplicated timestamps collapsed to their first row.
func parse(r io.Reader, roomID string) (building.RoomTimeSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return building.RoomTimeSeries{}, errors.Wrap(err, "read header")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColTimestamp, ColOccupancy, ColTemperature} {
		if _, ok := idx[required]; !ok {
			return building.RoomTimeSeries{}, errors.Newf("missing column %q", required)
		}
	}

	series := building.RoomTimeSeries{RoomID: roomID}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return building.RoomTimeSeries{}, errors.Wrapf(err, "line %d", line)
		}

		ts, err := parseTimestamp(field(record, idx, ColTimestamp))
		if err != nil {
			return building.RoomTimeSeries{}, errors.Wrapf(err, "line %d", line)
		}
		occ, err := strconv.ParseFloat(field(record, idx, ColOccupancy), 64)
		if err != nil {
			return building.RoomTimeSeries{}, errors.Wrapf(err, "line %d: occupancy", line)
		}
		temp, err := strconv.ParseFloat(field(record, idx, ColTemperature), 64)
		if err != nil {
			return building.RoomTimeSeries{}, errors.Wrapf(err, "line %d: temperature", line)
		}

		if series.OccupancySensorID == "" {
			series.OccupancySensorID = field(record, idx, ColOccSensor)
		}
		if series.TemperatureSensorID == "" {
			series.TemperatureSensorID = field(record, idx, ColTempSensor)
		}

		series.Samples = append(series.Samples, building.Sample{
			Timestamp:   ts,
			Occupied:    occ >= 1,
			Temperature: temp,
		})
	}

	sort.SliceStable(series.Samples, func(i, j int) bool {
		return series.Samples[i].Timestamp.Before(series.Samples[j].Timestamp)
	})
	series.Samples = dedupe(series.Samples)
	return series, nil
}

func field(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, errors.Newf("unrecognised timestamp %q", raw)
}

// dedupe keeps the first of each run of equal timestamps; input must be sorted
func dedupe(samples []building.Sample) []building.Sample {
	if len(samples) < 2 {
		return samples
	}
	out := samples[:1]
	for _, s := range samples[1:] {
		if s.Timestamp.Equal(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, s)
	}
	return out
}
