package knowledge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/intent"
)

// Format renders rows as answer text, one line per row. Rows that do not
// have the columns an intent's template returns are rendered as key: value.
func Format(in intent.Intent, rows []Row) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, formatRow(in, row))
	}
	return strings.Join(lines, "\n")
}

func formatRow(in intent.Intent, row Row) string {
	switch in.Action {
	case intent.ActionACMapping:
		unit, okU := row["ac_unit"]
		rooms, okR := row["rooms"].([]any)
		if okU && okR {
			return FormatACMapping(toString(unit), toStrings(rooms))
		}
	case intent.ActionTemperatureExtreme:
		room, okR := row["room"]
		value, okV := toFloat(row["value"])
		if okR && okV {
			return FormatExtreme(in.Extreme, toString(room), value, toTime(row["timestamp"]))
		}
	case intent.ActionOccupancyPattern:
		room, okR := row["room"]
		hours, okH := row["hours"].([]any)
		if okR && okH {
			return FormatOccupancy(toString(room), toInts(hours))
		}
	}
	return genericRow(row)
}

// FormatACMapping renders "AC1 → Rooms 101, 102"
func FormatACMapping(unit string, rooms []string) string {
	return fmt.Sprintf("%s → Rooms %s", unit, strings.Join(rooms, ", "))
}

// FormatExtreme renders "Room 101 peaked at 27.3 °C on 2024-01-01 14:05",
// or the coldest equivalent
func FormatExtreme(kind intent.Extreme, room string, value float64, at time.Time) string {
	verb := "peaked at"
	if kind == intent.Coldest {
		verb = "dropped to"
	}
	s := fmt.Sprintf("Room %s %s %.1f °C", room, verb, value)
	if !at.IsZero() {
		s += " on " + at.Format(building.ReadingTimeLayout)
	}
	return s
}

// FormatOccupancy renders "Room 101 is typically occupied during: 7:00, 8:00"
func FormatOccupancy(room string, hours []int) string {
	if len(hours) == 0 {
		return "No occupancy detected in room " + room
	}
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%d:00", h)
	}
	return fmt.Sprintf("Room %s is typically occupied during: %s", room, strings.Join(parts, ", "))
}

func genericRow(row Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, toString(row[k]))
	}
	return strings.Join(parts, ", ")
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		return "[" + strings.Join(toStrings(t), ", ") + "]"
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func toStrings(vs []any) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = toString(v)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func toInts(vs []any) []int {
	out := make([]int, 0, len(vs))
	for _, v := range vs {
		if f, ok := toFloat(v); ok {
			out = append(out, int(f))
		}
	}
	return out
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", building.ReadingTimeLayout}

// toTime understands time.Time, the driver's temporal types (which expose
// Time()) and timestamp strings
func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case interface{ Time() time.Time }:
		return t.Time()
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
