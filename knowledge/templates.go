package knowledge

import (
	"strings"

	"github.com/teranos/roomq/intent"
)

// Room numbers are compared as strings because the graph may hold them as
// integers or text
const roomFilter = "toString(r.room_number) = $room"

const acMappingCypher = `MATCH (a:AC_Unit)-[:SERVICES]->(r:Room)
%WHERE%
RETURN a.ac_id AS ac_unit, collect(r.room_number) AS rooms
ORDER BY a.ac_id`

const temperatureExtremeCypher = `MATCH (r:Room)-[:HAS_SENSOR]->(:Sensor {sensor_type: 'temperature'})-[:RECORDED]->(m:Reading)
%WHERE%
WITH r, m ORDER BY m.value %DIR%, m.timestamp ASC
WITH r, collect(m)[0] AS peak
RETURN r.room_number AS room, peak.value AS value, peak.timestamp AS timestamp
ORDER BY toString(room)`

const occupancyPatternCypher = `MATCH (r:Room)-[:HAS_SENSOR]->(:Sensor {sensor_type: 'occupancy'})-[:RECORDED]->(m:Reading)
WHERE m.value = 1%AND%
WITH r, datetime(replace(toString(m.timestamp), ' ', 'T')).hour AS hour
ORDER BY hour
WITH r, collect(DISTINCT hour) AS hours
RETURN r.room_number AS room, hours
ORDER BY toString(room)`

// Template returns the canonical query for a structured intent. The room
// filter is only added when the intent names a room.
func Template(in intent.Intent) (Query, bool) {
	var params map[string]any
	where, and := "", ""
	if in.Room != "" {
		params = map[string]any{"room": in.Room}
		where = "WHERE " + roomFilter
		and = " AND " + roomFilter
	}

	var text string
	switch in.Action {
	case intent.ActionACMapping:
		text = strings.Replace(acMappingCypher, "%WHERE%", where, 1)
	case intent.ActionTemperatureExtreme:
		dir := "DESC"
		if in.Extreme == intent.Coldest {
			dir = "ASC"
		}
		text = strings.Replace(temperatureExtremeCypher, "%WHERE%", where, 1)
		text = strings.Replace(text, "%DIR%", dir, 1)
	case intent.ActionOccupancyPattern:
		text = strings.Replace(occupancyPatternCypher, "%AND%", and, 1)
	default:
		return Query{}, false
	}
	return Query{Text: compact(text), Params: params}, true
}

// compact drops the blank line an unused filter leaves behind
func compact(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
