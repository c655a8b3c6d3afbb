package resolve

import (
	"context"
	"strings"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/intent"
	"github.com/teranos/roomq/knowledge"
)

// structuredStage runs the intent's canonical graph query
func (o *Orchestrator) structuredStage(ctx context.Context, in intent.Intent, _ string) StageResult {
	if o.deps.Executor == nil {
		return empty("")
	}
	q, ok := knowledge.Template(in)
	if !ok {
		return empty("")
	}

	rows, err := o.deps.Executor.Execute(ctx, q)
	if err != nil {
		return failed(err)
	}
	if len(rows) == 0 {
		return empty(emptyReason(in))
	}

	res := answer(knowledge.Format(in, rows))
	res.Outcome.Rows = rows
	res.Outcome.Query = q.Text
	return res
}

func emptyReason(in intent.Intent) string {
	switch {
	case in.Action == intent.ActionACMapping:
		return ReasonNoACMapping
	case in.Room != "":
		return NoDataForRoom(in.Room)
	}
	return ReasonNoData
}

// semanticStage asks the vector index. A "don't know" answer is empty.
func (o *Orchestrator) semanticStage(ctx context.Context, _ intent.Intent, question string) StageResult {
	if o.deps.Retriever == nil {
		return empty("")
	}
	ans, err := o.deps.Retriever.Retrieve(ctx, question)
	if err != nil {
		return failed(err)
	}
	if ans.Empty() {
		return empty("")
	}
	return answer(ans.Text)
}

// tabularStage aggregates the time-series tables directly: the target room,
// or every room in room order, one line each
func (o *Orchestrator) tabularStage(_ context.Context, in intent.Intent, _ string) StageResult {
	if in.Action == intent.ActionACMapping {
		// The tables know nothing about AC units
		return empty(ReasonNoACMapping)
	}
	if o.deps.Tables == nil {
		return empty(ReasonTablesUnavailable)
	}

	rooms := o.deps.Tables.Rooms()
	if in.Room != "" {
		rooms = []string{in.Room}
	}
	if len(rooms) == 0 {
		return empty(ReasonNoData)
	}

	lines := make([]string, 0, len(rooms))
	for _, room := range rooms {
		line, err := o.tabularLine(in, room)
		if errors.IsNotFoundError(err) {
			if in.Room != "" {
				return empty(NoDataForRoom(room))
			}
			line = noDataLine(in, room)
		} else if err != nil {
			return failed(err)
		}
		lines = append(lines, line)
	}
	return answer(strings.Join(lines, "\n"))
}

func (o *Orchestrator) tabularLine(in intent.Intent, room string) (string, error) {
	switch in.Action {
	case intent.ActionTemperatureExtreme:
		lookup := o.deps.Tables.Hottest
		if in.Extreme == intent.Coldest {
			lookup = o.deps.Tables.Coldest
		}
		ext, err := lookup(room)
		if err != nil {
			return "", err
		}
		return knowledge.FormatExtreme(in.Extreme, room, ext.Value, ext.Timestamp), nil
	case intent.ActionOccupancyPattern:
		hours, err := o.deps.Tables.OccupancyPattern(room)
		if err != nil {
			return "", err
		}
		return knowledge.FormatOccupancy(room, hours), nil
	}
	return "", errors.Newf("no tabular lookup for %s", in.Action)
}

func noDataLine(in intent.Intent, room string) string {
	if in.Action == intent.ActionOccupancyPattern {
		return "No occupancy data for room " + room
	}
	return "No temperature data for room " + room
}

// forecastStage computes the occupancy forecast over every room, or over the
// named room only
func (o *Orchestrator) forecastStage(_ context.Context, in intent.Intent, _ string) StageResult {
	if o.deps.Tables == nil {
		return empty(ReasonTablesUnavailable)
	}

	series := o.deps.Tables.All()
	if in.Room != "" {
		rs, ok := series[in.Room]
		if !ok {
			return empty(NoDataForRoom(in.Room))
		}
		series = map[string]building.RoomTimeSeries{in.Room: rs}
	}
	if !hasSamples(series) {
		return empty(ReasonNoHistory)
	}

	result := o.deps.Forecaster.Forecast(series)
	res := answer(result.Summary())
	res.Outcome.Forecast = &result
	return res
}

func hasSamples(series map[string]building.RoomTimeSeries) bool {
	for _, rs := range series {
		if len(rs.Samples) > 0 {
			return true
		}
	}
	return false
}

// generalStage hands the raw question to the general language model and
// returns its reply verbatim
func (o *Orchestrator) generalStage(ctx context.Context, _ intent.Intent, question string) StageResult {
	if o.deps.Responder == nil {
		return empty(ReasonNotUnderstood)
	}
	text, err := o.deps.Responder.Respond(ctx, question)
	if err != nil {
		return failed(err)
	}
	if strings.TrimSpace(text) == "" {
		return empty(ReasonNotUnderstood)
	}
	return answer(text)
}
