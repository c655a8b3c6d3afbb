package intent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/ai/provider"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/deadline"
	"github.com/teranos/roomq/logger"
)

const classifySystemPrompt = `You classify questions about a dormitory building with rooms, AC units and sensors.
Reply with a single JSON object and nothing else:
{"action": "<action>", "room": "<room number>" or null}

Valid actions:
- "hottest": the highest temperature of a room or of every room
- "coldest": the lowest temperature of a room or of every room
- "occupancy_pattern": when a room is usually occupied
- "ac_mapping": which AC unit services which rooms
- "forecast": predictions, projections or trends of future occupancy
- "fallback": anything else

Set "room" only when the question names a specific room.`

// modelReply is the JSON object the model is asked for
type modelReply struct {
	Action string          `json:"action"`
	Room   json.RawMessage `json:"room"`
}

// ModelClassifier delegates classification to a language model.
// Its output is not deterministic.
type ModelClassifier struct {
	client  provider.AIClient
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewModelClassifier creates a ModelClassifier. timeout bounds each model call.
func NewModelClassifier(client provider.AIClient, timeout time.Duration, log *zap.SugaredLogger) *ModelClassifier {
	return &ModelClassifier{client: client, timeout: timeout, log: logger.OrNop(log)}
}

// Classify asks the model for a JSON intent. Any transport, parse or schema
// failure yields Fallback() and an error marked errors.ErrClassification.
func (m *ModelClassifier) Classify(ctx context.Context, question string) (Intent, error) {
	if m.client == nil {
		return Fallback(), errors.WrapAs(errors.ErrClassification, errors.ErrServiceUnavailable, "no model configured")
	}

	resp, err := deadline.Run(ctx, "classify", m.timeout, func(ctx context.Context) (*openrouter.ChatResponse, error) {
		return m.client.Chat(ctx, openrouter.ChatRequest{
			SystemPrompt: classifySystemPrompt,
			UserPrompt:   question,
		})
	})
	if err != nil {
		return Fallback(), errors.WrapAs(errors.ErrClassification, err, "classifier model call failed")
	}

	in, err := ParseModelReply(resp.Content)
	if err != nil {
		logger.FromContext(ctx, m.log).Debugw("Unparseable classifier reply", "reply", resp.Content)
		return Fallback(), err
	}
	return in, nil
}

// Strategy returns StrategyModel
func (m *ModelClassifier) Strategy() Strategy {
	return StrategyModel
}

// ParseModelReply turns a model reply into an Intent. The reply may be
// wrapped in a markdown code fence or surrounded by prose.
func ParseModelReply(content string) (Intent, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return Fallback(), errors.Mark(errors.Newf("no JSON object in classifier reply %q", truncate(content, 120)), errors.ErrClassification)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return Fallback(), errors.WrapAs(errors.ErrClassification, err, "decode classifier reply")
	}

	var in Intent
	switch strings.ToLower(strings.TrimSpace(reply.Action)) {
	case "hottest":
		in = Intent{Action: ActionTemperatureExtreme, Extreme: Hottest}
	case "coldest":
		in = Intent{Action: ActionTemperatureExtreme, Extreme: Coldest}
	case string(ActionOccupancyPattern):
		in = Intent{Action: ActionOccupancyPattern}
	case string(ActionACMapping):
		in = Intent{Action: ActionACMapping}
	case string(ActionForecast):
		in = Intent{Action: ActionForecast}
	case string(ActionFallback):
		in = Fallback()
	default:
		return Fallback(), errors.Mark(errors.Newf("unknown action %q", reply.Action), errors.ErrClassification)
	}

	in.Room = replyRoom(reply.Room)
	return in, nil
}

// replyRoom accepts the room as a string or a bare number; anything else is no room
func replyRoom(raw json.RawMessage) string {
	var room string
	if err := json.Unmarshal(raw, &room); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		room = n.String()
	}
	room = strings.TrimSpace(room)
	if room == "" || strings.EqualFold(room, "null") {
		return ""
	}
	return strings.ToUpper(strings.TrimPrefix(strings.ToLower(room), "room "))
}

// extractJSONObject returns the outermost {...} in s
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
