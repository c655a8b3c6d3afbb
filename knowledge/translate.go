package knowledge

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/ai/provider"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/deadline"
	"github.com/teranos/roomq/logger"
)

// CannotAnswer is the reply the translator is told to give when the schema
// cannot express the question
const CannotAnswer = "Cannot answer with the current schema."

// Schema describes the building graph to the translating model
const Schema = `Nodes:
  (:Room {room_number, type})          type is 'dorm' or 'mechanical'
  (:AC_Unit {ac_id})                   ac_id is 'AC1', 'AC2', ...
  (:Sensor {sensor_id, sensor_type})   sensor_type is 'occupancy' or 'temperature'
  (:Reading {timestamp, value})
Relationships:
  (:Room)-[:CONTAINS]->(:AC_Unit)      mechanical rooms contain AC units
  (:AC_Unit)-[:SERVICES]->(:Room)
  (:Room)-[:HAS_SENSOR]->(:Sensor)
  (:Sensor)-[:REPORTS_TO]->(:AC_Unit)
  (:Sensor)-[:RECORDED]->(:Reading)`

const translateSystemPrompt = `You translate questions about a dormitory building into a single read-only Neo4j Cypher query.

Schema:
` + Schema + `

Guidelines:
- "air conditioning unit N", "AC N", "acN" and "ac N" all mean ac_id = 'ACN'.
- Only read: never CREATE, MERGE, SET, DELETE, REMOVE or DROP.
- Output only the Cypher query, no explanation and no code fences.
- If the schema cannot answer the question, output exactly: ` + CannotAnswer + `

Examples:
Question: Which rooms have AC1?
MATCH (a:AC_Unit {ac_id:'AC1'})-[:SERVICES]->(r:Room) RETURN r.room_number

Question: What rooms are serviced by air conditioning unit 2?
MATCH (a:AC_Unit {ac_id:'AC2'})-[:SERVICES]->(r:Room) RETURN r.room_number`

var (
	codeFence    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	cypherPrefix = regexp.MustCompile(`(?i)^cypher\s*:?\s*`)
)

// Translator turns questions into Cypher with a language model
type Translator struct {
	client  provider.AIClient
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewTranslator creates a Translator. timeout bounds each model call.
func NewTranslator(client provider.AIClient, timeout time.Duration, log *zap.SugaredLogger) *Translator {
	return &Translator{client: client, timeout: timeout, log: logger.OrNop(log)}
}

// Translate returns the generated query. The model's "cannot answer" reply
// is errors.ErrCannotTranslate. The result is not checked for writes; run it
// through an Executor.
func (t *Translator) Translate(ctx context.Context, question string) (Query, error) {
	if t.client == nil {
		return Query{}, errors.Mark(errors.New("no model configured for query translation"), errors.ErrServiceUnavailable)
	}

	temperature := 0.0
	resp, err := deadline.Run(ctx, "translate", t.timeout, func(ctx context.Context) (*openrouter.ChatResponse, error) {
		return t.client.Chat(ctx, openrouter.ChatRequest{
			SystemPrompt: translateSystemPrompt,
			UserPrompt:   "Question: " + question,
			Temperature:  &temperature,
		})
	})
	if err != nil {
		return Query{}, errors.Wrap(err, "query translation failed")
	}

	cypher := CleanCypher(resp.Content)
	if cypher == "" || strings.Contains(cypher, strings.TrimSuffix(CannotAnswer, ".")) {
		return Query{}, errors.Wrapf(errors.ErrCannotTranslate, "%q", question)
	}

	logger.FromContext(ctx, t.log).Debugw("Translated question", logger.FieldQuery, cypher)
	return Query{Text: cypher}, nil
}

// CleanCypher strips code fences and a leading "cypher" label from model output
func CleanCypher(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = cypherPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}
