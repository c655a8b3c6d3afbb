package resolve

import (
	"github.com/teranos/roomq/forecast"
	"github.com/teranos/roomq/intent"
	"github.com/teranos/roomq/knowledge"
)

// Kind tags an Outcome
type Kind string

const (
	KindAnswer       Kind = "answer"
	KindUnresolvable Kind = "unresolvable"
)

// Stage names one step of the cascade
type Stage string

const (
	StageClassify         Stage = "classify"
	StageStructuredQuery  Stage = "structured_query"
	StageSemanticFallback Stage = "semantic_fallback"
	StageTabularFallback  Stage = "tabular_fallback"
	StageForecast         Stage = "forecast"
	StageGeneralLLM       Stage = "general_llm"
	StageGeneratedQuery   Stage = "generated_query"
)

// Unresolvable reasons shown to the user
const (
	ReasonEmptyQuestion      = "question is empty"
	ReasonNotUnderstood      = "question not understood"
	ReasonNoACMapping        = "I couldn't find any AC-unit → room mapping in the database."
	ReasonTablesUnavailable  = "time-series data unavailable"
	ReasonNoHistory          = "no occupancy history available"
	ReasonNoData             = "no data found"
	ReasonCannotTranslate    = "the question cannot be answered with the current schema"
	ReasonNotReadOnly        = "the generated query is not read-only"
	ReasonTranslationFailed  = "query translation failed"
	ReasonTranslatorMissing  = "query translation is not configured"
	ReasonGeneratedQueryFail = "the generated query failed"
	ReasonNoRows             = "the query returned no rows"
)

// NoDataForRoom is the reason given when a named room has no data
func NoDataForRoom(room string) string {
	return "no data for room " + room
}

// Attempt records what one stage did
type Attempt struct {
	Stage      Stage  `json:"stage"`
	Status     string `json:"status"` // answered, empty or failed
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Outcome is the terminal value of a resolution: an answer or an
// unresolvable reason, never both
type Outcome struct {
	Kind     Kind             `json:"kind"`
	Text     string           `json:"text,omitempty"`
	Rows     []knowledge.Row  `json:"rows,omitempty"`
	Forecast *forecast.Result `json:"forecast,omitempty"`
	Reason   string           `json:"reason,omitempty"`

	Stage    Stage         `json:"stage,omitempty"`
	Intent   intent.Intent `json:"intent"`
	Query    string        `json:"query,omitempty"`
	Attempts []Attempt     `json:"attempts,omitempty"`
}

// Answered reports whether the outcome carries an answer
func (o Outcome) Answered() bool {
	return o.Kind == KindAnswer
}

// Unresolvable builds an unresolvable outcome
func Unresolvable(reason string) Outcome {
	return Outcome{Kind: KindUnresolvable, Reason: reason}
}

// StageResult is what a stage hands back to the cascade loop. A result with
// neither Outcome nor Err is empty and the loop moves on; Reason, when set,
// explains the emptiness to the user if no later stage answers.
type StageResult struct {
	Outcome *Outcome
	Err     error
	Reason  string
}

func answer(text string) StageResult {
	return StageResult{Outcome: &Outcome{Kind: KindAnswer, Text: text}}
}

func empty(reason string) StageResult {
	return StageResult{Reason: reason}
}

func failed(err error) StageResult {
	return StageResult{Err: err}
}
