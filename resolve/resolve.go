// Package resolve is the question-answering cascade. A question is
// classified once, then handed through an ordered list of stages until one
// of them answers; stage failures are logged and treated as empty.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/forecast"
	"github.com/teranos/roomq/intent"
	"github.com/teranos/roomq/knowledge"
	"github.com/teranos/roomq/logger"
	"github.com/teranos/roomq/semantic"
	"github.com/teranos/roomq/timeseries"
)

// QueryExecutor runs read-only graph queries
type QueryExecutor interface {
	Execute(ctx context.Context, q knowledge.Query) ([]knowledge.Row, error)
}

// Translator turns a question into a graph query
type Translator interface {
	Translate(ctx context.Context, question string) (knowledge.Query, error)
}

// Retriever answers from the vector index
type Retriever interface {
	Retrieve(ctx context.Context, question string) (semantic.Answer, error)
}

// Tables is the in-memory time-series store
type Tables interface {
	Rooms() []string
	All() map[string]building.RoomTimeSeries
	Hottest(room string) (timeseries.Extreme, error)
	Coldest(room string) (timeseries.Extreme, error)
	OccupancyPattern(room string) ([]int, error)
}

// Forecaster computes occupancy forecasts
type Forecaster interface {
	Forecast(series map[string]building.RoomTimeSeries) forecast.Result
}

// Responder answers questions no other stage understands
type Responder interface {
	Respond(ctx context.Context, question string) (string, error)
}

// Deps are the collaborators of an Orchestrator. Only Classifier is
// required; a missing collaborator makes its stage report empty.
type Deps struct {
	Classifier intent.Classifier
	Executor   QueryExecutor
	Translator Translator
	Retriever  Retriever
	Tables     Tables
	Forecaster Forecaster
	Responder  Responder
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// Orchestrator resolves questions. It holds no per-request state and
// resolves one question at a time per call.
type Orchestrator struct {
	deps Deps
	log  *zap.SugaredLogger
}

// stage is one entry of a cascade plan
type stage struct {
	name Stage
	run  func(ctx context.Context, in intent.Intent, question string) StageResult
}

// New creates an Orchestrator
func New(deps Deps, opts ...Option) *Orchestrator {
	if deps.Classifier == nil {
		deps.Classifier = intent.NewRuleClassifier()
	}
	if deps.Forecaster == nil {
		deps.Forecaster = forecast.New(forecast.DefaultThreshold, time.UTC)
	}
	o := &Orchestrator{deps: deps}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logger.OrNop(o.log)
	return o
}

// Resolve answers question. It never returns an error and never panics:
// every failure ends up as a logged stage failure or an Unresolvable outcome.
func (o *Orchestrator) Resolve(ctx context.Context, question string) (out Outcome) {
	ctx = withRequestID(ctx)
	log := logger.FromContext(ctx, o.log)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Resolution panicked", logger.FieldError, fmt.Sprint(r))
			out = Unresolvable(ReasonNotUnderstood)
		}
		log.Infow("Question resolved",
			logger.FieldIntent, out.Intent.String(),
			logger.FieldOutcome, out.Kind,
			logger.FieldStage, out.Stage,
			logger.FieldReason, out.Reason,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return Unresolvable(ReasonEmptyQuestion)
	}

	in, err := o.deps.Classifier.Classify(ctx, question)
	if err != nil {
		// Classifiers hand back the fallback intent with their error
		log.Warnw("Classification failed, using fallback intent",
			logger.FieldStrategy, o.deps.Classifier.Strategy(),
			logger.FieldError, err.Error())
		in = intent.Fallback()
	}
	log.Debugw("Classified", logger.FieldQuestion, question, logger.FieldIntent, in.String())

	out = o.cascade(ctx, log, in, question, o.plan(in))
	out.Intent = in
	return out
}

// plan is the ordered stage list for an intent
func (o *Orchestrator) plan(in intent.Intent) []stage {
	switch {
	case in.Action == intent.ActionForecast:
		return []stage{{StageForecast, o.forecastStage}}
	case in.Structured():
		plan := []stage{{StageStructuredQuery, o.structuredStage}}
		if o.deps.Classifier.Strategy() == intent.StrategyModel {
			plan = append(plan, stage{StageSemanticFallback, o.semanticStage})
		}
		return append(plan, stage{StageTabularFallback, o.tabularStage})
	default:
		return []stage{{StageGeneralLLM, o.generalStage}}
	}
}

// cascade runs each stage at most once and returns the first answer
func (o *Orchestrator) cascade(ctx context.Context, log *zap.SugaredLogger, in intent.Intent, question string, plan []stage) Outcome {
	reason := ReasonNotUnderstood
	var attempts []Attempt

	for _, st := range plan {
		start := time.Now()
		res := runStage(ctx, st, in, question)
		attempt := Attempt{Stage: st.name, DurationMS: time.Since(start).Milliseconds()}

		switch {
		case res.Err != nil:
			attempt.Status = "failed"
			attempt.Error = res.Err.Error()
			log.Warnw("Stage failed",
				logger.FieldStage, st.name,
				logger.FieldIntent, in.String(),
				logger.FieldError, errors.StageError(string(st.name), res.Err))
		case res.Outcome != nil:
			attempt.Status = "answered"
			out := *res.Outcome
			out.Stage = st.name
			out.Attempts = append(attempts, attempt)
			return out
		default:
			attempt.Status = "empty"
			log.Debugw("Stage empty", logger.FieldStage, st.name, logger.FieldReason, res.Reason)
		}

		if res.Reason != "" {
			reason = res.Reason
		}
		attempts = append(attempts, attempt)
	}

	out := Unresolvable(reason)
	out.Attempts = attempts
	return out
}

// runStage contains a panicking stage to a failed result
func runStage(ctx context.Context, st stage, in intent.Intent, question string) (res StageResult) {
	defer func() {
		if r := recover(); r != nil {
			res = failed(errors.Newf("%s panicked: %v", st.name, r))
		}
	}()
	return st.run(ctx, in, question)
}

func withRequestID(ctx context.Context) context.Context {
	if len(logger.FieldsFromContext(ctx)) > 0 {
		return ctx
	}
	return logger.WithRequestID(ctx, uuid.NewString()[:8])
}
