package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/intent"
	"github.com/teranos/roomq/knowledge"
	"github.com/teranos/roomq/logger"
)

// ResolveGenerated answers question with a translated graph query instead of
// a template. The generated Cypher is returned in Outcome.Query whenever one
// was produced, including when the write guard refused it.
func (o *Orchestrator) ResolveGenerated(ctx context.Context, question string) Outcome {
	ctx = withRequestID(ctx)
	log := logger.FromContext(ctx, o.log)
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return Unresolvable(ReasonEmptyQuestion)
	}
	if o.deps.Translator == nil {
		return Unresolvable(ReasonTranslatorMissing)
	}

	q, err := o.deps.Translator.Translate(ctx, question)
	if err != nil {
		log.Warnw("Query translation failed", logger.FieldError, err.Error())
		if errors.Is(err, errors.ErrCannotTranslate) {
			return Unresolvable(ReasonCannotTranslate)
		}
		return Unresolvable(ReasonTranslationFailed)
	}

	out := o.runGenerated(ctx, q)
	out.Query = q.Text
	out.Intent = intent.Fallback()
	out.Attempts = []Attempt{{
		Stage:      StageGeneratedQuery,
		Status:     statusOf(out),
		Error:      out.Reason,
		DurationMS: time.Since(start).Milliseconds(),
	}}
	log.Infow("Generated query resolved",
		logger.FieldQuery, q.Text,
		logger.FieldOutcome, out.Kind,
		logger.FieldReason, out.Reason)
	return out
}

func (o *Orchestrator) runGenerated(ctx context.Context, q knowledge.Query) Outcome {
	if err := knowledge.CheckReadOnly(q.Text); err != nil {
		return Unresolvable(ReasonNotReadOnly)
	}
	if o.deps.Executor == nil {
		return Unresolvable(ReasonGeneratedQueryFail)
	}

	rows, err := o.deps.Executor.Execute(ctx, q)
	switch {
	case errors.Is(err, errors.ErrReadOnlyViolation):
		return Unresolvable(ReasonNotReadOnly)
	case err != nil:
		return Unresolvable(ReasonGeneratedQueryFail + ": " + errors.UnwrapAll(err).Error())
	case len(rows) == 0:
		return Unresolvable(ReasonNoRows)
	}

	return Outcome{
		Kind:  KindAnswer,
		Text:  knowledge.Format(intent.Fallback(), rows),
		Rows:  rows,
		Stage: StageGeneratedQuery,
	}
}

func statusOf(out Outcome) string {
	if out.Answered() {
		return "answered"
	}
	return "empty"
}
