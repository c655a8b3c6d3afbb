package semantic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/ai/provider"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/deadline"
	"github.com/teranos/roomq/logger"
)

// Searcher finds the readings closest to an embedding
type Searcher interface {
	Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]Hit, error)
}

// Answer is the retriever's reply. An empty Text means nothing relevant was found.
type Answer struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // similarity of the best hit
	Sources    []Hit   `json:"sources,omitempty"`
}

// Empty reports whether the answer carries no usable text
func (a Answer) Empty() bool {
	return strings.TrimSpace(a.Text) == "" || IsDontKnow(a.Text)
}

// RetrieverConfig tunes a Retriever
type RetrieverConfig struct {
	TopK      int
	Threshold float64
	Timeout   time.Duration // bounds each embedding, search and answer call
	Logger    *zap.SugaredLogger
}

// Retriever answers questions from the readings nearest to them
type Retriever struct {
	embedder Embedder
	searcher Searcher
	ai       provider.AIClient
	cfg      RetrieverConfig
	log      *zap.SugaredLogger
}

// NewRetriever creates a Retriever. ai may be nil, in which case the
// nearest readings themselves are the answer.
func NewRetriever(embedder Embedder, searcher Searcher, ai provider.AIClient, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		ai:       ai,
		cfg:      cfg,
		log:      logger.OrNop(cfg.Logger),
	}
}

const answerSystemPrompt = `You answer questions about a dormitory building using only the sensor readings provided.
Each reading names the room, the sensor, the value and the time it was recorded.
Answer in one or two sentences. If the readings do not contain the answer, reply exactly: I don't know.`

// Retrieve embeds the question, searches the index and asks the model to
// answer from the hits. Every failure is wrapped as errors.ErrRetrieval.
func (r *Retriever) Retrieve(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, errors.WrapAs(errors.ErrRetrieval, errors.ErrInvalidRequest, "empty question")
	}

	vectors, err := embedTexts(ctx, r.embedder, r.cfg.Timeout, []string{question})
	if err != nil {
		return Answer{}, errors.WrapAs(errors.ErrRetrieval, err, "embed question")
	}

	hits, err := deadline.Run(ctx, "vector search", r.cfg.Timeout, func(ctx context.Context) ([]Hit, error) {
		return r.searcher.Search(ctx, vectors[0], r.cfg.TopK, r.cfg.Threshold)
	})
	if err != nil {
		return Answer{}, errors.WrapAs(errors.ErrRetrieval, err, "vector search")
	}

	log := logger.FromContext(ctx, r.log)
	if len(hits) == 0 {
		log.Debugw("No readings above similarity threshold", "threshold", r.cfg.Threshold)
		return Answer{}, nil
	}

	answer := Answer{Confidence: hits[0].Similarity, Sources: hits}
	if r.ai == nil {
		answer.Text = joinHits(hits)
		return answer, nil
	}

	resp, err := deadline.Run(ctx, "answer synthesis", r.cfg.Timeout, func(ctx context.Context) (*openrouter.ChatResponse, error) {
		return r.ai.Chat(ctx, openrouter.ChatRequest{
			SystemPrompt: answerSystemPrompt,
			UserPrompt:   buildAnswerPrompt(question, hits),
		})
	})
	if err != nil {
		return Answer{}, errors.WrapAs(errors.ErrRetrieval, err, "answer synthesis")
	}

	answer.Text = strings.TrimSpace(resp.Content)
	log.Debugw("Semantic answer",
		logger.FieldCount, len(hits),
		"confidence", answer.Confidence,
		"dont_know", IsDontKnow(answer.Text))
	return answer, nil
}

func buildAnswerPrompt(question string, hits []Hit) string {
	var sb strings.Builder
	sb.WriteString("Readings:\n")
	for _, h := range hits {
		fmt.Fprintf(&sb, "- %s\n", h.Text)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

func joinHits(hits []Hit) string {
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = h.Text
	}
	return strings.Join(lines, "\n")
}

var dontKnowPatterns = []string{
	"i don't know",
	"i don’t know",
	"i do not know",
	"i dont know",
	"i'm not sure",
	"i am not sure",
	"cannot determine",
	"not enough information",
}

// IsDontKnow reports whether text is a model's way of saying it has no answer
func IsDontKnow(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range dontKnowPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
