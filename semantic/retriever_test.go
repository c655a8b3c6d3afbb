package semantic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/errors"
)

type fakeSearcher struct {
	hits  []Hit
	err   error
	block bool
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]Hit, error) {
	f.calls++
	if f.block {
		select {}
	}
	return f.hits, f.err
}

type fakeChat struct {
	reply    string
	err      error
	lastUser string
}

func (f *fakeChat) Chat(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	f.lastUser = req.UserPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &openrouter.ChatResponse{Content: f.reply}, nil
}

var sampleHits = []Hit{
	{ID: "a", RoomID: "101", Text: "room 101 temperature sensor TEMP_101 reported 27.30 at 2024-01-01 14:05", Similarity: 0.91},
	{ID: "b", RoomID: "102", Text: "room 102 temperature sensor TEMP_102 reported 22.10 at 2024-01-01 14:05", Similarity: 0.74},
}

func TestRetrieve_AnswersFromHits(t *testing.T) {
	chat := &fakeChat{reply: "  Room 101 was the warmest at 27.3 °C.  "}
	r := NewRetriever(&fakeEmbedder{}, &fakeSearcher{hits: sampleHits}, chat, RetrieverConfig{Timeout: time.Second})

	ans, err := r.Retrieve(context.Background(), "Which room was warmest?")
	require.NoError(t, err)
	assert.Equal(t, "Room 101 was the warmest at 27.3 °C.", ans.Text)
	assert.Equal(t, 0.91, ans.Confidence)
	assert.Len(t, ans.Sources, 2)
	assert.False(t, ans.Empty())
	assert.Contains(t, chat.lastUser, "TEMP_101 reported 27.30")
	assert.Contains(t, chat.lastUser, "Question: Which room was warmest?")
}

func TestRetrieve_NoHitsIsEmptyNotError(t *testing.T) {
	chat := &fakeChat{reply: "unused"}
	r := NewRetriever(&fakeEmbedder{}, &fakeSearcher{}, chat, RetrieverConfig{Timeout: time.Second})

	ans, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, ans.Empty())
	assert.Empty(t, chat.lastUser, "model is not asked without readings")
}

func TestRetrieve_DontKnowIsEmpty(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeSearcher{hits: sampleHits}, &fakeChat{reply: "I don't know."}, RetrieverConfig{Timeout: time.Second})
	ans, err := r.Retrieve(context.Background(), "who lives in 101?")
	require.NoError(t, err)
	assert.True(t, ans.Empty())
}

func TestRetrieve_WithoutModelReturnsReadings(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeSearcher{hits: sampleHits}, nil, RetrieverConfig{Timeout: time.Second})
	ans, err := r.Retrieve(context.Background(), "temperatures")
	require.NoError(t, err)
	assert.Equal(t, sampleHits[0].Text+"\n"+sampleHits[1].Text, ans.Text)
}

func TestRetrieve_FailuresAreRetrievalErrors(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		searcher *fakeSearcher
		chat     *fakeChat
	}{
		{"embedding fails", &fakeEmbedder{err: errors.New("401")}, &fakeSearcher{}, &fakeChat{}},
		{"search fails", &fakeEmbedder{}, &fakeSearcher{err: errors.New("no such function: vec_distance_L2")}, &fakeChat{}},
		{"answer fails", &fakeEmbedder{}, &fakeSearcher{hits: sampleHits}, &fakeChat{err: errors.New("502")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetriever(tt.embedder, tt.searcher, tt.chat, RetrieverConfig{Timeout: time.Second})
			_, err := r.Retrieve(context.Background(), "question")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrRetrieval))
		})
	}
}

func TestRetrieve_HangingSearchTimesOut(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeSearcher{block: true}, nil, RetrieverConfig{Timeout: 30 * time.Millisecond})
	_, err := r.Retrieve(context.Background(), "question")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRetrieval))
	assert.True(t, errors.IsTimeoutError(err))
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	s := &fakeSearcher{}
	r := NewRetriever(&fakeEmbedder{}, s, nil, RetrieverConfig{})
	_, err := r.Retrieve(context.Background(), "   ")
	assert.True(t, errors.Is(err, errors.ErrRetrieval))
	assert.Zero(t, s.calls)
}

func TestIsDontKnow(t *testing.T) {
	assert.True(t, IsDontKnow("I don't know."))
	assert.True(t, IsDontKnow("Sorry, I DO NOT KNOW that"))
	assert.True(t, IsDontKnow("I’m not sure... I don’t know"))
	assert.False(t, IsDontKnow("Room 101 is occupied"))
	assert.False(t, IsDontKnow(""))
}
