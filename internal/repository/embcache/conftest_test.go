package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/db"
	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/repository/vector"
)

// mockEmbedder returns vec for every text; PromptTokens and TotalTokens count texts.
type mockEmbedder struct {
	vec        []float32
	err        error
	calls      int
	batchCalls int
	lastBatch  []string
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, PromptTokens: 1, TotalTokens: 1}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.lastBatch = append([]string(nil), texts...)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.vec
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: len(texts),
		TotalTokens:  len(texts),
	}, nil
}

type setCall struct {
	key string
	ttl time.Duration
}

// mockKVStore serves data by key; keys absent from data are misses.
type mockKVStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	gets   int
	sets   []setCall
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(_ context.Context, key string, _ []byte) error {
	m.sets = append(m.sets, setCall{key: key})
	return m.setErr
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, _ []byte, ttl time.Duration) error {
	m.sets = append(m.sets, setCall{key: key, ttl: ttl})
	return m.setErr
}

// mockMultiStore adds GetMany on top of mockKVStore.
type mockMultiStore struct {
	mockKVStore
	manyErr   error
	manyCalls int
}

func (m *mockMultiStore) GetMany(_ context.Context, keys []string) ([][]byte, error) {
	m.manyCalls++
	if m.manyErr != nil {
		return nil, m.manyErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder, s store, opts ...Option) *CachedEmbedder {
	t.Helper()
	return New(inner, s, "test-model", nil, zap.NewNop(), opts...)
}

// seed stores vec under the cache key of text.
func seed(t *testing.T, ce *CachedEmbedder, data map[string][]byte, text string, vec []float32) {
	t.Helper()
	data[ce.cacheKey(text)] = vector.Encode(vec)
}
