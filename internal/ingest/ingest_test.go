package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bird-map-service/internal/domain"
	"bird-map-service/internal/ingest"
	"bird-map-service/internal/observability"
)

// --- mocks ---

type mockExtractor struct {
	sightings []domain.RawSighting
	index     atomic.Int64
}

func (m *mockExtractor) Extract(ctx context.Context) (domain.RawSighting, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.sightings) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return domain.RawSighting{}, ctx.Err()
	}
	return m.sightings[i], nil
}

type mockAppender struct {
	appended []domain.Observation
	err      error
}

func (m *mockAppender) Append(obs domain.Observation) error {
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, obs)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawSighting(value string, committed *atomic.Int64) domain.RawSighting {
	return domain.RawSighting{
		Value: []byte(value),
		Topic: "sighting-reports",
		Commit: func(context.Context) error {
			committed.Add(1)
			return nil
		},
	}
}

func runUntilTimeout(t *testing.T, i *ingest.Ingest) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, i.Run(ctx))
}

// --- tests ---

func TestIngest_Run_HappyPath(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{sightings: []domain.RawSighting{
		rawSighting(`{"scientific_name":"Turdus migratorius","common_name":"American Robin","latitude":"40.0","longitude":"-105.0","observed_at":"2015-05-20","count":"2"}`, &committed),
	}}
	app := &mockAppender{}

	i := ingest.New(ext, app, discardLogger(), observability.NewMetricsForTesting())
	runUntilTimeout(t, i)

	require.Len(t, app.appended, 1)
	assert.Equal(t, "Turdus migratorius", app.appended[0].ScientificName)
	assert.Equal(t, 2, app.appended[0].Count)
	assert.Equal(t, int64(1), committed.Load())
}

func TestIngest_Run_MalformedMessageSkippedAndCommitted(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{sightings: []domain.RawSighting{
		rawSighting(`{broken json`, &committed),
		rawSighting(`{"scientific_name":"Zenaida macroura","observed_at":"2016-07-01"}`, &committed),
	}}
	app := &mockAppender{}

	i := ingest.New(ext, app, discardLogger(), observability.NewMetricsForTesting())
	runUntilTimeout(t, i)

	require.Len(t, app.appended, 1)
	assert.Equal(t, "Zenaida macroura", app.appended[0].ScientificName)
	assert.Equal(t, int64(2), committed.Load(), "bad messages are committed so they are not redelivered")
}

func TestIngest_Run_AppendErrorSkippedAndCommitted(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{sightings: []domain.RawSighting{
		rawSighting(`{"scientific_name":"Turdus migratorius","observed_at":"2015-05-20"}`, &committed),
	}}
	app := &mockAppender{err: errors.New("year outside dataset bounds")}

	i := ingest.New(ext, app, discardLogger(), observability.NewMetricsForTesting())
	runUntilTimeout(t, i)

	assert.Empty(t, app.appended)
	assert.Equal(t, int64(1), committed.Load())
}

func TestIngest_Run_StopsOnContextCancel(t *testing.T) {
	ext := &mockExtractor{}
	app := &mockAppender{}
	i := ingest.New(ext, app, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- i.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ingest loop did not stop on cancellation")
	}
}
