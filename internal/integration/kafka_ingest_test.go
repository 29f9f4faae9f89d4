//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"bird-map-service/internal/adapter/kafka"
	"bird-map-service/internal/config"
	"bird-map-service/internal/domain"
	"bird-map-service/internal/ingest"
	"bird-map-service/internal/observability"
	"bird-map-service/internal/pipeline"
	"bird-map-service/internal/store"
)

const testSightingsTopic = "test-sighting-reports"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka spins up a single-node Kafka broker and returns its bootstrap
// address. The container is terminated when the test finishes.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.6.1",
		tckafka.WithClusterID("bird-map-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)

	return brokers[0]
}

// createTopic creates a single-partition topic on the broker's controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func publishSightings(ctx context.Context, t *testing.T, broker string, values ...[]byte) {
	t.Helper()

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSightingsTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(values))
	for i, v := range values {
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("sighting-%d", i)),
			Value: v,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func testConfig(broker string) *config.Config {
	return &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testSightingsTopic,
		KafkaGroupID: fmt.Sprintf("test-ingest-%d", time.Now().UnixNano()),
	}
}

// TestKafkaReaderExtract verifies the adapter layer: a published message
// round-trips through kafka.Reader with key, value, topic, and a working
// commit callback.
func TestKafkaReaderExtract(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSightingsTopic)

	record := domain.RawSightingRecord{
		ScientificName: "Turdus migratorius",
		CommonName:     "American Robin",
		Latitude:       "40.0150",
		Longitude:      "-105.2705",
		ObservedAt:     "2015-05-20",
		Count:          "2",
		Rarity:         "common",
	}
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	publishSightings(ctx, t, broker, payload)

	reader := kafka.NewReader(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	raw, err := reader.Extract(ctx)
	require.NoError(t, err, "extract from sightings topic")
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSightingsTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	obs, err := domain.ParseRawSighting(raw)
	require.NoError(t, err)
	assert.Equal(t, "Turdus migratorius", obs.ScientificName)
	assert.Equal(t, 2, obs.Count)
	require.NotNil(t, obs.Geo)
	assert.InDelta(t, 40.0150, obs.Geo.Lat, 1e-9)
}

// TestIngestEndToEnd runs the full live-sighting path: messages published to
// the topic flow through the ingest loop into the store and show up in
// filter results. A poison pill in the middle is skipped without stalling
// the stream.
func TestIngestEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSightingsTopic)

	robin, err := json.Marshal(domain.RawSightingRecord{
		ScientificName: "Turdus migratorius",
		CommonName:     "American Robin",
		Latitude:       "40.0150",
		Longitude:      "-105.2705",
		ObservedAt:     "2015-05-20",
		Rarity:         "common",
	})
	require.NoError(t, err)
	dove, err := json.Marshal(domain.RawSightingRecord{
		ScientificName: "Zenaida macroura",
		CommonName:     "Mourning Dove",
		Latitude:       "42.3601",
		Longitude:      "-71.0589",
		ObservedAt:     "2018-09-03",
		Count:          "4",
		Rarity:         "common",
	})
	require.NoError(t, err)

	publishSightings(ctx, t, broker, robin, []byte("not-json{{{"), dove)

	metrics := observability.NewMetricsForTesting()
	st := store.New(nil, metrics)

	reader := kafka.NewReader(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	ing := ingest.New(reader, st, discardLogger(), metrics)
	ingestCtx, ingestCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- ing.Run(ingestCtx) }()

	// Wait for both valid sightings to land; the poison pill must not
	// block the stream.
	require.Eventually(t, func() bool { return st.Len() == 2 },
		60*time.Second, 250*time.Millisecond, "expected two ingested sightings")

	ingestCancel()
	require.NoError(t, <-errCh)

	p := pipeline.New(domain.DedupRadiusKM, discardLogger(), metrics)
	result, err := p.Filter(st.Snapshot(), domain.FilterSpec{Species: []string{"Mourning Dove"}})
	require.NoError(t, err)
	require.Len(t, result.Observations, 1)
	assert.Equal(t, "Zenaida macroura", result.Observations[0].ScientificName)
	assert.Equal(t, 4, result.Observations[0].Count)
	assert.Equal(t, 1, result.Observations[0].MarkerID)
}
