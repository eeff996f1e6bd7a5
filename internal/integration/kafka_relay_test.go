//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/poaching-risk-service/internal/adapter/backend"
	"github.com/couchcryptid/poaching-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/poaching-risk-service/internal/config"
	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
	"github.com/couchcryptid/poaching-risk-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPredictionTopic = "test-predictions"
	testAlertTopic      = "test-alerts"
)

// received is a message read back from a topic.
type received struct {
	Value   []byte
	Key     string
	Headers map[string]string
}

func readMessage(ctx context.Context, t *testing.T, consumer *kafkago.Reader) received {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return received{Value: msg.Value, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker, topic string) *kafkago.Reader {
	t.Helper()
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     fmt.Sprintf("test-%s-%d", topic, time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func testConfig(broker string) *config.Config {
	return &config.Config{
		KafkaEnabled:         true,
		KafkaBrokers:         []string{broker},
		KafkaPredictionTopic: testPredictionTopic,
		KafkaAlertTopic:      testAlertTopic,
	}
}

// TestWriterPublishesBothTopics verifies one producer routes predictions and
// alerts to their own topics with the expected keys and headers.
func TestWriterPublishesBothTopics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testPredictionTopic)
	createTopic(t, broker, testAlertTopic)

	writer := kafka.NewWriter(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	r := domain.NewDefaultResolver()
	in := domain.PredictionInput{Selection: r.DefaultSelection(), Species: "Tiger", Season: "Summer"}
	assessment := domain.Assess(domain.PredictionResult{
		RiskLevel:     "High",
		Probabilities: domain.Probabilities{Low: 0.1, Medium: 0.2, High: 0.7},
	}, in)
	event := domain.NewPredictionEvent(in, assessment)
	require.NoError(t, writer.PublishPrediction(ctx, event))

	alert := domain.Alert{Type: "High Risk", Location: "Gir", District: "Junagadh", Time: "2025-03-03T09:00:00Z"}
	require.NoError(t, writer.LoadBatch(ctx, []domain.AlertEvent{domain.EnrichAlert(alert, r)}))

	pm := readMessage(ctx, t, newConsumer(t, broker, testPredictionTopic))
	assert.Equal(t, "Karnataka/Chamarajanagar", pm.Key)
	assert.Equal(t, "High", pm.Headers["risk_level"])
	_, err := time.Parse(time.RFC3339, pm.Headers["predicted_at"])
	assert.NoError(t, err, "predicted_at should be valid RFC3339")

	var gotPrediction domain.PredictionEvent
	require.NoError(t, json.Unmarshal(pm.Value, &gotPrediction))
	assert.Equal(t, event.ID, gotPrediction.ID)
	assert.Equal(t, "BRT", gotPrediction.Request.ReserveName)
	assert.Equal(t, assessment.RiskScore, gotPrediction.Assessment.RiskScore)

	am := readMessage(ctx, t, newConsumer(t, broker, testAlertTopic))
	assert.Equal(t, domain.AlertID(alert), am.Key)
	assert.Equal(t, "High Risk", am.Headers["alert_type"])
	assert.Equal(t, string(domain.GranularityReserve), am.Headers["granularity"])

	var gotAlert domain.AlertEvent
	require.NoError(t, json.Unmarshal(am.Value, &gotAlert))
	assert.Equal(t, 21.124, gotAlert.Latitude)
	assert.Equal(t, 70.824, gotAlert.Longitude)
}

// TestRelayEndToEnd polls a fake inference backend through the real client,
// relays to Kafka, and checks a repeated poll publishes nothing new.
func TestRelayEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertTopic)

	feed := domain.AlertFeed{
		Status: domain.Status{Success: boolPtr(true)},
		Alerts: []domain.Alert{
			{Type: "High Risk", Location: "Gir", District: "Junagadh", Time: "2025-03-03T09:00:00Z"},
			{Type: "Patrol Gap", Location: "Unlisted", District: "Golaghat", Time: "2025-03-03T09:10:00Z"},
			{
				Type:        "High Risk",
				Location:    "Kaziranga",
				Time:        "2025-03-03T09:05:00Z",
				Coordinates: &domain.AlertCoordinates{Lat: 26.58, Lng: 93.17},
			},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/alerts" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(feed)
	}))
	t.Cleanup(srv.Close)

	metrics := observability.NewMetricsForTesting()
	client := backend.NewClient(srv.URL, 5*time.Second, metrics, discardLogger())

	writer := kafka.NewWriter(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	relay := pipeline.New(pipeline.NewExtractor(client), domain.NewDefaultResolver(),
		[]pipeline.AlertLoader{writer}, time.Minute, discardLogger(), metrics)

	require.NoError(t, relay.Poll(ctx))
	require.NoError(t, relay.Poll(ctx))
	require.NoError(t, relay.CheckReadiness(ctx))

	consumer := newConsumer(t, broker, testAlertTopic)
	byID := map[string]received{}
	for range feed.Alerts {
		m := readMessage(ctx, t, consumer)
		byID[m.Key] = m
	}
	require.Len(t, byID, len(feed.Alerts))

	granularity := map[string]string{}
	for _, a := range feed.Alerts {
		m, ok := byID[domain.AlertID(a)]
		require.True(t, ok, "alert %s/%s not relayed", a.Type, a.Location)
		granularity[a.Location] = m.Headers["granularity"]
	}
	assert.Equal(t, map[string]string{
		"Gir":       string(domain.GranularityReserve),
		"Unlisted":  string(domain.GranularityDistrict),
		"Kaziranga": string(domain.GranularityReported),
	}, granularity)

	// The second poll saw the same alerts and must not have republished them.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no duplicate alerts on the topic")
}

func boolPtr(b bool) *bool { return &b }
