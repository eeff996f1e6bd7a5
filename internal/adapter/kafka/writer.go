package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/poaching-risk-service/internal/config"
	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes prediction and alert events. Each message names its own
// topic so one producer serves both streams.
// It implements pipeline.AlertLoader.
type Writer struct {
	writer          *kafkago.Writer
	predictionTopic string
	alertTopic      string
	logger          *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topics.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{
		writer:          w,
		predictionTopic: cfg.KafkaPredictionTopic,
		alertTopic:      cfg.KafkaAlertTopic,
		logger:          logger,
	}
}

// PublishPrediction writes one assessment to the prediction topic.
func (w *Writer) PublishPrediction(ctx context.Context, event domain.PredictionEvent) error {
	msg, err := predictionMessage(w.predictionTopic, event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish prediction %s: %w", event.ID, err)
	}
	return nil
}

// LoadBatch publishes alerts to the alert topic in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := alertMessage(w.alertTopic, events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d alerts: %w", len(msgs), err)
	}
	w.logger.Debug("alerts published", "count", len(msgs), "topic", w.alertTopic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func alertMessage(topic string, event domain.AlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_type", Value: []byte(event.Alert.Type)},
			{Key: "granularity", Value: []byte(event.Granularity)},
			{Key: "relayed_at", Value: []byte(event.RelayedAt.Format(time.RFC3339))},
		},
	}, nil
}

func predictionMessage(topic string, event domain.PredictionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(event.Request.State + "/" + event.Request.District),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(event.Assessment.RiskLevel)},
			{Key: "predicted_at", Value: []byte(event.PredictedAt.Format(time.RFC3339))},
		},
	}, nil
}
