// Package kafka provides the optional Kafka surface: a reader consuming
// community reports from an intake topic and a writer publishing candidate
// and decision events for downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/alert-triage/internal/config"
	"github.com/couchcryptid/alert-triage/internal/domain"
)

// Intake is the report entry point the reader feeds. The HTTP API
// implements the same surface, so both intakes share one pipeline.
type Intake interface {
	SubmitReport(ctx context.Context, payload domain.ReportPayload) (domain.Communication, error)
}

// Reader consumes report payloads from the intake topic and submits them
// to the pipeline.
type Reader struct {
	reader *kafkago.Reader
	intake Intake
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the report intake topic.
func NewReader(cfg *config.Config, intake Intake, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaReportTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, intake: intake, logger: logger}
}

// Run consumes until the context is cancelled. Malformed or invalid
// messages are logged and committed so they never wedge the partition.
func (r *Reader) Run(ctx context.Context) error {
	r.logger.Info("kafka report reader started", "topic", r.reader.Config().Topic)
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := r.handle(ctx, msg); err != nil {
			r.logger.Error("report message rejected",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}

		if err := r.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (r *Reader) handle(ctx context.Context, msg kafkago.Message) error {
	var payload domain.ReportPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return err
	}
	if payload.ExternalID == "" {
		payload.ExternalID = uuid.NewString()
	}
	_, err := r.intake.SubmitReport(ctx, payload)
	return err
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
