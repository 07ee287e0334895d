package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/SergeyBogomolovv/order-processing-service/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
)

type kafkaHandler struct {
	dlq      *kafka.Writer
	reader   *kafka.Reader
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

// NewKafkaHandler читает заявки на заказы из топика submissions.
// Невалидные и необработанные сообщения уходят в DLQ.
func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, svc OrderService) *kafkaHandler {
	return &kafkaHandler{
		logger: logger.With(slog.String("handler", "kafka")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.SubmissionsTopic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			} else {
				h.logger.Error("failed to fetch message", slog.Any("error", err))
				continue
			}
		}

		if err := h.handleSubmission(ctx, m); err != nil {
			submissionsFailed.Inc()
			h.logger.Error("failed to handle submission", slog.Any("error", err))

			// В kafka.Writer уже есть retry
			if err := h.writeToDLQ(ctx, m); err != nil {
				h.logger.Error("failed to write message to DLQ", slog.Any("error", err))
				continue
			}
			submissionsDLQ.Inc()
		} else {
			submissionsProcessed.Inc()
		}

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			commitErrors.Inc()
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) handleSubmission(ctx context.Context, m kafka.Message) error {
	var req CreateOrderRequest
	if err := json.Unmarshal(m.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal submission: %w", err)
	}

	if err := h.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid submission data: %w", err)
	}

	_, err := h.svc.CreateOrder(ctx, CreateOrderRequestToInput(req))
	return err
}

func (h *kafkaHandler) writeToDLQ(ctx context.Context, m kafka.Message) error {
	m.Topic = fmt.Sprintf("%s-dlq", m.Topic)
	return h.dlq.WriteMessages(ctx, m)
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.dlq.Close()
}
