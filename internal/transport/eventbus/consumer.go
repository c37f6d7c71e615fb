package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
	"github.com/Tealium/tealium-mcp-demo/internal/metrics"
	"github.com/Tealium/tealium-mcp-demo/internal/usecase"
)

// VisitorWarmupEvent asks for a visitor to be resolved ahead of its first chat turn.
type VisitorWarmupEvent struct {
	VisitorID      string `json:"visitor_id"`
	AttributeID    string `json:"attribute_id"`
	AttributeValue string `json:"attribute_value"`
	Identifier     string `json:"identifier"`
}

var ErrEmptyEvent = errors.New("warm-up event carries no identifier")

func (e VisitorWarmupEvent) Request() (domain.VisitorRequest, error) {
	switch {
	case e.VisitorID != "":
		return domain.VisitorIDRequest(e.VisitorID), nil
	case e.AttributeID != "" && e.AttributeValue != "":
		return domain.AttributeRequest(e.AttributeID, e.AttributeValue), nil
	case e.Identifier != "":
		return domain.FreeFormRequest(e.Identifier), nil
	}
	return domain.VisitorRequest{}, ErrEmptyEvent
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func NewReader(cfg ReaderConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
}

type EventBusConsumer struct {
	uc      usecase.VisitorResolver
	cfg     domain.ResolutionConfig
	reader  MessageReader
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewEventBusConsumer always resolves with caching on; warming is pointless otherwise.
func NewEventBusConsumer(uc usecase.VisitorResolver, cfg domain.ResolutionConfig, reader MessageReader, logger zerolog.Logger, m *metrics.Collector) *EventBusConsumer {
	cfg.UseCache = true
	return &EventBusConsumer{uc: uc, cfg: cfg, reader: reader, logger: logger, metrics: m}
}

// Run consumes until ctx is cancelled. Malformed events are logged and
// committed so they are not redelivered.
func (c *EventBusConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch warm-up message: %w", err)
		}

		if err := c.HandleMessage(ctx, msg.Value); err != nil {
			c.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("warm-up event dropped")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit warm-up message: %w", err)
		}
	}
}

func (c *EventBusConsumer) HandleMessage(ctx context.Context, msg []byte) error {
	var event VisitorWarmupEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		c.metrics.ObserveWarmup("invalid")
		return err
	}

	req, err := event.Request()
	if err != nil {
		c.metrics.ObserveWarmup("invalid")
		return err
	}

	res, err := c.uc.Resolve(ctx, req, c.cfg)
	if err != nil {
		c.metrics.ObserveWarmup("error")
		return err
	}

	c.metrics.ObserveWarmup(string(res.Status))
	c.logger.Debug().Str("request_id", res.RequestID).Str("status", string(res.Status)).Msg("visitor warmed up")
	return nil
}

func (c *EventBusConsumer) Close() error {
	return c.reader.Close()
}
