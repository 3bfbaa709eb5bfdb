package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/models"
)

// DBSink stores notifications in the outbox table read by the delivery service
type DBSink struct {
	repo *db.NotificationRepository
}

// NewDBSink creates an outbox sink
func NewDBSink(repo *db.Repository) *DBSink {
	return &DBSink{repo: db.NewNotificationRepository(repo)}
}

// Deliver writes one outbox row
func (s *DBSink) Deliver(ctx context.Context, recipient string, n Notification) error {
	row := &models.Notification{
		ID:          n.ID,
		RecipientID: recipient,
		Type:        string(n.Type),
		Message:     n.Message,
		SourceID:    n.Metadata.SourceUID,
		CreatedAt:   n.CreatedAt,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// Event is the payload published for each notification
type Event struct {
	Recipient    string `json:"recipient"`
	Notification
}

// NATSSink publishes notifications for the push delivery service
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// NewNATSSink connects to NATS
func NewNATSSink(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("socialgraph-notify"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSSink{nc: nc, subject: subject}, nil
}

// Subject returns the subject a notification type is published on
func (s *NATSSink) Subject(typ Type) string {
	return s.subject + "." + string(typ)
}

func encodeEvent(recipient string, n Notification) ([]byte, error) {
	return json.Marshal(Event{Recipient: recipient, Notification: n})
}

// Deliver publishes the notification with the caller's trace context in the headers
func (s *NATSSink) Deliver(ctx context.Context, recipient string, n Notification) error {
	data, err := encodeEvent(recipient, n)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: s.Subject(n.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := s.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Close drains the connection
func (s *NATSSink) Close() error {
	return s.nc.Drain()
}

// LogSink only logs notifications
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink writing to logger
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs the notification
func (s *LogSink) Deliver(ctx context.Context, recipient string, n Notification) error {
	s.logger.Info("[NOTIFY]",
		zap.String("type", string(n.Type)),
		zap.String("recipient", recipient),
		zap.String("source", n.Metadata.SourceUID),
		zap.String("message", n.Message))
	return nil
}
