package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"charyscan/internal/domain"
	"charyscan/internal/ports"
)

// Publisher emits one Kafka message per completed analysis, keyed by
// article URL so re-scans of the same post land in the same partition.
type Publisher struct {
	writer *kafka.Writer
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a writer for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
	}
}

type analysisEvent struct {
	URL        string   `json:"url"`
	Author     string   `json:"author"`
	Permlink   string   `json:"permlink"`
	Score      *float64 `json:"score,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	IsMock     bool     `json:"is_mock"`
	State      string   `json:"state"`
	OccurredAt string   `json:"occurred_at"`
}

// AnalysisCompleted publishes the analysis outcome.
func (p *Publisher) AnalysisCompleted(ctx context.Context, a domain.Analysis) error {
	payload, err := json.Marshal(analysisEvent{
		URL:        a.URL,
		Author:     a.Author,
		Permlink:   a.Permlink,
		Score:      a.Score,
		Summary:    a.Summary,
		IsMock:     a.IsMock,
		State:      string(a.State),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal analysis event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.URL),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write analysis event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
