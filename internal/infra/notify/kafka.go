package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

const (
	KindAlertRaised = "alert.raised"
	KindAction      = "action.requested"
)

// Message is the envelope written to the alerts topic.
type Message struct {
	Kind   string      `json:"kind"`
	Action string      `json:"action,omitempty"`
	SentAt time.Time   `json:"sent_at"`
	Alert  fraud.Alert `json:"alert"`
}

// Kafka publishes alerts through a synchronous sarama producer. Messages are
// keyed by account so one account's alerts stay ordered on one partition.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

// NewKafkaProducer dials the brokers with settings suited to alert fan-out.
func NewKafkaProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return p, nil
}

func NewKafka(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic, now: time.Now}
}

func (k *Kafka) PublishAlert(ctx context.Context, a fraud.Alert) error {
	return k.send(ctx, Message{Kind: KindAlertRaised, Alert: a})
}

func (k *Kafka) PublishAction(ctx context.Context, action string, a fraud.Alert) error {
	return k.send(ctx, Message{Kind: KindAction, Action: action, Alert: a})
}

func (k *Kafka) send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.SentAt = k.now().UTC()
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Kind, err)
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(m.Alert.AccountID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(m.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s for alert %s: %w", m.Kind, m.Alert.ID, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
