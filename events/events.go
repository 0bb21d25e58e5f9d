package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event announces a confirmed forum transaction.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	TxHash  string    `json:"tx_hash"`
	Account string    `json:"account"`
	Target  string    `json:"target"`
	Block   uint64    `json:"block"`
	At      time.Time `json:"at"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(typ, txHash, account, target string, block uint64) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    typ,
		TxHash:  txHash,
		Account: account,
		Target:  target,
		Block:   block,
		At:      time.Now().UTC(),
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// KafkaConfig selects brokers and topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes events keyed by target so one aggregate stays ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	msg, err := message(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func message(ev Event) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.Target),
		Value: value,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}, nil
}
