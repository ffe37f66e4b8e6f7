package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
)

var ErrPublisherClosed = errors.New("publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues events on an inbox drained by one goroutine into an
// async kafka-go writer. Publish never blocks the request path.
type KafkaPublisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	stop    chan struct{}
	closeCh chan struct{}
	once    sync.Once
	logg    *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, buf int, logg *logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
	}
	p := newKafkaPublisher(w, buf, logg)
	w.Completion = func(messages []kafka.Message, err error) {
		if err != nil {
			p.logError(fmt.Sprintf("kafka.write_failed count=%d", len(messages)), err)
		}
	}
	return p
}

func newKafkaPublisher(w messageWriter, buf int, logg *logger.Logger) *KafkaPublisher {
	if buf <= 0 {
		buf = 256
	}
	return &KafkaPublisher{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		stop:    make(chan struct{}),
		closeCh: make(chan struct{}),
		logg:    logg,
	}
}

// Start drains the inbox until ctx is cancelled or Close is called, then
// flushes what is left and closes the writer. Either way later Publish calls
// fail with ErrPublisherClosed. Callers that still publish during shutdown
// pass a context that outlives it and rely on Close.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				p.drain()
				return
			case <-p.stop:
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				p.logError("kafka.close_failed", err)
			}
			return
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logError("kafka.write_failed", err)
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	select {
	case <-p.stop:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-p.stop:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("kafka inbox full, dropping %s", event.EventType)
	}
}

// Close stops accepting events and flushes the inbox.
func (p *KafkaPublisher) Close() {
	p.once.Do(func() { close(p.stop) })
}

// WaitClosed blocks until the drain goroutine has exited.
func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }

func (p *KafkaPublisher) logError(msg string, err error) {
	if p.logg != nil {
		p.logg.Error(context.Background(), msg, err)
	}
}
