// Package events publicación de eventos de dominio ya confirmados.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// MessageWriter lo que el publicador necesita de *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig brokers y tópico de eventos.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Source       string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// NewKafkaWriter writer con balanceo por llave: los eventos de un mismo agregado van a la misma partición.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	batch := cfg.BatchTimeout
	if batch <= 0 {
		batch = 50 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batch,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher publica en segundo plano; un fallo se registra y no afecta la operación ya confirmada.
type KafkaPublisher struct {
	w       MessageWriter
	source  string
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewKafkaPublisher construye el publicador sobre un writer.
func NewKafkaPublisher(w MessageWriter, cfg KafkaConfig, log zerolog.Logger) *KafkaPublisher {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	source := cfg.Source
	if source == "" {
		source = "inventario-caja"
	}
	return &KafkaPublisher{
		w: w, source: source, timeout: timeout,
		log: log.With().Str("component", "events").Logger(),
	}
}

// Publish serializa los eventos y los envía sin bloquear al llamador.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...entity.Event) {
	if len(events) == 0 {
		return
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := p.message(ev)
		if err != nil {
			p.log.Error().Err(err).Str("type", ev.Type).Str("aggregate_id", ev.AggregateID).Msg("evento descartado")
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return
	}

	// El contexto de la petición se cancela al responder; el envío sigue con su propio plazo.
	base := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		wctx, cancel := context.WithTimeout(base, p.timeout)
		defer cancel()
		if err := p.w.WriteMessages(wctx, msgs...); err != nil {
			p.log.Error().Err(err).Int("events", len(msgs)).Msg("no se pudieron publicar eventos")
			return
		}
		p.log.Debug().Int("events", len(msgs)).Msg("eventos publicados")
	}()
}

// Close espera los envíos en curso y cierra el writer.
func (p *KafkaPublisher) Close() error {
	p.wg.Wait()
	return p.w.Close()
}

func (p *KafkaPublisher) message(ev entity.Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar evento %s: %w", ev.Type, err)
	}
	return kafka.Message{
		Key:   []byte(ev.AggregateID),
		Value: data,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "ce-id", Value: []byte(uuid.NewString())},
			{Key: "ce-type", Value: []byte(ev.Type)},
			{Key: "ce-source", Value: []byte(p.source)},
			{Key: "ce-time", Value: []byte(ev.OccurredAt.UTC().Format(time.RFC3339))},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}

// Logging registra los eventos en el log en lugar de enviarlos; útil en desarrollo.
type Logging struct {
	Log zerolog.Logger
}

// Publish escribe un registro por evento.
func (l Logging) Publish(_ context.Context, events ...entity.Event) {
	for _, ev := range events {
		l.Log.Info().Str("type", ev.Type).Str("aggregate_id", ev.AggregateID).Msg("evento de dominio")
	}
}
