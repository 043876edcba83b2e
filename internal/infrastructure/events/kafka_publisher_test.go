package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/events"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestKafkaPublisher_EnviaConLlaveYCabeceras(t *testing.T) {
	w := &fakeWriter{}
	p := events.NewKafkaPublisher(w, events.KafkaConfig{Source: "test"}, zerolog.Nop())

	at := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	p.Publish(context.Background(),
		entity.Event{Type: entity.EventTransferCompleted, AggregateID: "T-1", OccurredAt: at, Payload: map[string]any{"discrepancies": 1}},
		entity.Event{Type: entity.EventStockLow, AggregateID: "W1:leche", OccurredAt: at},
	)
	require.NoError(t, p.Close(), "Close espera los envíos pendientes")

	require.Len(t, w.msgs, 2)
	assert.True(t, w.closed)
	first := w.msgs[0]
	assert.Equal(t, "T-1", string(first.Key), "la llave es el agregado")

	var body entity.Event
	require.NoError(t, json.Unmarshal(first.Value, &body))
	assert.Equal(t, entity.EventTransferCompleted, body.Type)

	headers := map[string]string{}
	for _, h := range first.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, entity.EventTransferCompleted, headers["ce-type"])
	assert.Equal(t, "test", headers["ce-source"])
	assert.Equal(t, "2024-12-01T10:00:00Z", headers["ce-time"])
	assert.NotEmpty(t, headers["ce-id"])
}

func TestKafkaPublisher_ContextoCanceladoNoImpideElEnvio(t *testing.T) {
	w := &fakeWriter{}
	p := events.NewKafkaPublisher(w, events.KafkaConfig{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	p.Publish(ctx, entity.Event{Type: entity.EventAdjustmentApplied, AggregateID: "A-1"})
	cancel()
	require.NoError(t, p.Close())

	assert.Len(t, w.msgs, 1, "la respuesta HTTP ya salió pero el evento se publica")
}

func TestKafkaPublisher_FalloSoloSeRegistra(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	var buf bytes.Buffer
	p := events.NewKafkaPublisher(w, events.KafkaConfig{}, zerolog.New(&buf))

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), entity.Event{Type: entity.EventCashSessionClosed, AggregateID: "S-1"})
	})
	require.NoError(t, p.Close())
	assert.Contains(t, buf.String(), "broker caído")
	assert.Empty(t, w.msgs)
}

func TestKafkaPublisher_EventoNoSerializableSeDescarta(t *testing.T) {
	w := &fakeWriter{}
	var buf bytes.Buffer
	p := events.NewKafkaPublisher(w, events.KafkaConfig{}, zerolog.New(&buf))

	p.Publish(context.Background(),
		entity.Event{Type: "roto", AggregateID: "X", Payload: make(chan int)},
		entity.Event{Type: entity.EventTransferApproved, AggregateID: "T-2"},
	)
	require.NoError(t, p.Close())
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "T-2", string(w.msgs[0].Key))
	assert.Contains(t, buf.String(), "evento descartado")
}

func TestLogging_RegistraCadaEvento(t *testing.T) {
	var buf bytes.Buffer
	p := events.Logging{Log: zerolog.New(&buf)}

	p.Publish(context.Background(),
		entity.Event{Type: entity.EventAdjustmentApplied, AggregateID: "A-1"},
		entity.Event{Type: entity.EventCashSessionClosed, AggregateID: "S-1"},
	)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, entity.EventAdjustmentApplied, first["type"])
	assert.Equal(t, "A-1", first["aggregate_id"])
}
