package advisor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/corey/conferente/internal/domain/weighing"
	"github.com/corey/conferente/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	answer string
	err    error
	block  bool
	got    ports.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	f.got = req
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot(
		weighing.Identification{Supplier: "Acme", Product: "Widget", TargetWeight: 30},
		weighing.Reading{Gross: 32, Tare: 2.5, Net: 29.5},
	)
	assert.Equal(t, "Acme", s.Supplier)
	assert.Equal(t, "Widget", s.Product)
	assert.Equal(t, 30.0, s.TargetWeight)
	assert.Equal(t, Scale{Gross: 32, Net: 29.5, Tare: 2.5}, s.Scale)
	assert.Equal(t, "-0.50", s.Diff)
}

func TestNewSnapshot_Defaults(t *testing.T) {
	s := NewSnapshot(weighing.Identification{Supplier: " "}, weighing.Reading{Gross: 3, Net: 3})
	assert.Equal(t, "Não informado", s.Supplier)
	assert.Equal(t, "Não informado", s.Product)
	assert.Equal(t, "N/A", s.Diff)
}

func TestSystemInstruction_EmbedsSnapshot(t *testing.T) {
	s := NewSnapshot(weighing.Identification{Supplier: "Acme", TargetWeight: 10}, weighing.Reading{Gross: 11, Net: 10.2})
	got := SystemInstruction(s)
	assert.Contains(t, got, `"CONTEXTO_TEMPO_REAL"`)
	assert.Contains(t, got, `"fornecedor":"Acme"`)
	assert.Contains(t, got, `"analise_diferenca":"0.20"`)
	assert.Contains(t, got, "REGRAS:")
}

func TestSystemInstruction_NonFiniteReading(t *testing.T) {
	s := NewSnapshot(weighing.Identification{Supplier: "Acme"}, weighing.Reading{Gross: math.Inf(1), Net: math.NaN()})
	got := SystemInstruction(s)
	assert.Contains(t, got, "DADOS ATUAIS: {}\n")
	assert.Contains(t, got, "REGRAS:")
}

func TestAsk(t *testing.T) {
	fc := &fakeCompleter{answer: "  Cara, confere as caixas.  "}
	a := New(fc, Config{Temperature: DefaultTemperature})

	s := NewSnapshot(weighing.Identification{Supplier: "Acme"}, weighing.Reading{})
	answer, err := a.Ask(context.Background(), "Está tudo certo?", s)
	require.NoError(t, err)
	assert.Equal(t, "Cara, confere as caixas.", answer)

	assert.Equal(t, "Está tudo certo?", fc.got.Prompt)
	assert.Equal(t, SystemInstruction(s), fc.got.System)
	assert.Equal(t, 0.4, fc.got.Temperature)
	assert.Equal(t, DefaultMaxTokens, fc.got.MaxTokens)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	a := New(&fakeCompleter{}, Config{})
	_, err := a.Ask(context.Background(), "   ", Snapshot{})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAsk_EmptyAnswer(t *testing.T) {
	a := New(&fakeCompleter{answer: ""}, Config{})
	answer, err := a.Ask(context.Background(), "oi", Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "Sem resposta.", answer)
}

func TestAsk_CompleterError(t *testing.T) {
	boom := errors.New("boom")
	a := New(&fakeCompleter{err: boom}, Config{})
	_, err := a.Ask(context.Background(), "oi", Snapshot{})
	assert.ErrorIs(t, err, boom)
}

func TestAsk_Timeout(t *testing.T) {
	a := New(&fakeCompleter{block: true}, Config{Timeout: 20 * time.Millisecond})
	_, err := a.Ask(context.Background(), "oi", Snapshot{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsk_Cancelled(t *testing.T) {
	a := New(&fakeCompleter{block: true}, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Ask(ctx, "oi", Snapshot{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetConfig(t *testing.T) {
	a := New(&fakeCompleter{}, Config{})
	assert.Equal(t, DefaultTimeout, a.Config().Timeout)
	a.SetConfig(Config{Timeout: time.Second, MaxTokens: 10, Temperature: 0.9})
	assert.Equal(t, Config{Timeout: time.Second, MaxTokens: 10, Temperature: 0.9}, a.Config())
}
