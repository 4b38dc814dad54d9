// Package advisor answers free-form operator questions about the weighing in
// progress using a generative completion service. The tare engine never
// depends on it.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/corey/conferente/internal/domain/weighing"
	"github.com/corey/conferente/internal/logger"
	"github.com/corey/conferente/internal/ports"
)

const (
	unknownField = "Não informado"
	noDiff       = "N/A"

	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.4
	DefaultMaxTokens   = 1024
)

var (
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("advisor: empty question")
	// ErrUnavailable means no completion service is configured.
	ErrUnavailable = errors.New("advisor unavailable: no API key configured")
)

// Scale is the scale part of a snapshot.
type Scale struct {
	Gross float64 `json:"bruto"`
	Net   float64 `json:"liquido"`
	Tare  float64 `json:"tara"`
}

// Remembered is a learned tare the question refers to.
type Remembered struct {
	Supplier string  `json:"fornecedor"`
	Product  string  `json:"produto"`
	Tare     float64 `json:"tara"`
	Uses     int     `json:"usos"`
}

// Snapshot is the live context handed to the model. Field names are in the
// operators' language since the model answers in it.
type Snapshot struct {
	Supplier     string       `json:"fornecedor"`
	Product      string       `json:"produto"`
	TargetWeight float64      `json:"peso_nota"`
	Scale        Scale        `json:"balanca"`
	Diff         string       `json:"analise_diferenca"`
	Remembered   []Remembered `json:"taras_memorizadas,omitempty"`
}

// NewSnapshot captures the identification and the current reading.
func NewSnapshot(id weighing.Identification, r weighing.Reading) Snapshot {
	s := Snapshot{
		Supplier:     orUnknown(id.Supplier),
		Product:      orUnknown(id.Product),
		TargetWeight: id.TargetWeight,
		Scale:        Scale{Gross: r.Gross, Net: r.Net, Tare: r.Tare},
		Diff:         noDiff,
	}
	if id.TargetWeight > 0 {
		s.Diff = fmt.Sprintf("%.2f", r.Net-id.TargetWeight)
	}
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownField
	}
	return s
}

// SystemInstruction embeds the snapshot in the fixed instruction.
func SystemInstruction(s Snapshot) string {
	ctx, err := json.Marshal(struct {
		Live Snapshot `json:"CONTEXTO_TEMPO_REAL"`
	}{s})
	if err != nil {
		// Only non-finite weights make the snapshot unencodable.
		logger.Warn("advisor snapshot not encodable", "err", err)
		ctx = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Atue como um Especialista em Logística e Prevenção de Perdas usando este app.\n")
	b.WriteString("Seu objetivo é encontrar erros, sugerir correções e garantir que o conferente não cometa falhas.\n\n")
	fmt.Fprintf(&b, "DADOS ATUAIS: %s\n\n", ctx)
	b.WriteString("REGRAS:\n")
	b.WriteString("1. Se houver diferença de peso > 1%, alerte imediatamente e sugira contar as caixas novamente.\n")
	b.WriteString("2. Se a Tara for > 0 e o Peso Liquido for muito baixo, pergunte se a tara está correta.\n")
	b.WriteString("3. Seja muito breve e direto.\n")
	b.WriteString("4. Fale como um colega de trabalho experiente.\n")
	return b.String()
}

// Config tunes the completion call.
type Config struct {
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Advisor asks a Completer about a snapshot. Safe for concurrent use.
type Advisor struct {
	completer ports.Completer

	mu  sync.RWMutex
	cfg Config
}

// New returns an Advisor. A zero Config gets the default timeout and token
// limit; set Temperature explicitly (DefaultTemperature is 0.4).
func New(c ports.Completer, cfg Config) *Advisor {
	return &Advisor{completer: c, cfg: cfg.withDefaults()}
}

// SetConfig replaces the tuning for subsequent calls.
func (a *Advisor) SetConfig(cfg Config) {
	a.mu.Lock()
	a.cfg = cfg.withDefaults()
	a.mu.Unlock()
}

// Config returns the current tuning.
func (a *Advisor) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Ask sends question with the snapshot as system context and returns the
// model's answer. The call is bounded by the configured timeout and by ctx.
func (a *Advisor) Ask(ctx context.Context, question string, s Snapshot) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	cfg := a.Config()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	answer, err := a.completer.Complete(ctx, ports.CompletionRequest{
		System:      SystemInstruction(s),
		Prompt:      question,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("advisor: %w", err)
	}
	logger.Debug("advisor answered", "elapsed", time.Since(start), "chars", len(answer))

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "Sem resposta.", nil
	}
	return answer, nil
}
