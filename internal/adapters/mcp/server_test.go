package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/conferente/internal/adapters/memory"
	"github.com/corey/conferente/internal/domain/tare"
)

// lockedEngine serializes a real engine the way the application does.
type lockedEngine struct {
	mu sync.Mutex
	e  *tare.Engine
}

func (l *lockedEngine) ConfirmTare(s, p string, t float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.ConfirmTare(s, p, t)
}

func (l *lockedEngine) PredictLastProduct(s string) (tare.Prediction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.PredictLastProduct(s)
}

func (l *lockedEngine) PredictTareForPair(s, p string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.PredictTareForPair(s, p)
}

func (l *lockedEngine) CheckOtherSupplierTare(s, p string) (*tare.Warning, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.CheckOtherSupplierTare(s, p)
}

func (l *lockedEngine) Suggest(s, p string, c float64) tare.Suggestion {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Suggest(s, p, c)
}

func (l *lockedEngine) KnownSuppliers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.KnownSuppliers()
}

func (l *lockedEngine) KnownProducts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.KnownProducts()
}

func setup(t *testing.T) (*server.MCPServer, *lockedEngine) {
	t.Helper()
	svc := &lockedEngine{e: tare.NewEngine(memory.NewLearningStore())}
	return NewServer(svc, "test"), svc
}

type toolResult struct {
	Text    string
	IsError bool
}

func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]interface{}) toolResult {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	}))

	respBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &resp), "raw: %s", respBytes)
	require.Nil(t, resp.Error, "JSON-RPC error")
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "text", resp.Result.Content[0].Type)
	return toolResult{Text: resp.Result.Content[0].Text, IsError: resp.Result.IsError}
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestToolsList(t *testing.T) {
	srv, _ := setup(t)
	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/list",
	}))
	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"predict_last_product", "predict_tare", "check_conflict", "suggest_tare",
		"confirm_tare", "known_suppliers", "known_products",
	}, names)
}

func TestConfirmThenPredict(t *testing.T) {
	srv, _ := setup(t)

	res := callTool(t, srv, "confirm_tare", map[string]interface{}{"supplier": "Acme", "product": "Widget", "tare": 0.15})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, "150g")

	res = callTool(t, srv, "predict_tare", map[string]interface{}{"supplier": "ACME", "product": "widget"})
	assert.JSONEq(t, `{"found":true,"tare":0.15}`, res.Text)

	res = callTool(t, srv, "predict_last_product", map[string]interface{}{"supplier": "acme"})
	assert.JSONEq(t, `{"found":true,"product":"Widget","tare":0.15}`, res.Text)

	res = callTool(t, srv, "known_suppliers", map[string]interface{}{})
	assert.JSONEq(t, `["Acme"]`, res.Text)
	res = callTool(t, srv, "known_products", map[string]interface{}{})
	assert.JSONEq(t, `["Widget"]`, res.Text)
}

func TestPredict_NotFound(t *testing.T) {
	srv, _ := setup(t)
	res := callTool(t, srv, "predict_last_product", map[string]interface{}{"supplier": "ninguém"})
	assert.JSONEq(t, `{"found":false}`, res.Text)

	res = callTool(t, srv, "known_suppliers", map[string]interface{}{})
	assert.JSONEq(t, `[]`, res.Text)
}

func TestCheckConflict(t *testing.T) {
	srv, svc := setup(t)
	svc.ConfirmTare("Beta", "Widget", 0.3)

	res := callTool(t, srv, "check_conflict", map[string]interface{}{"supplier": "Acme", "product": "Widget"})
	require.False(t, res.IsError)

	var out struct {
		Found   bool          `json:"found"`
		Warning *tare.Warning `json:"warning"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Text), &out))
	require.True(t, out.Found)
	assert.Equal(t, "Beta", out.Warning.Supplier)
	assert.Contains(t, out.Warning.Message, "300g")
}

func TestSuggestTare(t *testing.T) {
	srv, svc := setup(t)
	svc.ConfirmTare("Acme", "Widget", 0.2)

	res := callTool(t, srv, "suggest_tare", map[string]interface{}{"supplier": "Acme", "product": "Widget"})
	var s tare.Suggestion
	require.NoError(t, json.Unmarshal([]byte(res.Text), &s))
	assert.Equal(t, tare.ActionApply, s.Action)

	res = callTool(t, srv, "suggest_tare", map[string]interface{}{"supplier": "Acme", "product": "Widget", "current_tare": 0.2})
	s = tare.Suggestion{}
	require.NoError(t, json.Unmarshal([]byte(res.Text), &s))
	assert.Equal(t, tare.ActionNone, s.Action)
}

func TestToolErrors(t *testing.T) {
	srv, svc := setup(t)

	res := callTool(t, srv, "predict_tare", map[string]interface{}{"supplier": "Acme"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "product is required")

	res = callTool(t, srv, "predict_last_product", map[string]interface{}{"supplier": "   "})
	assert.True(t, res.IsError)

	res = callTool(t, srv, "confirm_tare", map[string]interface{}{"supplier": "Acme", "product": "Widget"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "tare is required")

	res = callTool(t, srv, "confirm_tare", map[string]interface{}{"supplier": "Acme", "product": "Widget", "tare": -1})
	assert.True(t, res.IsError)
	assert.Empty(t, svc.KnownSuppliers())
}
