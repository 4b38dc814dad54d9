package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/conferente/internal/app"
	"github.com/corey/conferente/internal/domain/weighing"
	"github.com/corey/conferente/internal/ports"
)

func TestParseKg(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.15", 0.15, false},
		{"0,15", 0.15, false},
		{" 1.2 ", 1.2, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"+Inf", 0, true},
		{"-inf", 0, true},
	}
	for _, tt := range tests {
		got, err := parseKg(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "parseKg(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "parseKg(%q)", tt.in)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestIsDBLockError(t *testing.T) {
	assert.False(t, isDBLockError(nil))
	assert.True(t, isDBLockError(errors.New("open store: timeout")))
	assert.False(t, isDBLockError(errors.New("permission denied")))
}

func TestDiagnoseDBLock_NoAddrFile(t *testing.T) {
	msg := diagnoseDBLock(t.TempDir())
	assert.Contains(t, msg, "locked by another process")
}

func TestDiagnoseDBLock_StaleAddrFile(t *testing.T) {
	root := t.TempDir()
	paths := app.NewPaths(root)
	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, os.WriteFile(paths.AddrFile, []byte("127.0.0.1:1\n"), 0644))

	msg := diagnoseDBLock(root)
	assert.Contains(t, msg, "nothing answers at 127.0.0.1:1")
	assert.Contains(t, msg, paths.AddrFile)
}

type fixedTare float64

func (f fixedTare) PredictTareForPair(supplier, product string) (float64, bool) {
	return float64(f), f > 0
}

func TestEntryFlags_FillsRememberedTare(t *testing.T) {
	f := entryFlags{supplier: "Acme", product: "Tomate", target: "20", gross: "22,4", qty: 2}
	e, err := f.entry(fixedTare(1.2))
	require.NoError(t, err)
	assert.Equal(t, "Acme", e.Supplier)
	assert.Equal(t, 20.0, e.TargetWeight)
	assert.Equal(t, 22.4, e.Gross)
	assert.Equal(t, 1.2, e.Breakdown.ProductTare)
	assert.Equal(t, 2, e.Breakdown.ProductQty)
	assert.Equal(t, weighing.TareManual, e.Mode)
}

func TestEntryFlags_ExplicitTareAndNoTare(t *testing.T) {
	f := entryFlags{supplier: "Acme", product: "Tomate", tare: "0.5", qty: 1, noTare: true}
	e, err := f.entry(fixedTare(1.2))
	require.NoError(t, err)
	assert.Equal(t, 0.5, e.Breakdown.ProductTare)
	assert.Equal(t, weighing.TareNone, e.Mode)
}

func TestEntryFlags_BadWeight(t *testing.T) {
	f := entryFlags{gross: "muito"}
	_, err := f.entry(fixedTare(0))
	assert.Error(t, err)
}

func TestPhotoDataURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nota.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(path, png, 0644))

	url, err := photoDataURL(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"), url)

	_, err = photoDataURL(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestFormatOutcome(t *testing.T) {
	out := formatOutcome(weighing.Outcome{
		Record: ports.WeighingRecord{
			ID: "abc", Supplier: "Acme", Product: "Tomate",
			TargetWeight: 20, GrossWeight: 22.4, Tare: 2.4, NetWeight: 20,
		},
		Variance: weighing.Variance{Kind: weighing.VarianceExact},
		Learned:  true,
		Summary:  "Acme: Peso exato.",
	})
	assert.Contains(t, out, "Acme: Peso exato.")
	assert.Contains(t, out, "net 20.000kg")
	assert.Contains(t, out, "tare remembered for Acme / Tomate")
	assert.Contains(t, out, "id abc")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Acme", truncate("Acme", 10))
	assert.Equal(t, "Hortifru…", truncate("Hortifruti São José", 9))
}
