package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/conferente/internal/adapters/memory"
	"github.com/corey/conferente/internal/domain/advisor"
	"github.com/corey/conferente/internal/domain/tare"
	"github.com/corey/conferente/internal/domain/weighing"
)

func learnedDB(t *testing.T) *tare.Engine {
	t.Helper()
	e := tare.NewEngine(memory.NewLearningStore(), tare.WithClock(func() time.Time { return time.Unix(0, 0) }))
	e.Learn("Ceasa Norte", "Tomate", 1.2)
	e.Learn("Ceasa Norte", "Cebola", 0.4)
	e.Learn("Hortifruti Sul", "Tomate", 0.9)
	e.Learn("Hortifruti Sul", "Alface", 0)
	return e
}

func TestRememberedFor_ProductOnly(t *testing.T) {
	got := rememberedFor(learnedDB(t).Snapshot(), "Qual a tara do TOMATE?")
	assert.Equal(t, []advisor.Remembered{
		{Supplier: "Ceasa Norte", Product: "Tomate", Tare: 1.2, Uses: 1},
		{Supplier: "Hortifruti Sul", Product: "Tomate", Tare: 0.9, Uses: 1},
	}, got)
}

func TestRememberedFor_SupplierOnly(t *testing.T) {
	got := rememberedFor(learnedDB(t).Snapshot(), "o que a ceasa norte manda?")
	require.Len(t, got, 2)
	assert.Equal(t, "Cebola", got[0].Product)
	assert.Equal(t, "Tomate", got[1].Product)
}

func TestRememberedFor_PairNarrows(t *testing.T) {
	got := rememberedFor(learnedDB(t).Snapshot(), "tomate da Hortifruti Sul")
	assert.Equal(t, []advisor.Remembered{
		{Supplier: "Hortifruti Sul", Product: "Tomate", Tare: 0.9, Uses: 1},
	}, got)
}

func TestRememberedFor_NothingNamed(t *testing.T) {
	db := learnedDB(t).Snapshot()
	assert.Nil(t, rememberedFor(db, "quanto falta?"))
	assert.Nil(t, rememberedFor(db, ""))
	assert.Nil(t, rememberedFor(db, "alface"), "placeholder tares are not remembered")
}

func TestAsk_CarriesRememberedTares(t *testing.T) {
	isolateEnv(t)
	fc := &echoCompleter{}
	a, err := New(Config{ProjectRoot: t.TempDir(), Completer: fc})
	require.NoError(t, err)
	defer a.Close()

	a.Learn("Ceasa Norte", "Tomate", 1.2)

	_, err = a.Ask(context.Background(), "a tara do tomate está certa?", weighing.Identification{}, weighing.Reading{})
	require.NoError(t, err)
	assert.Contains(t, fc.last.System, `"taras_memorizadas":[{"fornecedor":"Ceasa Norte","produto":"Tomate","tara":1.2,"usos":1}]`)
}
