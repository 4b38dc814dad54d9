package weighing

import (
	"fmt"
	"math"
	"strings"
)

// DefaultAdviceTolerance is the live-discrepancy tolerance in kg (50 g).
const DefaultAdviceTolerance = 0.05

// reportEvery is how many records pass between report reminders.
const reportEvery = 10

type AdviceLevel string

const (
	LevelNeutral AdviceLevel = "neutral"
	LevelWarning AdviceLevel = "warning"
	LevelError   AdviceLevel = "error"
	LevelSuccess AdviceLevel = "success"
)

// Advice is a single hint for the operator.
type Advice struct {
	Level AdviceLevel `json:"level"`
	Text  string      `json:"text"`
}

// Advise looks at the live state of a weighing and returns the most pressing
// hint, or nil when there is nothing to say. Rules are checked in priority
// order and the first match wins.
func Advise(r Reading, id Identification, hasPhoto bool, historyCount int, tolerance float64) *Advice {
	if r.Gross > 0 && r.Tare >= r.Gross {
		return &Advice{LevelError, "Atenção: A Tara é maior ou igual ao Peso Bruto."}
	}
	if id.TargetWeight <= 0 {
		return &Advice{LevelNeutral, "Comece digitando o Peso da Nota para referência."}
	}
	if strings.TrimSpace(id.Supplier) == "" {
		return &Advice{LevelNeutral, "Qual fornecedor estamos conferindo?"}
	}

	if r.Net > 0 {
		diff := r.Net - id.TargetWeight
		switch {
		case math.Abs(diff) <= tolerance:
			if !hasPhoto {
				return &Advice{LevelSuccess, "Peso exato! Não esqueça a foto de evidência."}
			}
			return &Advice{LevelSuccess, "Perfeito. Pode registrar."}
		case diff > tolerance:
			return &Advice{LevelWarning, fmt.Sprintf("Passou %.2fkg da nota. Verifique itens extras.", diff)}
		default:
			return &Advice{LevelWarning, fmt.Sprintf("Faltam %.2fkg. Verifique se falta mercadoria.", math.Abs(diff))}
		}
	}

	if historyCount > 0 && historyCount%reportEvery == 0 {
		return &Advice{LevelNeutral, "Muitos registros. Lembre-se de enviar o relatório."}
	}
	if r.Gross == 0 {
		return &Advice{LevelNeutral, "Aguardando peso na balança..."}
	}
	return nil
}
