package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/corey/conferente/internal/domain/tare"
	"github.com/corey/conferente/internal/domain/weighing"
	"github.com/corey/conferente/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[96m"
	colorGreen  = "\033[92m"
	colorRed    = "\033[91m"
	colorYellow = "\033[93m"
	colorGray   = "\033[90m"
)

const prefix = colorCyan + colorBold + "⚡" + colorReset

func formatKg(kg float64) string {
	return fmt.Sprintf("%.3fkg", kg)
}

func formatWarning(w *tare.Warning) string {
	return fmt.Sprintf("%s%s!%s %s", colorYellow, colorBold, colorReset, w.Message)
}

func formatSuggestion(s tare.Suggestion) string {
	switch s.Action {
	case tare.ActionApply:
		return fmt.Sprintf("%s apply tare %s%s%s", prefix, colorGreen, formatKg(s.Tare), colorReset)
	case tare.ActionWarn:
		return formatWarning(s.Warning)
	default:
		return fmt.Sprintf("%s keep the current tare", prefix)
	}
}

func varianceColor(k weighing.VarianceKind) string {
	switch k {
	case weighing.VarianceShortage:
		return colorRed
	case weighing.VarianceSurplus:
		return colorYellow
	case weighing.VarianceExact:
		return colorGreen
	}
	return colorGray
}

func adviceColor(l weighing.AdviceLevel) string {
	switch l {
	case weighing.LevelError:
		return colorRed
	case weighing.LevelWarning:
		return colorYellow
	case weighing.LevelSuccess:
		return colorGreen
	}
	return colorGray
}

func formatOutcome(o weighing.Outcome) string {
	r := o.Record
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s%s%s\n", prefix, varianceColor(o.Variance.Kind), o.Summary, colorReset)
	fmt.Fprintf(&b, "  gross %s  tare %s  net %s  invoice %s\n",
		formatKg(r.GrossWeight), formatKg(r.Tare), formatKg(r.NetWeight), formatKg(r.TargetWeight))
	if o.Learned {
		fmt.Fprintf(&b, "  %stare remembered for %s / %s%s\n", colorGray, r.Supplier, r.Product, colorReset)
	}
	fmt.Fprintf(&b, "  %sid %s%s", colorGray, r.ID, colorReset)
	return b.String()
}

func formatRecord(r ports.WeighingRecord) string {
	when := time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04")
	photo := ""
	if r.HasPhoto {
		photo = " 📷"
	}
	diff := r.NetWeight - r.TargetWeight
	return fmt.Sprintf("  %s%s%s  %-24s %-20s net %9s  diff %+8.3f%s",
		colorGray, when, colorReset, truncate(r.Supplier, 24), truncate(r.Product, 20),
		formatKg(r.NetWeight), diff, photo)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
