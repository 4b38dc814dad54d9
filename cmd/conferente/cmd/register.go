package cmd

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/conferente/internal/domain/tare"
	"github.com/corey/conferente/internal/domain/weighing"
)

// entryFlags holds the weighing form shared by register and ask.
type entryFlags struct {
	supplier  string
	product   string
	target    string
	gross     string
	tare      string
	qty       int
	pkgWeight string
	pkgQty    int
	noTare    bool
	photo     string
}

var registerFlags entryFlags

func (f *entryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.supplier, "supplier", "s", "", "supplier name")
	cmd.Flags().StringVarP(&f.product, "product", "p", "", "product name")
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "invoice weight (kg)")
	cmd.Flags().StringVarP(&f.gross, "gross", "g", "", "scale reading (kg)")
	cmd.Flags().StringVar(&f.tare, "tare", "", "tare per box (kg); defaults to the remembered tare")
	cmd.Flags().IntVar(&f.qty, "qty", 1, "number of boxes")
	cmd.Flags().StringVar(&f.pkgWeight, "pkg-weight", "", "weight of one extra package, e.g. a pallet (kg)")
	cmd.Flags().IntVar(&f.pkgQty, "pkg-qty", 0, "number of extra packages")
	cmd.Flags().BoolVar(&f.noTare, "no-tare", false, "weigh without discounting any tare")
}

// tareSource answers the remembered tare for a pair.
type tareSource interface {
	PredictTareForPair(supplier, product string) (float64, bool)
}

// entry builds a weighing entry, filling an omitted tare from memory.
func (f *entryFlags) entry(mem tareSource) (weighing.Entry, error) {
	e := weighing.Entry{
		Identification: weighing.Identification{Supplier: f.supplier, Product: f.product},
		Breakdown:      weighing.TareBreakdown{ProductQty: f.qty, PackageQty: f.pkgQty},
		Mode:           weighing.TareManual,
	}
	if f.noTare {
		e.Mode = weighing.TareNone
	}

	var err error
	if e.TargetWeight, err = optionalKg(f.target); err != nil {
		return e, err
	}
	if e.Gross, err = optionalKg(f.gross); err != nil {
		return e, err
	}
	if e.Breakdown.PackageUnitWeight, err = optionalKg(f.pkgWeight); err != nil {
		return e, err
	}
	if f.tare != "" {
		if e.Breakdown.ProductTare, err = parseKg(f.tare); err != nil {
			return e, err
		}
	} else if kg, ok := mem.PredictTareForPair(f.supplier, f.product); ok {
		e.Breakdown.ProductTare = kg
	}

	if f.photo != "" {
		if e.Photo, err = photoDataURL(f.photo); err != nil {
			return e, err
		}
	}
	return e, nil
}

func optionalKg(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return parseKg(s)
}

// photoDataURL reads an image file into the data URL form stored with records.
func photoDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Record a weighing and compare it with the invoice",
	Example: `  conferente register -s "Ceasa Norte" -p Tomate -t 20 -g 22.4 --tare 1.2 --qty 2
  conferente register -s Acme -p Arroz -t 30 -g 30.1 --no-tare --photo nota.jpg`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := registerFlags.entry(a)
		if err != nil {
			return err
		}

		if s := a.Suggest(e.Supplier, e.Product, e.Breakdown.ProductTare); s.Action == tare.ActionWarn {
			fmt.Println(formatWarning(s.Warning))
		}

		out, err := a.Register(e)
		if err != nil {
			return err
		}
		fmt.Println(formatOutcome(out))

		if adv, err := a.Advise(e); err == nil && adv != nil {
			fmt.Printf("  %s%s%s\n", adviceColor(adv.Level), adv.Text, colorReset)
		}
		return nil
	},
}

func init() {
	registerFlags.bind(registerCmd)
	registerCmd.Flags().StringVar(&registerFlags.photo, "photo", "", "image file attached as evidence")
}
