// conferente remembers packaging tares per supplier and product for
// receiving-dock weighing checks.
package main

import (
	"os"

	"github.com/corey/conferente/cmd/conferente/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
