// Command rapor aggregates school grades into report-card summaries.
package main

import (
	"fmt"
	"os"

	"github.com/raporkit/rapor/cmd"
	"github.com/raporkit/rapor/internal/gradestore"
)

func main() {
	code := run()
	os.Exit(code)
}

// run executes the CLI and closes the grade store before exit.
func run() int {
	defer gradestore.CloseStores()
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
