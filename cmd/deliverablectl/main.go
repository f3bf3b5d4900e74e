// Command deliverablectl lists and edits deliverables from the terminal,
// through the same service, cache and backend as the web server.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Olprog59/go-deliverables/internal/config"
)

func main() {
	if err := newRootCmd(openContainer).Execute(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "Cannot start: %s %s.\n", cfgErr.Field, cfgErr.Message)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
