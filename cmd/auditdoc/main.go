// Command auditdoc serves and inspects the report template data catalog.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/auditdoc/auditdoc/pkg/ui"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		// Failed checks have already been reported line by line.
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, ui.FailStyle.Render("error:"), err)
		}
		os.Exit(1)
	}
}
