// Command sqlgate serves registered databases and their published endpoints
// over HTTP.
package main

import (
	"os"

	"github.com/koustreak/sqlgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
