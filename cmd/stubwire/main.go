// stubwire - stateful HTTP stub server
package main

import (
	"fmt"
	"os"

	"github.com/stubwire/stubwire/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	err := cli.Execute(cli.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
