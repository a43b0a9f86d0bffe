package main

import (
	"fmt"
	"os"

	"github.com/ramp-payments/verification-engine/cmd"
)

// Version is the official version of this application. Whenever it's
// changed here, it also needs to be updated wherever the release is tagged.
const Version = "0.1.0"

// GitCommit is populated at build time by
// go build -ldflags "-X main.GitCommit=$GIT_COMMIT"
var GitCommit string

func main() {
	rootCmd := cmd.SetupCLI(Version, GitCommit)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
