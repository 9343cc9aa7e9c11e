// Command memtest exercises an in-process memory region with the
// memtest pattern engine and exits non-zero if any test fails or a
// setup error occurs.
package main

import (
	"os"

	"github.com/calvinalkan/memtest/internal/cli"
)

func main() {
	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args)
	os.Exit(exitCode)
}
