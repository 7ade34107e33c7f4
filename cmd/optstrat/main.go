// Command optstrat evaluates option strategy payoffs at expiry.
package main

import (
	"fmt"
	"os"

	"optstrat/internal/cli"
	"optstrat/internal/logging"
)

func main() {
	if err := cli.Execute(logging.NewLogger(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
