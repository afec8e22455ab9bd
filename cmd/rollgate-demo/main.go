// Command rollgate-demo drives a rollgate client from the command line,
// for exercising a mobile key and a user against a live environment
// without writing a throwaway program.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
