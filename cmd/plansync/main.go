// Package main provides the plansync CLI: batch pipeline runs that move
// tracker records between the tabular source, the relational store, and the
// dashboard payload.
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
