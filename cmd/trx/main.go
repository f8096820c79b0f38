// Package main is the entry point for the trx CLI tool.
package main

import (
	"github.com/sweqa/trx/internal/cmd"
)

func main() {
	cmd.Execute()
}
