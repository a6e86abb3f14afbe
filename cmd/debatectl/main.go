package main

import (
	"fmt"
	"os"

	"github.com/xiaot623/gogo/debatebridge/cmd/debatectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
