package main

import (
	"os"

	"github.com/priceforge/priceforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
