// Command btcbot runs the bitcoin market-timing bot.
package main

import (
	"os"

	"github.com/fatih/color"

	"btc-timing-bot/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
