// Command callerid-cli is a terminal stand-in for the device side: it resolves
// incoming numbers through the identification pipeline and manages blocks
package main

import (
	"os"

	"callerid/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Get().Error().Err(err).Msg("callerid-cli failed")
		os.Exit(1)
	}
}
