package main

import (
	"os"

	"github.com/balancelab/balance-core/pkg/logger"
)

func main() {
	defer logger.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
