package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"freight-tracker/internal/core/logger"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	logger.Sync()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
