package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

type runnable interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Done() <-chan os.Signal
}

var _ runnable = (*fx.App)(nil)

// run blocks until the signal context is cancelled or a component requests shutdown.
func run(ctx context.Context, app runnable) error {
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	// Lifecycle hooks apply their own shutdown timeout.
	if err := app.Stop(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}
