package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

// Serve runs app on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}
