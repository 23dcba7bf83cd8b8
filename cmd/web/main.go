// Command web serves the media merge HTTP API.
package main

import (
	"log/slog"
	"os"

	"mediamerge/internal/app"
	"mediamerge/internal/infrastructure"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		infrastructure.GetLogger().Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = application.Run()
	if err != nil {
		infrastructure.GetLogger().Error("Application error", slog.String("error", err.Error()))
	}
	infrastructure.CloseLogFile()
	if err != nil {
		os.Exit(1)
	}
}
