package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/rowstore/internal/cli"
	_ "github.com/JonMunkholm/rowstore/internal/grid/memgrid"
	_ "github.com/JonMunkholm/rowstore/internal/grid/pggrid"
	_ "github.com/JonMunkholm/rowstore/internal/grid/sqlitegrid"
	"github.com/JonMunkholm/rowstore/internal/logging"
)

func main() {
	// A missing .env is fine; existing variables win over the file.
	_ = godotenv.Load()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logging.Setup(level, "tint")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
