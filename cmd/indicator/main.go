// Command indicator runs the Community Profile Report ingestion pipeline:
// it lists the catalog, extracts the testing signals from every selected
// workbook, and exports covidcast CSV files. By default it runs as a daemon
// on the configured interval with the status server alongside; -once runs a
// single batch and exits, which suits cron-style deployments.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cprcli/internal/app"
	"cprcli/internal/config"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("indicator failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("indicator", flag.ContinueOnError)
	fs.SetOutput(out)
	once := fs.Bool("once", false, "run one ingestion batch and exit instead of running as a daemon")
	reports := fs.String("reports", "", `reports selector override: "new", "all", or YYYY-MM-DD--YYYY-MM-DD`)
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Fprintf(out, "%s %s\n", config.AppName, config.AppVersion)
		return nil
	}

	// A .env file is optional and never overrides the real environment.
	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := application.Close(ctx); err != nil {
			slog.Error("shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		return application.RunOnce(ctx, *reports)
	}
	return application.Run(ctx)
}
