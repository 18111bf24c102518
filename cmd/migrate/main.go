package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/Adbay/widget-weather/internal/config"
	"github.com/Adbay/widget-weather/internal/db"
	"github.com/Adbay/widget-weather/internal/logging"
	"github.com/Adbay/widget-weather/internal/migrate"
)

const usage = `usage: %s <command>
  migrate  apply pending migrations
  status   list migrations and whether they are applied
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg, "dev", "widget-migrate"))

	conn, err := db.Open(cfg, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	ctx := context.Background()
	switch os.Args[1] {
	case "migrate":
		if err := migrate.Run(ctx, conn); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migrations applied")
	case "status":
		list, err := migrate.Status(ctx, conn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status: %v\n", err)
			os.Exit(1)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
		for _, m := range list {
			fmt.Fprintf(tw, "%s\t%s\t%t\n", m.Version, m.Name, m.Applied)
		}
		_ = tw.Flush()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}
