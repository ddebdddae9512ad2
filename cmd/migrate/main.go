package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"streaker/migrations"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the streaker database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", envOrDefault("DATABASE_PATH", "./data/streaker.db"), "path to sqlite database")

	// withProvider opens the database for one subcommand run.
	withProvider := func(fn func(ctx context.Context, p *goose.Provider, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			db, err := sql.Open("sqlite", dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			p, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}
			return fn(cmd.Context(), p, cmd.OutOrStdout())
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Migrate to the latest version",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(ctx context.Context, p *goose.Provider, out io.Writer) error {
				results, err := p.Up(ctx)
				printResults(out, results)
				if err != nil {
					return fmt.Errorf("up: %w", err)
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "no migrations to apply")
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "up-one",
			Short: "Migrate one version up",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(ctx context.Context, p *goose.Provider, out io.Writer) error {
				res, err := p.UpByOne(ctx)
				if err != nil {
					return fmt.Errorf("up-one: %w", err)
				}
				printResults(out, []*goose.MigrationResult{res})
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back one version",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(ctx context.Context, p *goose.Provider, out io.Writer) error {
				res, err := p.Down(ctx)
				if err != nil {
					return fmt.Errorf("down: %w", err)
				}
				printResults(out, []*goose.MigrationResult{res})
				return nil
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(ctx context.Context, p *goose.Provider, out io.Writer) error {
				results, err := p.DownTo(ctx, 0)
				printResults(out, results)
				if err != nil {
					return fmt.Errorf("reset: %w", err)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(ctx context.Context, p *goose.Provider, out io.Writer) error {
				statuses, err := p.Status(ctx)
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, st := range statuses {
					applied := "-"
					if !st.AppliedAt.IsZero() {
						applied = st.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, filepath.Base(st.Source.Path))
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show current version",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(ctx context.Context, p *goose.Provider, out io.Writer) error {
				v, err := p.GetDBVersion(ctx)
				if err != nil {
					return fmt.Errorf("version: %w", err)
				}
				fmt.Fprintf(out, "version %d\n", v)
				return nil
			}),
		},
	)

	return cmd
}

func printResults(out io.Writer, results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Fprintf(out, "%-4s %s (%s)\n", r.Direction, filepath.Base(r.Source.Path), r.Duration.Round(time.Millisecond))
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
