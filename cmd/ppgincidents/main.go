package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bakwc/ppg-incidents/internal/config"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/version"
)

const programName = "ppgincidents"

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Execute(ctx, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing.
func Execute(ctx context.Context, args []string) error {
	var env string

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Paramotor incident retrieval and duplicate detection service",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "configuration environment (config/<env>.yaml)")

	rootCmd.AddCommand(
		serveCmd(&env),
		reindexCmd(&env),
		sweepCmd(&env),
		showTextCmd(&env),
	)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func serveCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(cmd.Context())
		},
	}
}

func reindexCmd(env *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the text index and embed incidents without a vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			report, err := a.incidents.Reindex(cmd.Context(), force)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	registerReindexFlags(cmd.Flags(), &force)
	return cmd
}

func registerReindexFlags(flags *pflag.FlagSet, force *bool) {
	flags.BoolVar(force, "force", false, "re-embed every incident, not only those without a vector")
}

func sweepCmd(env *string) *cobra.Command {
	var backfill bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete orphan index entries, optionally backfilling missing ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			reports, err := a.sweep.Run(cmd.Context(), backfill)
			if err != nil {
				return err
			}
			return printJSON(cmd, reports)
		},
	}
	cmd.Flags().BoolVar(&backfill, "backfill", false, "write entries for incidents missing from an index")
	return cmd
}

func showTextCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show-text <uuid>",
		Short: "Print the flattened text an incident is indexed by",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid, err := incident.ParseUUID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			text, err := a.incidents.ShowText(cmd.Context(), uuid)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
