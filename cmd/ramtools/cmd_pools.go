package main

import (
	"fmt"
	"strings"

	"github.com/japaniel/ramtools/pkg/db"
	"github.com/spf13/cobra"
)

func newPoolsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Inspect saved session pools",
		Long: `List and show pools saved with "ramtools listgen --save".

Subcommands:
  list   - List saved pools, newest first
  show   - Print one pool's lists`,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoolsList(a, cmd)
		},
	}
	show := &cobra.Command{
		Use:   "show <pool-id>",
		Short: "Print a saved pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoolsShow(a, cmd, args[0])
		},
	}
	cmd.AddCommand(list, show)
	return cmd
}

func runPoolsList(a *app, cmd *cobra.Command) error {
	conn, err := a.openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	pools, err := db.ListPools(conn)
	if err != nil {
		return fmt.Errorf("failed to list pools: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(pools) == 0 {
		fmt.Fprintln(out, "No saved pools found.")
		return nil
	}
	fmt.Fprintln(out, strings.Repeat("-", 72))
	for _, p := range pools {
		fmt.Fprintf(out, "%s  %-10s %s  %dx%d  seed=%s  %s\n",
			p.ID, p.Experiment, p.Language, p.NumLists, p.WordsPerList, p.Seed,
			p.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, strings.Repeat("-", 72))
	fmt.Fprintf(out, "Total: %d pools\n", len(pools))
	return nil
}

func runPoolsShow(a *app, cmd *cobra.Command, id string) error {
	conn, err := a.openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	summary, pool, err := db.GetPool(conn, id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s  experiment=%s  language=%s  seed=%s\n",
		summary.ID, summary.Experiment, summary.Language, summary.Seed)
	printPool(out, pool)
	return nil
}
