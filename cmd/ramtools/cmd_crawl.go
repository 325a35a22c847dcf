package main

import (
	"fmt"
	"strings"

	"github.com/japaniel/ramtools/pkg/datadir"
	"github.com/spf13/cobra"
)

func newCrawlCmd(a *app) *cobra.Command {
	var dataroot string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "List subjects and the experiments they have data for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			crawler := datadir.NewCrawler(a.logger)
			crawler.Runner = a.shellRunner()
			if dataroot == "" {
				dataroot = a.cfg.DataRoot
			}
			subjects, err := crawler.Crawl(ctx, dataroot)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(subjects) == 0 {
				fmt.Fprintln(out, "No subjects found.")
				return nil
			}
			for _, subject := range sortedKeys(subjects) {
				fmt.Fprintf(out, "%-10s %s\n", subject, strings.Join(subjects[subject], ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataroot, "dataroot", "", "Root data directory (default from config, then <git root>/data)")
	return cmd
}

func newExpireCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expire [dir]",
		Short: "Remove transferred data older than the configured lifetime",
		Long: `Deletes entries of the transferred data directory (transferred.path by
default) whose modification time is older than transferred.eeg_lifetime_days.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Transferred.Path
			if len(args) == 1 {
				dir = args[0]
			}
			if !cmd.Flags().Changed("days") {
				days = a.cfg.Transferred.EEGLifetimeDays
			}
			removed, err := datadir.ExpireTransferred(dir, days, a.clock(), a.logger)
			out := cmd.OutOrStdout()
			for _, name := range removed {
				fmt.Fprintf(out, "removed %s\n", name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d entries from %s\n", len(removed), dir)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Lifetime in days (default transferred.eeg_lifetime_days)")
	return cmd
}
