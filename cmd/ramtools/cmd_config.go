package main

import (
	"fmt"
	"strings"

	"github.com/japaniel/ramtools/pkg/config"
	"github.com/japaniel/ramtools/pkg/listgen"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ramtools.yaml",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ResolvePath(a.configPath)
			written, err := config.WriteDefault(path)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists; leaving it unchanged\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	designsCmd := &cobra.Command{
		Use:   "designs",
		Short: "List the experiment designs known to listgen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range listgen.DesignNames(a.cfg.Designs) {
				d, _ := a.cfg.Design(name)
				fmt.Fprintf(out, "%-10s %s %2dx%-2d baseline=%d nonstim=%d stim=%d ps=%d\n",
					name, strings.ToUpper(string(d.Language)), d.NumLists, d.WordsPerList,
					d.Counts.Baseline, d.Counts.NonStim, d.Counts.Stim, d.Counts.PS)
			}
			return nil
		},
	}
	cmd.AddCommand(initCmd, designsCmd)
	return cmd
}
