package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/japaniel/ramtools/pkg/datadir"
	"github.com/japaniel/ramtools/pkg/db"
	"github.com/japaniel/ramtools/pkg/prompt"
	"github.com/japaniel/ramtools/pkg/upload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// hostOnlyExperiment can be pulled from the host PC even though it never
// appears in the local data root.
const hostOnlyExperiment = "AmplitudeDetermination"

type uploadOptions struct {
	subject    string
	experiment string
	session    int
	dataroot   string
	src        string
	dest       string
}

func newUploadCmd(a *app) *cobra.Command {
	o := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload [host|imaging|clinical|experiment]",
		Short: "Transfer session data from the host PC and upload it",
		Long: `Moves recorded data towards the archive. Anything not given on the
command line is asked for interactively.

Actions:
  host        - Transfer EEG data from the host PC to the data root
  experiment  - Transfer host data, then upload the session and its log manifest
  imaging     - Upload an imaging directory (--src)
  clinical    - Upload clinical EEG (--src)`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"host", "imaging", "clinical", "experiment"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(a, o, cmd, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.subject, "subject", "s", "", "Subject ID")
	f.StringVarP(&o.experiment, "experiment", "x", "", "Experiment type")
	f.IntVarP(&o.session, "session", "n", -1, "Session number")
	f.StringVar(&o.dataroot, "dataroot", "", "Root data directory (default from config, then <git root>/data)")
	f.StringVar(&o.src, "src", "", "Source directory for imaging and clinical uploads")
	f.StringVar(&o.dest, "dest", "", "Override the upload destination")
	return cmd
}

func (a *app) promptFor(cmd *cobra.Command) prompt.Prompter {
	if a.prompter != nil {
		return a.prompter
	}
	return prompt.TeaPrompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
}

func runUpload(a *app, o *uploadOptions, cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	p := a.promptFor(cmd)

	action := ""
	if len(args) == 1 {
		key, ok := prompt.MatchChoice(args[0], prompt.Subcommands)
		if !ok {
			return fmt.Errorf("unknown action %q", args[0])
		}
		action = key
	} else {
		key, err := p.Subcommand()
		if err != nil {
			return err
		}
		action = key
	}

	crawler := datadir.NewCrawler(a.logger)
	crawler.Runner = a.shellRunner()
	dataroot := o.dataroot
	if dataroot == "" {
		dataroot = a.cfg.DataRoot
	}
	root, err := crawler.DataPath(ctx, dataroot)
	needsRoot := action == "host" || action == "experiment"
	if err != nil && needsRoot {
		return err
	}
	available := map[string][]string{}
	if err == nil {
		if available, err = crawler.Crawl(ctx, root); err != nil {
			return err
		}
	} else {
		a.logger.Warn("data root unavailable; subject list is empty", zap.Error(err))
	}

	subject := o.subject
	if subject == "" {
		subject, err = p.Subject(sortedKeys(available), action != "experiment")
		if err != nil {
			return err
		}
	}

	u := upload.New(subject, a.cfg, root, a.logger)
	u.Runner = a.shellRunner()
	u.Now = a.clock
	conn, err := a.openDB()
	if err != nil {
		return err
	}
	defer conn.Close()
	uploadLog := db.NewUploadLog(conn, 8, time.Second)
	defer func() {
		if err := uploadLog.Close(); err != nil {
			a.logger.Warn("upload log incomplete", zap.Error(err))
		}
	}()
	u.Log = uploadLog

	switch action {
	case "host", "experiment":
		experiments := append([]string(nil), available[subject]...)
		allowAnySession := action == "host"
		if action == "host" {
			experiments = append(experiments, hostOnlyExperiment)
		}
		experiment := o.experiment
		if experiment == "" {
			if experiment, err = p.Experiment(experiments); err != nil {
				return err
			}
		}
		session := o.session
		if session < 0 {
			sessions, err := crawler.Sessions(ctx, subject, experiment, root)
			if err != nil {
				return err
			}
			if session, err = p.Session(sessions, allowAnySession); err != nil {
				return err
			}
		}
		if action == "experiment" {
			fmt.Fprintln(out, "Beginning experiment data upload...")
			if err := u.UploadExperimentData(ctx, experiment, session, o.dest); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, "Beginning host data transfer...")
			if err := u.TransferHostData(ctx, experiment, session); err != nil {
				return err
			}
		}
	case "imaging":
		fmt.Fprintln(out, "Beginning imaging upload...")
		if err := u.UploadImaging(ctx, o.src, o.dest); err != nil {
			return srcHint(err)
		}
	case "clinical":
		fmt.Fprintln(out, "Beginning clinical EEG upload...")
		if err := u.UploadClinicalEEG(ctx, o.src, o.dest); err != nil {
			return srcHint(err)
		}
	}
	fmt.Fprintln(out, "Done.")
	return nil
}

func srcHint(err error) error {
	if errors.Is(err, upload.ErrNoSource) {
		return fmt.Errorf("%w (pass --src)", err)
	}
	return err
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
