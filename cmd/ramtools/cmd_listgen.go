package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/japaniel/ramtools/pkg/db"
	"github.com/japaniel/ramtools/pkg/listgen"
	"github.com/japaniel/ramtools/pkg/wordpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type listgenOptions struct {
	experiment   string
	wordsPerList int
	lists        int
	baseline     int
	nonstim      int
	stim         int
	ps           int
	language     string
	seed         uint64
	save         bool
}

func newListgenCmd(a *app) *cobra.Command {
	o := &listgenOptions{}
	cmd := &cobra.Command{
		Use:   "listgen",
		Short: "Generate and label the word lists for one session",
		Long: `Builds a session pool from the bundled vocabulary: a practice list
followed by shuffled lists of distinct words, each labelled as baseline,
non-stim, stim or parameter search.

A named experiment (--experiment) supplies the layout; any of the layout
flags override it. Without an experiment the 12-word, 25-list layout with
3 baseline, 7 non-stim, 11 stim and 4 PS lists is used.

Example:
  ramtools listgen --experiment FR1 --seed 42 --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListgen(a, o, cmd)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.experiment, "experiment", "x", "", "Named experiment design")
	f.IntVar(&o.wordsPerList, "words-per-list", 0, "Words per list")
	f.IntVar(&o.lists, "lists", 0, "Number of lists, excluding practice")
	f.IntVar(&o.baseline, "baseline", 0, "Baseline lists")
	f.IntVar(&o.nonstim, "nonstim", 0, "Non-stim lists")
	f.IntVar(&o.stim, "stim", 0, "Stim lists")
	f.IntVar(&o.ps, "ps", 0, "Parameter search lists")
	f.StringVar(&o.language, "language", "", "Session language (EN or SP)")
	f.Uint64Var(&o.seed, "seed", 0, "Random seed (default random)")
	f.BoolVar(&o.save, "save", false, "Persist the pool to the database")
	return cmd
}

// resolveDesign starts from the named or default design and applies any
// layout flags that were set explicitly.
func resolveDesign(a *app, o *listgenOptions, cmd *cobra.Command) (string, listgen.Design, error) {
	name := "custom"
	d := listgen.DefaultDesign
	if o.experiment != "" {
		found, ok := a.cfg.Design(o.experiment)
		if !ok {
			return "", d, fmt.Errorf("unknown experiment %q (known: %s)", o.experiment,
				strings.Join(listgen.DesignNames(a.cfg.Designs), ", "))
		}
		name, d = o.experiment, found
	}

	f := cmd.Flags()
	for flag, dst := range map[string]*int{
		"words-per-list": &d.WordsPerList,
		"lists":          &d.NumLists,
		"baseline":       &d.Counts.Baseline,
		"nonstim":        &d.Counts.NonStim,
		"stim":           &d.Counts.Stim,
		"ps":             &d.Counts.PS,
	} {
		if f.Changed(flag) {
			v, _ := f.GetInt(flag)
			*dst = v
		}
	}
	if f.Changed("language") {
		lang, err := wordpool.ParseLanguage(o.language)
		if err != nil {
			return "", d, err
		}
		d.Language = lang
	}
	return name, d, nil
}

func runListgen(a *app, o *listgenOptions, cmd *cobra.Command) error {
	name, design, err := resolveDesign(a, o, cmd)
	if err != nil {
		return err
	}

	opts := []listgen.Option{listgen.WithLogger(a.logger)}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, listgen.WithSeed(o.seed))
	}
	gen := listgen.NewGenerator(opts...)
	session, err := gen.BuildSession(name, design)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s  experiment=%s  language=%s  seed=%d\n",
		session.ID, session.Experiment, design.Language, session.Seed)
	printPool(out, session.Pool)

	if !o.save {
		return nil
	}
	conn, err := a.openDB()
	if err != nil {
		return err
	}
	defer conn.Close()
	summary := db.PoolSummary{
		ID:           session.ID.String(),
		Experiment:   session.Experiment,
		Language:     string(design.Language),
		WordsPerList: design.WordsPerList,
		NumLists:     design.NumLists,
		Seed:         strconv.FormatUint(session.Seed, 10),
		CreatedAt:    session.CreatedAt,
	}
	if err := db.SavePool(conn, summary, session.Pool); err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	a.logger.Info("pool saved", zap.String("session_id", summary.ID))
	fmt.Fprintf(out, "Saved pool %s\n", summary.ID)
	return nil
}

func printPool(w io.Writer, pool *wordpool.WordPool) {
	for i, wl := range pool.Lists {
		fmt.Fprintf(w, "%3d  %-18s %s\n", i, wl.Type(), strings.Join(wl.Words, " "))
	}
}
