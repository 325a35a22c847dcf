package listgen

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/japaniel/ramtools/pkg/wordpool"
	"go.uber.org/zap"
)

// Design is the list layout for one experiment.
type Design struct {
	WordsPerList int               `yaml:"words_per_list"`
	NumLists     int               `yaml:"num_lists"`
	Language     wordpool.Language `yaml:"language"`
	Counts       Counts            `yaml:"counts"`
}

// DefaultDesign matches the 12-word, 25-list layout with parameter search.
var DefaultDesign = Design{
	WordsPerList: 12,
	NumLists:     25,
	Language:     wordpool.EN,
	Counts:       Counts{Baseline: 3, NonStim: 7, Stim: 11, PS: 4},
}

// BuiltinDesigns are the layouts known without a config file.
var BuiltinDesigns = map[string]Design{
	"FR1":     {WordsPerList: 12, NumLists: 25, Language: wordpool.EN, Counts: Counts{Baseline: 25}},
	"catFR1":  {WordsPerList: 12, NumLists: 25, Language: wordpool.EN, Counts: Counts{Baseline: 25}},
	"FR5":     {WordsPerList: 12, NumLists: 25, Language: wordpool.EN, Counts: Counts{Baseline: 3, NonStim: 11, Stim: 11}},
	"PS4_FR5": DefaultDesign,
}

// LookupDesign finds a design by experiment name, preferring entries in
// overrides. Names are matched case-insensitively.
func LookupDesign(name string, overrides map[string]Design) (Design, bool) {
	for _, set := range []map[string]Design{overrides, BuiltinDesigns} {
		for k, d := range set {
			if strings.EqualFold(k, name) {
				return d, true
			}
		}
	}
	return Design{}, false
}

// DesignNames lists built-in and override names, sorted.
func DesignNames(overrides map[string]Design) []string {
	seen := map[string]bool{}
	var out []string
	for _, set := range []map[string]Design{overrides, BuiltinDesigns} {
		for k := range set {
			if !seen[strings.ToLower(k)] {
				seen[strings.ToLower(k)] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks the design is internally consistent before any word list
// is loaded.
func (d Design) Validate() error {
	if !d.Language.Valid() {
		return fmt.Errorf("%w: %q", wordpool.ErrUnknownLanguage, string(d.Language))
	}
	if d.WordsPerList <= 0 || d.NumLists <= 0 {
		return fmt.Errorf("words_per_list and num_lists must be positive")
	}
	if d.Counts.negative() {
		return fmt.Errorf("list counts must be non-negative")
	}
	if d.Counts.Total() != d.NumLists {
		return &SizeError{Kind: ErrListCountMismatch, Want: d.NumLists + 1, Got: d.Counts.Total() + 1}
	}
	return nil
}

// Session is a generated and labelled pool. Seed rebuilds the same pool when
// BuildSession is the first call on a generator created WithSeed(Seed).
type Session struct {
	ID         uuid.UUID
	Experiment string
	Seed       uint64
	Design     Design
	Pool       *wordpool.WordPool
	CreatedAt  time.Time
}

// BuildSession generates a pool for d and assigns list types.
func (g *Generator) BuildSession(experiment string, d Design) (*Session, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("design %s: %w", experiment, err)
	}
	pool, err := g.GenerateSessionPool(d.WordsPerList, d.NumLists, d.Language)
	if err != nil {
		return nil, err
	}
	if _, err := g.AssignListTypes(pool, d.Counts); err != nil {
		return nil, err
	}
	s := &Session{
		ID:         uuid.New(),
		Experiment: experiment,
		Seed:       g.seed,
		Design:     d,
		Pool:       pool,
		CreatedAt:  time.Now().UTC(),
	}
	g.logger.Info("built session pool",
		zap.String("session_id", s.ID.String()),
		zap.String("experiment", experiment),
		zap.Uint64("seed", s.Seed),
	)
	return s, nil
}
