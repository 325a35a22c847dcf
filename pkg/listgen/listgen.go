// Package listgen builds randomized word-list pools for free-recall sessions
// and labels each list with its experimental condition.
package listgen

import (
	"fmt"
	"math/rand/v2"

	"github.com/japaniel/ramtools/pkg/wordpool"
	"go.uber.org/zap"
)

// Counts is the number of lists per condition, excluding the practice list.
type Counts struct {
	Baseline int `yaml:"baseline"`
	NonStim  int `yaml:"nonstim"`
	Stim     int `yaml:"stim"`
	PS       int `yaml:"ps"`
}

// Total is the number of non-practice lists the counts describe.
func (c Counts) Total() int {
	return c.Baseline + c.NonStim + c.Stim + c.PS
}

func (c Counts) negative() bool {
	return c.Baseline < 0 || c.NonStim < 0 || c.Stim < 0 || c.PS < 0
}

// Generator owns the random source and word-list source used for pool
// generation. A Generator is not safe for concurrent use.
type Generator struct {
	rng    *rand.Rand
	seed   uint64
	source wordpool.Source
	logger *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes every draw reproducible from seed.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.rng = newRand(seed)
	}
}

// WithRand uses r directly. Seed reports 0 in that case.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.seed = 0
		g.rng = r
	}
}

// WithSource replaces the bundled word lists.
func WithSource(src wordpool.Source) Option {
	return func(g *Generator) { g.source = src }
}

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator returns a Generator seeded from the runtime's random source
// unless WithSeed or WithRand is given.
func NewGenerator(opts ...Option) *Generator {
	seed := rand.Uint64()
	g := &Generator{
		rng:    newRand(seed),
		seed:   seed,
		source: wordpool.EmbeddedSource{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Seed returns the seed the generator was built from.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// GenerateSessionPool shuffles a private copy of the vocabulary for lang,
// splits it into numLists lists of wordsPerList words and puts the practice
// list in front. The vocabulary must hold exactly wordsPerList*numLists words.
func (g *Generator) GenerateSessionPool(wordsPerList, numLists int, lang wordpool.Language) (*wordpool.WordPool, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %q", wordpool.ErrUnknownLanguage, string(lang))
	}
	vocab, err := g.source.Vocabulary(lang)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	practice, err := g.source.Practice(lang)
	if err != nil {
		return nil, fmt.Errorf("load practice list: %w", err)
	}

	want := wordsPerList * numLists
	if wordsPerList <= 0 || numLists <= 0 || vocab.Len() != want {
		return nil, &SizeError{Kind: ErrVocabularySizeMismatch, Want: want, Got: vocab.Len()}
	}

	vocab.Shuffle(g.rng)

	lists := make([]*wordpool.WordList, 0, numLists+1)
	lists = append(lists, practice)
	for n := 0; n < vocab.Len(); n += wordsPerList {
		lists = append(lists, vocab.Slice(n, n+wordsPerList))
	}

	g.logger.Debug("generated session pool",
		zap.String("language", string(lang)),
		zap.Int("words_per_list", wordsPerList),
		zap.Int("num_lists", numLists),
	)
	return wordpool.NewWordPool(lists), nil
}

// AssignListTypes labels the lists of pool in place and returns pool.
//
// The Baseline lists following practice are labelled NON-STIM, the next PS
// lists PS ENCODING. The remaining lists keep their order and
// receive a shuffled sequence of NonStim NON-STIM and Stim STIM labels. The
// practice list is left untouched. On a count mismatch pool is not modified.
func (g *Generator) AssignListTypes(pool *wordpool.WordPool, c Counts) (*wordpool.WordPool, error) {
	want := c.Total() + 1
	if c.negative() || pool.Len() != want {
		return nil, &SizeError{Kind: ErrListCountMismatch, Want: want, Got: pool.Len()}
	}

	practice := pool.Lists[0]
	baseline := pool.Lists[1 : 1+c.Baseline]
	ps := pool.Lists[1+c.Baseline : 1+c.Baseline+c.PS]
	rest := pool.Lists[1+c.Baseline+c.PS:]

	for _, wl := range baseline {
		wl.SetType(wordpool.TypeBaseline)
	}
	for _, wl := range ps {
		wl.SetType(wordpool.TypePS)
	}

	labels := make([]string, 0, len(rest))
	for i := 0; i < c.NonStim; i++ {
		labels = append(labels, wordpool.TypeNonStim)
	}
	for i := 0; i < c.Stim; i++ {
		labels = append(labels, wordpool.TypeStim)
	}
	g.rng.Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})
	for i, wl := range rest {
		wl.SetType(labels[i])
	}

	ordered := make([]*wordpool.WordList, 0, pool.Len())
	ordered = append(ordered, practice)
	ordered = append(ordered, baseline...)
	ordered = append(ordered, ps...)
	ordered = append(ordered, rest...)
	pool.Lists = ordered

	g.logger.Debug("assigned list types",
		zap.Int("baseline", c.Baseline),
		zap.Int("nonstim", c.NonStim),
		zap.Int("stim", c.Stim),
		zap.Int("ps", c.PS),
	)
	return pool, nil
}

// GenerateSessionPool is Generator.GenerateSessionPool on a freshly seeded
// generator.
func GenerateSessionPool(wordsPerList, numLists int, lang wordpool.Language) (*wordpool.WordPool, error) {
	return NewGenerator().GenerateSessionPool(wordsPerList, numLists, lang)
}

// AssignListTypes is Generator.AssignListTypes on a freshly seeded generator.
func AssignListTypes(pool *wordpool.WordPool, c Counts) (*wordpool.WordPool, error) {
	return NewGenerator().AssignListTypes(pool, c)
}
