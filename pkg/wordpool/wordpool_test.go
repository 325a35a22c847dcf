package wordpool

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	for in, want := range map[string]Language{"EN": EN, "en": EN, " sp ": SP, "Sp": SP} {
		got, err := ParseLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseLanguage("FR")
	require.ErrorIs(t, err, ErrUnknownLanguage)
	assert.False(t, Language("DE").Valid())
}

func TestParseListSkipsBlankLines(t *testing.T) {
	words, err := ParseList(strings.NewReader("APPLE\n\n  PEAR \r\n\nPLUM"))
	require.NoError(t, err)
	assert.Equal(t, []string{"APPLE", "PEAR", "PLUM"}, words)
}

func TestBundledListSizes(t *testing.T) {
	for _, lang := range []Language{EN, SP} {
		vocab, err := Vocabulary(lang)
		require.NoError(t, err)
		assert.Equal(t, 300, vocab.Len(), "vocabulary %s", lang)
		assert.Empty(t, vocab.Type())

		seen := map[string]bool{}
		for _, w := range vocab.Words {
			assert.False(t, seen[w], "duplicate word %s in %s vocabulary", w, lang)
			seen[w] = true
		}

		practice, err := PracticeList(lang)
		require.NoError(t, err)
		assert.Equal(t, 12, practice.Len())
		assert.Equal(t, TypePractice, practice.Type())
		for _, w := range practice.Words {
			assert.False(t, seen[w], "practice word %s also in %s vocabulary", w, lang)
		}
	}
}

func TestVocabularyReturnsIndependentCopies(t *testing.T) {
	a, err := Vocabulary(EN)
	require.NoError(t, err)
	b, err := Vocabulary(EN)
	require.NoError(t, err)

	a.Shuffle(rand.New(rand.NewPCG(1, 2)))
	a.SetType(TypeStim)
	assert.NotEqual(t, a.Words, b.Words)
	assert.Empty(t, b.Type())
}

func TestWordListSliceAndShuffle(t *testing.T) {
	wl := NewWordList([]string{"A", "B", "C", "D", "E"}, map[string]string{TypeKey: TypePractice})
	s := wl.Slice(1, 3)
	assert.Equal(t, []string{"B", "C"}, s.Words)
	assert.Empty(t, s.Type(), "slice must not inherit metadata")

	s.Words[0] = "Z"
	assert.Equal(t, "B", wl.Words[1], "slice must not alias the parent")

	wl.Shuffle(rand.New(rand.NewPCG(7, 7)))
	got := append([]string(nil), wl.Words...)
	sort.Strings(got)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, got)
}

func TestShuffleIsSeedDeterministic(t *testing.T) {
	a, _ := Vocabulary(SP)
	b, _ := Vocabulary(SP)
	a.Shuffle(rand.New(rand.NewPCG(42, 0)))
	b.Shuffle(rand.New(rand.NewPCG(42, 0)))
	assert.Equal(t, a.Words, b.Words)
}

func TestPoolCloneAndCounts(t *testing.T) {
	p := NewWordPool([]*WordList{
		NewWordList([]string{"X"}, map[string]string{TypeKey: TypePractice}),
		NewWordList([]string{"Y"}, map[string]string{TypeKey: TypeStim}),
		NewWordList([]string{"Z"}, map[string]string{TypeKey: TypeStim}),
	})
	c := p.Clone()
	c.Lists[1].SetType(TypePS)
	c.Lists[1].Words[0] = "Q"

	assert.Equal(t, map[string]int{TypePractice: 1, TypeStim: 2}, p.TypeCounts())
	assert.Equal(t, []string{TypePractice, TypePS, TypeStim}, c.Types())
	assert.Equal(t, "Y", p.Lists[1].Words[0])
	assert.Contains(t, p.String(), "PRACTICE[X]")
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, VocabularyEN), []byte("ONE\nTWO\nTHREE\nFOUR\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, PracticeEN), []byte("ZERO\n"), 0o644))

	src := DirSource{Dir: dir}
	vocab, err := src.Vocabulary(EN)
	require.NoError(t, err)
	assert.Equal(t, []string{"ONE", "TWO", "THREE", "FOUR"}, vocab.Words)

	practice, err := src.Practice(EN)
	require.NoError(t, err)
	assert.Equal(t, TypePractice, practice.Type())

	_, err = src.Vocabulary(SP)
	require.Error(t, err, "missing SP file must surface")

	_, err = src.Vocabulary(Language("XX"))
	require.ErrorIs(t, err, ErrUnknownLanguage)
}
