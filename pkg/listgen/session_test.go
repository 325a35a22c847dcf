package listgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/japaniel/ramtools/pkg/wordpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSessionReproducibleFromSeed(t *testing.T) {
	s1, err := NewGenerator(WithSeed(77)).BuildSession("PS4_FR5", DefaultDesign)
	require.NoError(t, err)
	s2, err := NewGenerator(WithSeed(s1.Seed)).BuildSession("PS4_FR5", DefaultDesign)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, s1.ID)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, uint64(77), s1.Seed)
	assert.Equal(t, s1.Pool, s2.Pool)
	assert.Equal(t, 26, s1.Pool.Len())
}

func TestBuildSessionRejectsInconsistentDesign(t *testing.T) {
	d := DefaultDesign
	d.Counts.Stim = 10
	_, err := NewGenerator().BuildSession("bad", d)
	require.ErrorIs(t, err, ErrListCountMismatch)

	d = DefaultDesign
	d.Language = "FR"
	_, err = NewGenerator().BuildSession("bad", d)
	require.ErrorIs(t, err, wordpool.ErrUnknownLanguage)

	d = DefaultDesign
	d.WordsPerList = 10
	_, err = NewGenerator().BuildSession("bad", d)
	require.ErrorIs(t, err, ErrVocabularySizeMismatch)
}

func TestLookupDesign(t *testing.T) {
	d, ok := LookupDesign("ps4_fr5", nil)
	require.True(t, ok)
	assert.Equal(t, DefaultDesign, d)

	custom := Design{WordsPerList: 10, NumLists: 30, Language: wordpool.SP, Counts: Counts{Baseline: 30}}
	d, ok = LookupDesign("FR1", map[string]Design{"fr1": custom})
	require.True(t, ok)
	assert.Equal(t, custom, d, "overrides win over built-ins")

	_, ok = LookupDesign("nope", nil)
	assert.False(t, ok)

	names := DesignNames(map[string]Design{"fr1": custom, "TICL": custom})
	assert.Equal(t, []string{"FR5", "PS4_FR5", "TICL", "catFR1", "fr1"}, names)
}

func TestBuiltinDesignsAreValid(t *testing.T) {
	for name, d := range BuiltinDesigns {
		assert.NoError(t, d.Validate(), name)
	}
}
