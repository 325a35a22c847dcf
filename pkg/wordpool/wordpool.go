package wordpool

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// List type values stored under the "type" metadata key. Baseline lists share
// the non-stim label for compatibility with existing session configs.
const (
	TypeKey = "type"

	TypePractice = "PRACTICE"
	TypeNonStim  = "NON-STIM ENCODING"
	TypeBaseline = TypeNonStim
	TypeStim     = "STIM ENCODING"
	TypePS       = "PS ENCODING"
)

// Language selects which vocabulary and practice list a session uses.
type Language string

const (
	EN Language = "EN"
	SP Language = "SP"
)

// ErrUnknownLanguage is returned for any language outside {EN, SP}.
var ErrUnknownLanguage = errors.New("unknown session language")

// ParseLanguage accepts "en"/"EN"/"sp"/"SP" (surrounding space ignored).
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToUpper(strings.TrimSpace(s))) {
	case EN:
		return EN, nil
	case SP:
		return SP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == EN || l == SP
}

// WordList is an ordered list of words plus string metadata.
type WordList struct {
	Words    []string
	Metadata map[string]string
}

// NewWordList copies words into a new list with the given metadata.
func NewWordList(words []string, metadata map[string]string) *WordList {
	wl := &WordList{
		Words:    append([]string(nil), words...),
		Metadata: make(map[string]string, len(metadata)),
	}
	for k, v := range metadata {
		wl.Metadata[k] = v
	}
	return wl
}

// Len returns the number of words in the list.
func (wl *WordList) Len() int {
	return len(wl.Words)
}

// Slice returns words [i:j] as a new list with empty metadata.
func (wl *WordList) Slice(i, j int) *WordList {
	return NewWordList(wl.Words[i:j], nil)
}

// Shuffle permutes the words in place.
func (wl *WordList) Shuffle(r *rand.Rand) {
	r.Shuffle(len(wl.Words), func(i, j int) {
		wl.Words[i], wl.Words[j] = wl.Words[j], wl.Words[i]
	})
}

// Type returns the "type" metadata value, or "" if unset.
func (wl *WordList) Type() string {
	if wl.Metadata == nil {
		return ""
	}
	return wl.Metadata[TypeKey]
}

// SetType sets the "type" metadata value.
func (wl *WordList) SetType(t string) {
	if wl.Metadata == nil {
		wl.Metadata = map[string]string{}
	}
	wl.Metadata[TypeKey] = t
}

// Clone deep-copies words and metadata.
func (wl *WordList) Clone() *WordList {
	return NewWordList(wl.Words, wl.Metadata)
}

func (wl *WordList) String() string {
	return fmt.Sprintf("%s[%s]", wl.Type(), strings.Join(wl.Words, " "))
}

// WordPool is the ordered collection of lists presented in one session.
// When a practice list is present it is always at index 0.
type WordPool struct {
	Lists []*WordList
}

// NewWordPool wraps lists without copying them.
func NewWordPool(lists []*WordList) *WordPool {
	return &WordPool{Lists: lists}
}

// Len returns the number of lists in the pool.
func (p *WordPool) Len() int {
	return len(p.Lists)
}

// Types returns the "type" of every list in pool order.
func (p *WordPool) Types() []string {
	out := make([]string, len(p.Lists))
	for i, wl := range p.Lists {
		out[i] = wl.Type()
	}
	return out
}

// TypeCounts tallies lists per "type" value.
func (p *WordPool) TypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, wl := range p.Lists {
		counts[wl.Type()]++
	}
	return counts
}

// Clone deep-copies every list.
func (p *WordPool) Clone() *WordPool {
	lists := make([]*WordList, len(p.Lists))
	for i, wl := range p.Lists {
		lists[i] = wl.Clone()
	}
	return &WordPool{Lists: lists}
}

func (p *WordPool) String() string {
	var b strings.Builder
	for i, wl := range p.Lists {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(wl.String())
	}
	return b.String()
}
