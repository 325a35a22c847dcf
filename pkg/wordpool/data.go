package wordpool

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

//go:embed data/*.txt
var bundled embed.FS

// Resource names of the bundled word lists.
const (
	VocabularyEN = "ram_wordpool_en.txt"
	VocabularySP = "ram_wordpool_sp.txt"
	PracticeEN   = "practice_en.txt"
	PracticeSP   = "practice_sp.txt"
)

// ParseList reads one word per line. Blank lines are skipped and surrounding
// whitespace is trimmed.
func ParseList(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ReadList reads a bundled word list by resource name.
func ReadList(name string) ([]string, error) {
	f, err := bundled.Open("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("wordpool: open %s: %w", name, err)
	}
	defer f.Close()
	words, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("wordpool: read %s: %w", name, err)
	}
	return words, nil
}

// ReadListFile reads a word list from disk.
func ReadListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	words, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("wordpool: read %s: %w", path, err)
	}
	return words, nil
}

func resourceNames(lang Language) (vocab, practice string, err error) {
	switch lang {
	case EN:
		return VocabularyEN, PracticeEN, nil
	case SP:
		return VocabularySP, PracticeSP, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownLanguage, string(lang))
}

// Source supplies fresh vocabulary and practice lists per language. Each call
// must return a list the caller is free to mutate.
type Source interface {
	Vocabulary(lang Language) (*WordList, error)
	Practice(lang Language) (*WordList, error)
}

// EmbeddedSource serves the word lists compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Vocabulary(lang Language) (*WordList, error) {
	name, _, err := resourceNames(lang)
	if err != nil {
		return nil, err
	}
	words, err := ReadList(name)
	if err != nil {
		return nil, err
	}
	return NewWordList(words, nil), nil
}

func (EmbeddedSource) Practice(lang Language) (*WordList, error) {
	_, name, err := resourceNames(lang)
	if err != nil {
		return nil, err
	}
	words, err := ReadList(name)
	if err != nil {
		return nil, err
	}
	return NewWordList(words, map[string]string{TypeKey: TypePractice}), nil
}

// DirSource reads the same file names as the bundled set from Dir, so a lab
// can swap in a curated vocabulary without rebuilding.
type DirSource struct {
	Dir string
}

func (s DirSource) Vocabulary(lang Language) (*WordList, error) {
	name, _, err := resourceNames(lang)
	if err != nil {
		return nil, err
	}
	words, err := ReadListFile(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, err
	}
	return NewWordList(words, nil), nil
}

func (s DirSource) Practice(lang Language) (*WordList, error) {
	_, name, err := resourceNames(lang)
	if err != nil {
		return nil, err
	}
	words, err := ReadListFile(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, err
	}
	return NewWordList(words, map[string]string{TypeKey: TypePractice}), nil
}

// Vocabulary returns a fresh copy of the bundled vocabulary for lang.
func Vocabulary(lang Language) (*WordList, error) {
	return EmbeddedSource{}.Vocabulary(lang)
}

// PracticeList returns a fresh copy of the bundled practice list for lang,
// tagged PRACTICE.
func PracticeList(lang Language) (*WordList, error) {
	return EmbeddedSource{}.Practice(lang)
}
