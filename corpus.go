package jotto

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	gzip "github.com/klauspost/pgzip"
	"github.com/pkg/errors"
)

// Corpus is the ordered list of words that may be hidden or guessed.
// Every word has exactly WordLength distinct letters and no two words
// are anagrams of each other.
type Corpus struct {
	wordLength int
	words      []string
	letters    []LetterSet
	index      map[string]int
}

// NewCorpus validates words and returns them as a Corpus. Words keep their
// order; word i has index i in the FeedbackMatrix and in all strategies.
func NewCorpus(words []string, wordLength int) (*Corpus, error) {
	c := &Corpus{
		wordLength: wordLength,
		words:      make([]string, len(words)),
		letters:    make([]LetterSet, len(words)),
		index:      make(map[string]int, len(words)),
	}
	copy(c.words, words)

	anagrams := make(map[LetterSet]string, len(words))
	for i, word := range c.words {
		if len(word) != wordLength {
			return nil, errors.Errorf("word %q has length %d, expected %d", word, len(word), wordLength)
		}

		letters, ok := NewLetterSet(word)
		if !ok {
			return nil, errors.Errorf("word %q contains characters outside a-z", word)
		}
		if letters.Len() != wordLength {
			return nil, errors.Errorf("word %q has repeated letters", word)
		}
		if other, ok := anagrams[letters]; ok {
			return nil, errors.Errorf("word %q is an anagram of %q", word, other)
		}

		anagrams[letters] = word
		c.letters[i] = letters
		c.index[word] = i
	}

	return c, nil
}

// LoadCorpus reads a newline-delimited dictionary and keeps the words that
// are valid for the game: exactly wordLength distinct letters, and only the
// first word seen of each anagram class. Files ending in .gz are
// decompressed transparently.
func LoadCorpus(path string, wordLength int) (*Corpus, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrMissingArtifact, "dictionary %v", path)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "opening gzipped dictionary %v", path)
		}
		defer gz.Close()
		r = gz
	}

	words, err := ReadWords(r, wordLength)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dictionary %v", path)
	}

	glog.V(1).Infof("Loaded %d %d-letter words from %v", len(words), wordLength, path)
	return NewCorpus(words, wordLength)
}

// ReadWords scans one word per line and applies the corpus filters.
func ReadWords(r io.Reader, wordLength int) ([]string, error) {
	var words []string
	seen := make(map[LetterSet]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if len(word) != wordLength {
			continue
		}

		letters, ok := NewLetterSet(word)
		if !ok || letters.Len() != wordLength {
			continue // Repeated letters or non-letters.
		}

		if _, ok := seen[letters]; ok {
			continue // Anagram (or duplicate) of a word we already kept.
		}

		seen[letters] = struct{}{}
		words = append(words, word)
	}

	return words, scanner.Err()
}

// WordLength returns the number of letters in every word.
func (c *Corpus) WordLength() int {
	return c.wordLength
}

// Len returns the number of words in the corpus.
func (c *Corpus) Len() int {
	return len(c.words)
}

// Word returns the word with index i.
func (c *Corpus) Word(i int) string {
	return c.words[i]
}

// Letters returns the letter set of the word with index i.
func (c *Corpus) Letters(i int) LetterSet {
	return c.letters[i]
}

// Index returns the index of word, and whether it is in the corpus.
func (c *Corpus) Index(word string) (int, bool) {
	i, ok := c.index[strings.ToLower(word)]
	return i, ok
}

// Words returns a copy of the words in index order.
func (c *Corpus) Words() []string {
	result := make([]string, len(c.words))
	copy(result, c.words)
	return result
}
