package jotto

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/jotto/internal/npyio"
)

// FeedbackMatrix holds the feedback for every ordered pair of corpus words:
// the number of distinct letters they share. Feedback is a set intersection,
// not a positional match. It is symmetric and read-only once built, so it may
// be shared freely between goroutines.
type FeedbackMatrix struct {
	n          int
	wordLength int
	values     []uint8
}

// PrecomputeFeedbackMatrix builds the matrix for the given corpus. Only the
// upper triangle is computed; the lower triangle is mirrored.
func PrecomputeFeedbackMatrix(c *Corpus) *FeedbackMatrix {
	n := c.Len()
	m := &FeedbackMatrix{
		n:          n,
		wordLength: c.WordLength(),
		values:     make([]uint8, n*n),
	}

	for i := 0; i < n; i++ {
		li := c.Letters(i)
		for j := i; j < n; j++ {
			common := uint8(li.Intersect(c.Letters(j)).Len())
			m.values[i*n+j] = common
			m.values[j*n+i] = common
		}
	}

	return m
}

// Len returns the number of words D; the matrix is D x D.
func (m *FeedbackMatrix) Len() int {
	return m.n
}

// WordLength returns the feedback value that identifies the secret.
func (m *FeedbackMatrix) WordLength() int {
	return m.wordLength
}

// Get returns the feedback received when guessing word i if word j is secret.
func (m *FeedbackMatrix) Get(i, j int) int {
	return int(m.values[i*m.n+j])
}

// Row returns the feedback of guess i against every word. The returned
// slice aliases the matrix and must not be modified.
func (m *FeedbackMatrix) Row(i int) []uint8 {
	return m.values[i*m.n : (i+1)*m.n]
}

// Validate checks the invariants of the matrix: symmetry, a diagonal equal
// to the word length and no entry above it.
func (m *FeedbackMatrix) Validate() error {
	for i := 0; i < m.n; i++ {
		if m.Get(i, i) != m.wordLength {
			return errors.Errorf("diagonal entry %d is %d, expected %d", i, m.Get(i, i), m.wordLength)
		}
		for j := i + 1; j < m.n; j++ {
			if m.Get(i, j) != m.Get(j, i) {
				return errors.Errorf("matrix is not symmetric at (%d, %d)", i, j)
			}
			if m.Get(i, j) > m.wordLength {
				return errors.Errorf("entry (%d, %d) = %d exceeds word length %d",
					i, j, m.Get(i, j), m.wordLength)
			}
		}
	}

	return nil
}

// SaveFeedbackMatrix writes m as a 2-D uint8 npy file.
func SaveFeedbackMatrix(path string, m *FeedbackMatrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	glog.Infof("Saving %dx%d feedback matrix to: %v", m.n, m.n, path)
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := npyio.WriteUint8s(w, m.values, m.n, m.n); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing feedback matrix %v", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// LoadFeedbackMatrix reads a matrix written by SaveFeedbackMatrix (or by
// numpy, with any small integer dtype) and validates it.
func LoadFeedbackMatrix(path string, wordLength int) (*FeedbackMatrix, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrMissingArtifact, "feedback matrix %v", path)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	values, h, err := npyio.ReadUint8s(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "reading feedback matrix %v", path)
	}
	if len(h.Shape) != 2 || h.Shape[0] != h.Shape[1] {
		return nil, errors.Errorf("feedback matrix %v has shape %v, expected square", path, h.Shape)
	}

	m := &FeedbackMatrix{
		n:          h.Shape[0],
		wordLength: wordLength,
		values:     values,
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid feedback matrix %v", path)
	}

	return m, nil
}

// LoadCorpusFeedbackMatrix loads the matrix at path, checking that it
// matches the corpus size.
func LoadCorpusFeedbackMatrix(path string, c *Corpus) (*FeedbackMatrix, error) {
	m, err := LoadFeedbackMatrix(path, c.WordLength())
	if err != nil {
		return nil, err
	}
	if m.Len() != c.Len() {
		return nil, errors.Errorf("feedback matrix %v has %d words but corpus has %d; rerun precompute",
			path, m.Len(), c.Len())
	}

	return m, nil
}
