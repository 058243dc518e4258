// Package textseq turns raw text into fixed-length index sequences the same way
// the Keras Tokenizer and pad_sequences helpers do.
package textseq

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	// DefaultMaxLen is the sequence length the personality model was trained on.
	DefaultMaxLen = 100
	// DefaultNumWords bounds the usable vocabulary.
	DefaultNumWords = 5000
	// DefaultOOVToken is the reserved out-of-vocabulary token.
	DefaultOOVToken = "<OOV>"
	// PadIndex fills short sequences.
	PadIndex = 0
)

// filters are the characters Keras strips before splitting.
const filters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

var ErrEmptyVocabulary = errors.New("vocabulary has no words")

// Vocabulary is a fitted word index.
type Vocabulary struct {
	NumWords  int            `json:"num_words"`
	OOVToken  string         `json:"oov_token"`
	WordIndex map[string]int `json:"word_index"`
}

// Words splits text like keras text_to_word_sequence: lowercase, filter, split on spaces.
func Words(text string) []string {
	lower := strings.ToLower(text)
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(filters, r) {
			return ' '
		}
		return r
	}, lower)
	parts := strings.Split(mapped, " ")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Fit builds a vocabulary from texts. Words are ranked by frequency; ties keep
// first-seen order. The OOV token, if set, takes index 1.
func Fit(texts []string, numWords int, oovToken string) *Vocabulary {
	counts := map[string]int{}
	var order []string
	for _, t := range texts {
		for _, w := range Words(t) {
			if _, seen := counts[w]; !seen {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	ranked := order
	if oovToken != "" {
		ranked = append([]string{oovToken}, order...)
	}

	idx := make(map[string]int, len(ranked))
	for i, w := range ranked {
		if _, dup := idx[w]; dup {
			continue
		}
		idx[w] = i + 1
	}
	return &Vocabulary{NumWords: numWords, OOVToken: oovToken, WordIndex: idx}
}

// OOVIndex returns the index of the OOV token, or 0 when there is none.
func (v *Vocabulary) OOVIndex() int {
	if v.OOVToken == "" {
		return 0
	}
	return v.WordIndex[v.OOVToken]
}

// Sequence maps words to indices without padding. Words that are unknown or
// ranked at or beyond NumWords become the OOV index, or are dropped when no
// OOV token exists.
func (v *Vocabulary) Sequence(text string) []int {
	oov := v.OOVIndex()
	var seq []int
	for _, w := range Words(text) {
		i, ok := v.WordIndex[w]
		if ok && (v.NumWords <= 0 || i < v.NumWords) {
			seq = append(seq, i)
			continue
		}
		if oov > 0 {
			seq = append(seq, oov)
		}
	}
	return seq
}

// MaxIndex is the largest index Sequence can emit.
func (v *Vocabulary) MaxIndex() int {
	max := v.OOVIndex()
	for _, i := range v.WordIndex {
		if (v.NumWords <= 0 || i < v.NumWords) && i > max {
			max = i
		}
	}
	return max
}

// Pad fits seq to maxLen: short sequences are padded at the end with PadIndex,
// long ones keep their last maxLen entries.
func Pad(seq []int, maxLen int) []int {
	out := make([]int, maxLen)
	if len(seq) > maxLen {
		seq = seq[len(seq)-maxLen:]
	}
	copy(out, seq)
	return out
}

// Encode is Sequence followed by Pad.
func (v *Vocabulary) Encode(text string, maxLen int) []int {
	return Pad(v.Sequence(text), maxLen)
}

// Validate checks the vocabulary is usable.
func (v *Vocabulary) Validate() error {
	if len(v.WordIndex) == 0 {
		return ErrEmptyVocabulary
	}
	if v.OOVToken != "" {
		if _, ok := v.WordIndex[v.OOVToken]; !ok {
			return fmt.Errorf("oov token %q missing from word index", v.OOVToken)
		}
	}
	for w, i := range v.WordIndex {
		if i <= PadIndex {
			return fmt.Errorf("word %q has reserved index %d", w, i)
		}
	}
	return nil
}

// Read decodes a vocabulary from JSON.
func Read(r io.Reader) (*Vocabulary, error) {
	var v Vocabulary
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Load reads a vocabulary file.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write encodes the vocabulary as JSON.
func (v *Vocabulary) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}
