package textseq

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "it's", "me"}, Words("Hello, World!  It's me."))
	assert.Empty(t, Words("   ...   "))
	assert.Equal(t, []string{"tab", "new", "line"}, Words("tab\tnew\nline"))
}

func TestFit(t *testing.T) {
	v := Fit([]string{"b a", "a c", "c a"}, 10, DefaultOOVToken)

	// counts: a=3, c=2, b=1
	assert.Equal(t, 1, v.WordIndex[DefaultOOVToken])
	assert.Equal(t, 2, v.WordIndex["a"])
	assert.Equal(t, 3, v.WordIndex["c"])
	assert.Equal(t, 4, v.WordIndex["b"])
	assert.Equal(t, 1, v.OOVIndex())
}

func TestFit_TiesKeepFirstSeen(t *testing.T) {
	v := Fit([]string{"zeta alpha", "mid"}, 0, "")
	assert.Equal(t, 1, v.WordIndex["zeta"])
	assert.Equal(t, 2, v.WordIndex["alpha"])
	assert.Equal(t, 3, v.WordIndex["mid"])
	assert.Equal(t, 0, v.OOVIndex())
}

func TestSequence(t *testing.T) {
	v := &Vocabulary{
		NumWords:  4,
		OOVToken:  DefaultOOVToken,
		WordIndex: map[string]int{DefaultOOVToken: 1, "i": 2, "am": 3, "happy": 4},
	}

	// "happy" sits at index 4 == NumWords, so it falls outside the usable vocabulary.
	assert.Equal(t, []int{2, 3, 1}, v.Sequence("I am happy"))
	assert.Equal(t, []int{2, 1}, v.Sequence("I unknown"))
}

func TestMaxIndex(t *testing.T) {
	v := &Vocabulary{
		NumWords:  4,
		OOVToken:  DefaultOOVToken,
		WordIndex: map[string]int{DefaultOOVToken: 1, "i": 2, "am": 3, "happy": 4},
	}
	assert.Equal(t, 3, v.MaxIndex())

	v.NumWords = 0
	assert.Equal(t, 4, v.MaxIndex())
}

func TestSequence_NoOOVDropsUnknown(t *testing.T) {
	v := &Vocabulary{WordIndex: map[string]int{"i": 1, "am": 2}}
	assert.Equal(t, []int{1, 2}, v.Sequence("i really am"))
}

func TestPad(t *testing.T) {
	assert.Equal(t, []int{5, 6, 0, 0}, Pad([]int{5, 6}, 4))
	assert.Equal(t, []int{3, 4, 5}, Pad([]int{1, 2, 3, 4, 5}, 3))
	assert.Equal(t, []int{0, 0}, Pad(nil, 2))
}

func TestEncode_FixedLength(t *testing.T) {
	v := Fit([]string{strings.Repeat("word ", 300)}, DefaultNumWords, DefaultOOVToken)
	for _, in := range []string{"", "word", strings.Repeat("word other ", 200)} {
		assert.Len(t, v.Encode(in, DefaultMaxLen), DefaultMaxLen)
	}
}

func TestReadWrite(t *testing.T) {
	v := Fit([]string{"one two two"}, 100, DefaultOOVToken)
	var buf bytes.Buffer
	require.NoError(t, v.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, (&Vocabulary{}).Validate(), ErrEmptyVocabulary)
	assert.Error(t, (&Vocabulary{OOVToken: "<OOV>", WordIndex: map[string]int{"a": 1}}).Validate())
	assert.Error(t, (&Vocabulary{WordIndex: map[string]int{"a": 0}}).Validate())
}
