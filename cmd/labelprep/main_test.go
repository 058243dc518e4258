package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/textseq"
)

const corpus = `type,posts
INTJ,"I plan everything|||Systems are fun"
ENFP,"Party tonight! so excited"
XYZ,"bad code row"
istp,"fix things. fix more things"
`

type fakeUploader struct {
	calls map[string]string // key -> local path
}

func (f *fakeUploader) Upload(_ context.Context, localPath, key string) (string, error) {
	f.calls[key] = localPath
	return "http://minio/bucket/" + key, nil
}

func run(t *testing.T, up *fakeUploader, args ...string) error {
	t.Helper()
	a := &app{
		logger: zap.NewNop(),
		newUploader: func(context.Context, string) (uploader, error) {
			return up, nil
		},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(new(strings.Builder))
	cmd.SetErr(new(strings.Builder))
	return cmd.ExecuteContext(context.Background())
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mbti.csv")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o644))
	return path
}

func TestReadRows(t *testing.T) {
	rows, err := readRows(strings.NewReader(corpus))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Row{Type: "INTJ", Text: "I plan everything|||Systems are fun"}, rows[0])

	_, err = readRows(strings.NewReader("a,b\n1,2\n"))
	assert.Error(t, err)
}

func TestTraitsCommand(t *testing.T) {
	in := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "labels.jsonl")
	up := &fakeUploader{calls: map[string]string{}}

	require.NoError(t, run(t, up, "traits", "--in", in, "--out", out, "--upload-key", "labels/labels.jsonl"))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	var got []LabelledRow
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row LabelledRow
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		got = append(got, row)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "INTJ", got[0].Type)
	assert.Equal(t, [5]float64{0.6, 0.85, 0.2, 0.3, 0.5}, got[0].Traits)
	assert.Equal(t, "ISTP", got[2].Type)
	assert.Equal(t, out, up.calls["labels/labels.jsonl"])
}

func TestVocabCommand(t *testing.T) {
	in := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "vocab.json")
	up := &fakeUploader{calls: map[string]string{}}

	require.NoError(t, run(t, up, "vocab", "--in", in, "--out", out, "--num-words", "50"))
	assert.Empty(t, up.calls)

	v, err := textseq.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 50, v.NumWords)
	assert.Equal(t, 1, v.WordIndex[textseq.DefaultOOVToken])
	// "fix" and "things" both appear twice; ties keep first-seen order
	assert.Equal(t, 2, v.WordIndex["fix"])
	assert.Equal(t, 3, v.WordIndex["things"])
}

func TestMissingInput(t *testing.T) {
	up := &fakeUploader{calls: map[string]string{}}
	assert.Error(t, run(t, up, "traits"))
	assert.Error(t, run(t, up, "vocab", "--in", filepath.Join(t.TempDir(), "nope.csv")))
}
