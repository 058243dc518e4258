package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/mbti"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/textseq"
)

// Row is one labelled example from the MBTI corpus.
type Row struct {
	Type string
	Text string
}

// LabelledRow is one line of the traits JSONL output.
type LabelledRow struct {
	Type   string     `json:"type"`
	Traits [5]float64 `json:"traits"`
	Text   string     `json:"text"`
}

// readRows reads a CSV with "type" and "posts" header columns.
func readRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	typeCol, textCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "type":
			typeCol = i
		case "posts", "text":
			textCol = i
		}
	}
	if typeCol < 0 || textCol < 0 {
		return nil, errors.New(`csv needs "type" and "posts" columns`)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if typeCol >= len(rec) || textCol >= len(rec) {
			continue
		}
		rows = append(rows, Row{Type: rec[typeCol], Text: rec[textCol]})
	}
	return rows, nil
}

// writeTraits writes one JSON line per row with a valid MBTI code and
// returns how many rows were written and skipped.
func writeTraits(w io.Writer, rows []Row) (written, skipped int, err error) {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		traits, err := mbti.ToTraits(row.Type)
		if err != nil {
			skipped++
			continue
		}
		out := LabelledRow{
			Type:   strings.ToUpper(strings.TrimSpace(row.Type)),
			Traits: traits,
			Text:   row.Text,
		}
		if err := enc.Encode(out); err != nil {
			return written, skipped, err
		}
		written++
	}
	return written, skipped, nil
}

// buildVocabulary fits a tokenizer vocabulary over every row's text.
func buildVocabulary(rows []Row, numWords int, oov string) *textseq.Vocabulary {
	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Text
	}
	return textseq.Fit(texts, numWords, oov)
}
