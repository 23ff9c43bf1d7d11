package archive

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

const ContentType = "application/vnd.apache.parquet"

type EncodeResult struct {
	Data        []byte
	RecordCount int64
}

type questionRow struct {
	RunID             string `parquet:"run_id"`
	Database          string `parquet:"database"`
	Schema            string `parquet:"schema"`
	Table             string `parquet:"table"`
	Model             string `parquet:"model"`
	Ordinal           int32  `parquet:"ordinal"`
	Question          string `parquet:"question"`
	GeneratedAtUnixMs int64  `parquet:"generated_at_unix_ms"`
}

// A list marker only counts when whitespace follows it.
var listMarker = regexp.MustCompile(`^(?:\d+[.):]|[-*•])(?:\s+|$)`)

// SplitQuestions turns a model reply into one entry per non-blank line with
// list numbering or bullets removed.
func SplitQuestions(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func EncodeQuestionsToParquet(run Run, generatedAt time.Time) (EncodeResult, error) {
	questions := SplitQuestions(run.Text)
	if len(questions) == 0 {
		return EncodeResult{}, ErrNoQuestions
	}

	generatedAtMs := generatedAt.UTC().UnixMilli()
	rows := make([]questionRow, 0, len(questions))
	for i, question := range questions {
		rows = append(rows, questionRow{
			RunID:             run.RunID,
			Database:          run.Database,
			Schema:            run.Schema,
			Table:             run.Table,
			Model:             run.Model,
			Ordinal:           int32(i + 1),
			Question:          question,
			GeneratedAtUnixMs: generatedAtMs,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[questionRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return EncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return EncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return EncodeResult{
		Data:        buf.Bytes(),
		RecordCount: int64(len(rows)),
	}, nil
}
