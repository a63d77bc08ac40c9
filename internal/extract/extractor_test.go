package extract

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litreview/internal/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRows(t *testing.T) {
	cols := []string{"Country", "City"}
	cases := []struct {
		name string
		in   any
		want [][]string
	}{
		{"missing", nil, [][]string{{"", ""}}},
		{"empty list", []any{}, [][]string{{"", ""}}},
		{"tuples", []any{[]any{"Japan", "Tokyo"}, []any{"Korea", "Seoul", "extra"}}, [][]string{{"Japan", "Tokyo"}, {"Korea", "Seoul"}}},
		{"dict items", []any{map[string]any{"country": "Japan", "City": []any{"Tokyo", "Osaka"}}}, [][]string{{"Japan", "Tokyo; Osaka"}}},
		{"string items", []any{"Japan", "Korea"}, [][]string{{"Japan", ""}, {"Korea", ""}}},
		{"dict section", map[string]any{"Country": "UK", "meta": map[string]any{"City": "London"}}, [][]string{{"UK", ""}}},
		{"scalar", "Not mentioned", [][]string{{"Not mentioned", ""}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Rows(tc.in, cols))
		})
	}
}

func TestNestedDictIsFlattened(t *testing.T) {
	got := Rows(map[string]any{"a": map[string]any{"b": "x"}}, []string{"a.b"})
	assert.Equal(t, [][]string{{"x"}}, got)
}

func TestExtractAllWritesSections(t *testing.T) {
	dir := t.TempDir()
	checkpoint := map[string][]models.AnswerRecord{
		"b.txt": {
			{Question: "area", Field: "study_area", Answer: `[('Japan', 'Tokyo'), ('Japan', 'Tokyo'), ('Korea', 'Seoul')`},
			{Question: "data", Field: "data_availability", Answer: "Not mentioned"},
		},
		"a.txt": {
			{Question: "all", Answer: "```json\n{\"image_data\": [[\"GSV\", \"Google\", \"1000\"]], \"code_availability\": \"Yes\"}\n```"},
			{Question: "area", Field: "study_area", Answer: models.ErrorAnswer},
		},
		"c.txt": {
			{Question: "area", Field: "study_area", Answer: "I am not sure"},
		},
	}
	e := NewExtractor(dir, false, zerolog.Nop(), nil)
	written, err := e.ExtractAll(context.Background(), checkpoint)
	require.NoError(t, err)
	assert.Len(t, written, len(Sections))

	assert.Equal(t, [][]string{
		{"filename", "Country", "City"},
		{"a.txt", "", ""},
		{"b.txt", "Japan", "Tokyo"},
		{"b.txt", "Korea", "Seoul"},
		{"c.txt", "", ""},
	}, readCSV(t, filepath.Join(dir, "study_area.csv")))

	assert.Equal(t, [][]string{
		{"filename", "Type_of_image_data", "Image_data_source", "Number_Volume_of_images"},
		{"a.txt", "GSV", "Google", "1000"},
		{"b.txt", "", "", ""},
		{"c.txt", "", "", ""},
	}, readCSV(t, filepath.Join(dir, "image_data.csv")))

	assert.Equal(t, []string{"b.txt", "Not mentioned"}, readCSV(t, filepath.Join(dir, "data_availability.csv"))[2])
	assert.Equal(t, []string{"a.txt", "Yes"}, readCSV(t, filepath.Join(dir, "code_availability.csv"))[1])
}

func TestExtractSkipsExistingUnlessOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "study_area.csv")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))
	sec, ok := SectionByName("study_area")
	require.True(t, ok)
	maps := map[string]map[string]any{"a.txt": {"study_area": RawAnswer(`[["Japan", "Tokyo"]]`)}}

	_, wrote, err := NewExtractor(dir, false, zerolog.Nop(), nil).ExtractSection(sec, maps)
	require.NoError(t, err)
	assert.False(t, wrote)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))

	_, wrote, err = NewExtractor(dir, true, zerolog.Nop(), nil).ExtractSection(sec, maps)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, []string{"a.txt", "Japan", "Tokyo"}, readCSV(t, path)[1])
}

func TestProseAnswersKeepTheirText(t *testing.T) {
	dir := t.TempDir()
	checkpoint := map[string][]models.AnswerRecord{
		"a.txt": {
			{Question: "ethics", Field: "ethical_approval", Answer: "Approved by the university ethics board [3]."},
			{Question: "all", Answer: `{"image_data": "Street view imagery, see Table [2, 4]"}`},
		},
	}
	_, err := NewExtractor(dir, false, zerolog.Nop(), nil).ExtractAll(context.Background(), checkpoint)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"filename", "Ethical_approval"},
		{"a.txt", "Approved by the university ethics board [3]."},
	}, readCSV(t, filepath.Join(dir, "ethical_approval.csv")))

	rows := readCSV(t, filepath.Join(dir, "image_data.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "Street view imagery, see Table [2, 4]", rows[1][1])
}
