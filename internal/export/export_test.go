// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/model"
)

func sampleDocument() *Document {
	t := model.Transcript{}.Append(model.NewUserMessage("What did the court decide?"))
	t = model.ApplyChunk(t, model.Chunk{Text: "The injunction stands.", Citations: []string{"corpus/case/Order 1.pdf"}})
	t = model.CloseTurn(t)
	return NewDocument("Legal Chat", "http://rag.example/rag/static/", t)
}

func TestMarkdownExporter_Export(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{}).Export(sampleDocument())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Legal Chat\n"))
	assert.Contains(t, md, "# Legal Chat")
	assert.Contains(t, md, "### You\n\nWhat did the court decide?")
	assert.Contains(t, md, "### Assistant\n\nThe injunction stands.")
	assert.Contains(t, md, "1. [Order 1.pdf](<http://rag.example/rag/static/Order%201.pdf>)")
}

func TestMarkdownExporter_Timestamps(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleDocument())
	require.NoError(t, err)
	assert.Contains(t, string(out), "### You <sub>")
}

func TestMarkdownExporter_PlainLabelsWithoutBase(t *testing.T) {
	doc := sampleDocument()
	doc.StaticBase = ""

	out, err := NewMarkdownExporter(&Options{}).Export(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "1. Order 1.pdf\n")
}

func TestJSONExporter_Export(t *testing.T) {
	out, err := NewJSONExporter().Export(sampleDocument())
	require.NoError(t, err)

	var decoded struct {
		Title    string `json:"title"`
		Messages []struct {
			Role      string `json:"role"`
			Text      string `json:"text"`
			Citations []struct {
				Label string `json:"label"`
				URL   string `json:"url"`
			} `json:"citations"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "Legal Chat", decoded.Title)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, "user", decoded.Messages[0].Role)
	assert.Empty(t, decoded.Messages[0].Citations)
	require.Len(t, decoded.Messages[1].Citations, 1)
	assert.Equal(t, "Order 1.pdf", decoded.Messages[1].Citations[0].Label)
	assert.Equal(t, "http://rag.example/rag/static/Order%201.pdf", decoded.Messages[1].Citations[0].URL)
}

func TestExport_EmptyTranscript(t *testing.T) {
	doc := NewDocument("x", "", nil)

	_, err := NewMarkdownExporter(nil).Export(doc)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	_, err = NewJSONExporter().Export(doc)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()

	path, err := ExportToFile(sampleDocument(), NewMarkdownExporter(nil), &Options{OutputDir: dir})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "ragchat_What_did_the_court_decide-_"))
	assert.Equal(t, ".md", filepath.Ext(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFile_ChoosesFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, WriteFile(sampleDocument(), jsonPath, nil))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	mdPath := filepath.Join(dir, "out.MD")
	require.NoError(t, WriteFile(sampleDocument(), mdPath, nil))
	data, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Legal Chat")

	err = WriteFile(sampleDocument(), filepath.Join(dir, "out.html"), nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a/b:c", "a-b-c"},
		{"two words", "two_words"},
		{"   ", "transcript"},
		{strings.Repeat("x", 60), strings.Repeat("x", 40)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
