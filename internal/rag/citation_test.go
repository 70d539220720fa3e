// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticBase(t *testing.T) {
	tests := []struct {
		name       string
		backend    string
		staticPath string
		override   string
		want       string
	}{
		{"derived", "http://localhost:8000", "/rag/static/", "", "http://localhost:8000/rag/static/"},
		{"trailing slashes", "http://localhost:8000/", "rag/static", "", "http://localhost:8000/rag/static/"},
		{"override", "http://localhost:8000", "/rag/static/", "https://files.example.com/docs", "https://files.example.com/docs/"},
		{"no backend", "", "/rag/static/", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StaticBase(tt.backend, tt.staticPath, tt.override))
		})
	}
}

func TestLink(t *testing.T) {
	base := "http://localhost:8000/rag/static/"

	assert.Equal(t, base+"file.pdf", Link(base, "docs/file.pdf"))
	assert.Equal(t, base+"Exhibit%2012.pdf", Link(base, "docs/Exhibit 12.pdf"))
	assert.Equal(t, base+"a%3Fb%23c.pdf", Link(base, "a?b#c.pdf"))
	assert.Equal(t, "", Link("", "docs/file.pdf"))
}

func TestCitations(t *testing.T) {
	base := "http://h/rag/static/"
	got := Citations(base, []string{"x/one.pdf", "two.pdf", "x/one.pdf"})

	require.Len(t, got, 3)
	assert.Equal(t, Citation{Source: "x/one.pdf", Label: "one.pdf", URL: base + "one.pdf"}, got[0])
	assert.Equal(t, "two.pdf", got[1].Label)
	assert.Equal(t, got[0], got[2])

	assert.Empty(t, Citations(base, nil))
}
