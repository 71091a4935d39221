package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vocab "github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

func TestParsePattern_TitleAndMetadata(t *testing.T) {
	content := `# Connection Pooling

**Category**: technique
**Tags**: database, performance, Concurrency

## Overview

Connection pools reuse database connections across requests.

## Tradeoffs

Pooling adds configuration surface.
`

	p, err := ParsePattern("patterns/pooling.md", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "Connection Pooling", p.Name)
	assert.Equal(t, vocab.CategoryTechnique, p.Category)
	assert.Equal(t, []string{"database", "performance", "concurrency"}, p.Tags)
	require.Len(t, p.Sections, 2)
	assert.Equal(t, "Overview", p.Sections[0].Title)
	assert.Equal(t, 2, p.Sections[0].Level)
	assert.Contains(t, p.Sections[0].Body, "reuse database connections")
	assert.Equal(t, "Tradeoffs", p.Sections[1].Title)
}

func TestParsePattern_Frontmatter(t *testing.T) {
	content := `---
category: principle
tags:
  - design
  - architecture
---
# Separation of Concerns

Body text here.
`

	p, err := ParsePattern("docs/soc.md", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "Separation of Concerns", p.Name)
	assert.Equal(t, vocab.CategoryPrinciple, p.Category)
	assert.Equal(t, []string{"design", "architecture"}, p.Tags)
}

func TestParsePattern_MetadataLinesWinOverFrontmatter(t *testing.T) {
	content := `---
category: insight
---
# Doc

**Category**: pattern

Some body.
`

	p, err := ParsePattern("doc.md", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, vocab.CategoryPattern, p.Category)
}

func TestParsePattern_NoTitleFallsBackToFilename(t *testing.T) {
	p, err := ParsePattern("notes/event-sourcing.md", []byte("Just a paragraph of text."))
	require.NoError(t, err)
	assert.Equal(t, "event-sourcing", p.Name)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, 0, p.Sections[0].Level)
}

func TestParsePattern_HeadingInsideCodeFenceIgnored(t *testing.T) {
	content := "# Doc\n\n## Real Section\n\n```\n# not a heading\n## also not\n```\n\ntail text\n"

	p, err := ParsePattern("doc.md", []byte(content))
	require.NoError(t, err)
	require.Len(t, p.Sections, 1)
	assert.Contains(t, p.Sections[0].Body, "# not a heading")
	assert.Contains(t, p.Sections[0].Body, "tail text")
}

func TestParsePattern_UnknownCategoryNormalized(t *testing.T) {
	content := "# Doc\n\n**Category**: wizardry\n\nBody.\n"
	p, err := ParsePattern("doc.md", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, vocab.CategoryConcept, p.Category)
}

func TestParsePattern_EmptyDocument(t *testing.T) {
	_, err := ParsePattern("empty.md", []byte("  \n\n"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no content"))
}
