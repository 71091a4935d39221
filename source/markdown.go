package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	vocab "github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// ParsePattern parses a markdown document into a Pattern.
//
// Recognized conventions:
//   - optional YAML frontmatter with `category` and `tags` keys
//   - a leading `# Title` line
//   - metadata lines `**Category**: value` and `**Tags**: a, b, c`
//   - `##`-and-deeper headings starting new sections
//
// Metadata lines win over frontmatter when both are present, since they are
// the documented in-document convention.
func ParsePattern(path string, content []byte) (*Pattern, error) {
	body := string(content)

	p := &Pattern{
		Name:       filenameStem(path),
		Category:   vocab.CategoryConcept,
		SourcePath: path,
	}

	if strings.HasPrefix(body, "---\n") || strings.HasPrefix(body, "---\r\n") {
		front, rest, err := extractFrontmatter(body)
		if err == nil {
			applyFrontmatter(p, front)
			body = rest
		}
		// A malformed frontmatter block is treated as body text.
	}

	sections, title, meta := parseSections(body)
	if title != "" {
		p.Name = title
	}
	if meta.category != "" {
		p.Category = vocab.ParseCategory(meta.category)
	}
	if len(meta.tags) > 0 {
		p.Tags = meta.tags
	}
	p.Sections = sections

	if len(p.Sections) == 0 {
		return nil, fmt.Errorf("document %s has no content", path)
	}
	return p, nil
}

// metadataLines holds values parsed from `**Key**: value` lines.
type metadataLines struct {
	category string
	tags     []string
}

// parseSections splits the body into heading sections, pulling out the
// leading title and any metadata lines. Code fences are tracked so headings
// inside fenced blocks do not start new sections.
func parseSections(body string) ([]Section, string, metadataLines) {
	var (
		sections []Section
		current  Section
		buf      strings.Builder
		title    string
		meta     metadataLines
		inFence  bool
		sawBody  bool
	)

	flush := func() {
		current.Body = strings.TrimSpace(buf.String())
		if current.Body != "" || current.Title != "" {
			sections = append(sections, current)
		}
		buf.Reset()
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		if !inFence {
			// Leading title: the first level-1 heading before any body text.
			if !sawBody && title == "" && strings.HasPrefix(trimmed, "# ") {
				title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
				continue
			}

			// Metadata lines may appear anywhere before the first section.
			if len(sections) == 0 && current.Title == "" {
				if v, ok := metadataValue(trimmed, "Category"); ok {
					meta.category = strings.ToLower(v)
					continue
				}
				if v, ok := metadataValue(trimmed, "Tags"); ok {
					meta.tags = splitTags(v)
					continue
				}
			}

			if level, heading, ok := parseHeading(trimmed); ok {
				flush()
				current = Section{Title: heading, Level: level}
				sawBody = true
				continue
			}
		}

		if trimmed != "" {
			sawBody = true
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	return sections, title, meta
}

// metadataValue matches a `**Key**: value` line for the given key.
func metadataValue(line, key string) (string, bool) {
	prefix := "**" + key + "**:"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
}

// splitTags splits a comma-separated tag list, lower-casing and dropping
// empty entries.
func splitTags(v string) []string {
	var tags []string
	for _, t := range strings.Split(v, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseHeading reports whether the line is a markdown heading and returns
// its level and text.
func parseHeading(line string) (int, string, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	level := 0
	for _, r := range line {
		if r != '#' {
			break
		}
		level++
	}
	if level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}

// extractFrontmatter parses a YAML frontmatter block. Returns the parsed map,
// the remaining body, and an error when the block is unterminated or invalid.
func extractFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"

	start := len(delimiter)
	if len(content) > start && content[start] == '\r' {
		start++
	}
	if len(content) > start && content[start] == '\n' {
		start++
	}

	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}

	yamlContent := content[start : start+closeIdx]

	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}
	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	var front map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &front); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}
	return front, body, nil
}

// applyFrontmatter maps recognized frontmatter keys onto the pattern.
func applyFrontmatter(p *Pattern, front map[string]any) {
	if cat, ok := front["category"].(string); ok {
		p.Category = vocab.ParseCategory(strings.ToLower(cat))
	}
	switch tags := front["tags"].(type) {
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok {
				p.Tags = append(p.Tags, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	case string:
		p.Tags = splitTags(tags)
	}
}

// filenameStem returns the filename without directory or extension.
func filenameStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
