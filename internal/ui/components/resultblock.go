// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/voyantic/farewatch-tui/internal/util"
)

// =============================================================================
// TOOL RESULT BLOCK
// =============================================================================

// maxResultLines caps how much of a tool result is shown inline.
const maxResultLines = 12

// ResultBlock renders a tool result payload as pretty-printed, highlighted
// JSON.
type ResultBlock struct {
	payload  any
	maxWidth int
}

// NewResultBlock creates a result block for a tool payload.
func NewResultBlock(payload any) ResultBlock {
	return ResultBlock{payload: payload, maxWidth: 80}
}

// SetMaxWidth sets the maximum line width.
func (b *ResultBlock) SetMaxWidth(width int) {
	if width > 0 {
		b.maxWidth = width
	}
}

// Render returns the formatted block.
func (b ResultBlock) Render() string {
	text := b.format()
	text = highlightJSON(text)

	lines := strings.Split(text, "\n")
	truncated := false
	if len(lines) > maxResultLines {
		lines = lines[:maxResultLines]
		truncated = true
	}
	for i, line := range lines {
		lines[i] = "  " + util.TruncateWidth(line, b.maxWidth-2)
	}
	if truncated {
		lines = append(lines, "  …")
	}
	return strings.Join(lines, "\n")
}

func (b ResultBlock) format() string {
	switch v := b.payload.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(pretty)
	}
}

// highlightJSON applies terminal syntax highlighting, returning the input
// unchanged when highlighting fails.
func highlightJSON(text string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return text
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return buf.String()
}
