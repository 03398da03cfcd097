package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	analyst "github.com/ledgerline/analyst"
	"github.com/ledgerline/analyst/goldmark"
)

var _ MessageBlock = (*AnalystTextBlock)(nil)

// AnalystTextBlock renders streamed analyst markdown. Finalized paragraphs
// (separated by double newline) are rendered once and cached; only the
// trailing unfinalized text is re-rendered on each fragment.
type AnalystTextBlock struct {
	content strings.Builder
	theme   analyst.Theme

	// finalizedRaw is the stable prefix ending at the last double newline.
	// It's rendered once per width and cached in finalizedByWidth.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAnalystTextBlock creates a new block for streaming analyst text.
func NewAnalystTextBlock(theme analyst.Theme) *AnalystTextBlock {
	return &AnalystTextBlock{
		theme:            theme,
		finalizedByWidth: make(map[int]string),
	}
}

// Append adds a markdown fragment from the stream.
func (b *AnalystTextBlock) Append(text string) {
	b.content.WriteString(text)
	b.promoteFinalized()
}

func (b *AnalystTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AnalystTextBlock) View(width int) string {
	finalizedRendered := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if hasUnclosedFence(trailing) {
		// Close the fence only for rendering so partially streamed SQL
		// displays safely.
		trailing += "\n```"
	}
	if trailing == "" {
		return finalizedRendered
	}
	trailingRendered := goldmark.Render(trailing, width, b.theme)
	// Whitespace-only trailing input may render to whitespace; treat it
	// the same as empty to avoid spurious blank lines.
	if strings.TrimSpace(trailingRendered) == "" {
		return finalizedRendered
	}
	switch finalizedRendered {
	case "":
		return trailingRendered
	default:
		// Trim whitespace at the finalization boundary so independently
		// rendered fragments join without a visible seam.
		return strings.TrimRight(finalizedRendered, "\n") + "\n\n" + strings.TrimLeft(trailingRendered, "\n")
	}
}

// promoteFinalized scans for the last "\n\n" boundary that doesn't fall
// inside an unclosed fenced code block. Splitting inside a fence would
// produce a finalized fragment with an unclosed opening fence and a
// trailing fragment starting mid-block.
func (b *AnalystTextBlock) promoteFinalized() {
	raw := b.content.String()
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				// Width-sensitive cache must be invalidated when finalized text grows.
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AnalystTextBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.finalizedRaw, width, b.theme)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AnalystTextBlock) trailingRaw() string {
	raw := b.content.String()
	if b.finalizedRaw == "" {
		return raw
	}
	prefix := b.finalizedRaw + "\n\n"
	return strings.TrimPrefix(raw, prefix)
}

// hasUnclosedFence detects an unclosed fenced code block by checking for an
// odd number of "```" occurrences. Triple backticks inside inline code
// spans would confuse this, but analyst output does not produce them.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
