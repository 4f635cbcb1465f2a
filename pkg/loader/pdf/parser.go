package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/docgraph/docgraph/pkg/loader"

	"github.com/pkoukk/tiktoken-go"
)

const pdftotextTimeout = 30 * time.Second

var (
	reBlankLines  = regexp.MustCompile(`\n[ \t]*\n`)
	reColumnBreak = regexp.MustCompile(`\s{2,}`)
	reInlineSpace = regexp.MustCompile(`[ \t]+`)
)

// runPdftotext extracts the text of input with pdftotext. Pages are
// separated by form feeds. With layout set, the physical layout is kept so
// table columns stay aligned.
func runPdftotext(ctx context.Context, input []byte, layout bool) (string, error) {
	pdfPath, cleanup, err := loader.WriteTempPDF(input, "docgraph-pdf")
	if err != nil {
		return "", err
	}
	defer cleanup()

	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pdftotextTimeout)
	defer cancel()

	args := []string{"-enc", "UTF-8", "-eol", "unix", "-q"}
	if layout {
		args = append(args, "-layout")
	}
	args = append(args, pdfPath, "-")

	cmd := exec.CommandContext(ctx, "pdftotext", args...)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("pdftotext timed out")
	}
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return string(out), nil
}

// splitPages splits pdftotext output on form feeds. The empty segment
// after the final form feed is dropped.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// splitParagraphs splits text on blank lines. Inside a paragraph runs of
// spaces and tabs are collapsed and blank-only lines dropped, but line
// breaks are kept so that line-based metadata such as "Vendor: ..." ends at
// the end of its line. Paragraphs shorter than minLength runes are merged
// into the following one so that headings and labels stay attached to the
// text they introduce. A short trailing paragraph is appended to the
// previous one.
func splitParagraphs(text string, minLength int) []string {
	text = strings.ReplaceAll(text, "\f", "\n\n")
	raw := reBlankLines.Split(text, -1)

	var out []string
	pending := ""
	for _, block := range raw {
		p := normalizeBlock(block)
		if p == "" {
			continue
		}
		if pending != "" {
			p = pending + "\n" + p
			pending = ""
		}
		if len([]rune(p)) < minLength {
			pending = p
			continue
		}
		out = append(out, p)
	}
	if pending != "" {
		if len(out) == 0 {
			out = append(out, pending)
		} else {
			out[len(out)-1] += "\n" + pending
		}
	}
	return out
}

// normalizeBlock collapses inline whitespace on every line of block and
// joins the non-empty lines with "\n".
func normalizeBlock(block string) string {
	var lines []string
	for line := range strings.SplitSeq(block, "\n") {
		line = strings.TrimSpace(reInlineSpace.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// splitByTokens splits every paragraph longer than maxTokens tokens into
// word-aligned pieces of at most maxTokens tokens. maxTokens <= 0 disables
// splitting.
func splitByTokens(paragraphs []string, encoder string, maxTokens int) ([]string, error) {
	if maxTokens <= 0 {
		return paragraphs, nil
	}
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", encoder, err)
	}
	return splitByCount(paragraphs, func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}, maxTokens), nil
}

// splitByCount does the splitting for splitByTokens. Line breaks between
// words survive in the pieces. A single word above the limit becomes a
// piece of its own.
func splitByCount(paragraphs []string, count func(string) int, maxTokens int) []string {
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if count(p) <= maxTokens {
			out = append(out, p)
			continue
		}

		var current []word
		for _, w := range splitWords(p) {
			candidate := append(current, w)
			if len(current) > 0 && count(joinWords(candidate)) > maxTokens {
				out = append(out, joinWords(current))
				current = []word{w}
				continue
			}
			current = candidate
		}
		if len(current) > 0 {
			out = append(out, joinWords(current))
		}
	}
	return out
}

type word struct {
	text      string
	lineStart bool
}

// splitWords splits p into words, remembering which words begin a line.
func splitWords(p string) []word {
	var out []word
	for line := range strings.SplitSeq(p, "\n") {
		for i, f := range strings.Fields(line) {
			out = append(out, word{text: f, lineStart: i == 0 && len(out) > 0})
		}
	}
	return out
}

// joinWords is the inverse of splitWords.
func joinWords(words []word) string {
	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			if w.lineStart {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(w.text)
	}
	return sb.String()
}

// detectTables finds tables in one page of layout text. A table is a run
// of at least minRows lines that each split into two or more columns on
// gaps of two or more spaces. Blank lines do not end a table.
func detectTables(page string, minRows int) []loader.Table {
	var tables []loader.Table
	var current loader.Table

	flush := func() {
		if len(current) >= minRows {
			tables = append(tables, current)
		}
		current = nil
	}

	for line := range strings.SplitSeq(page, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		cols := reColumnBreak.Split(trimmed, -1)
		if len(cols) < 2 {
			flush()
			continue
		}
		current = append(current, cols)
	}
	flush()

	return tables
}
