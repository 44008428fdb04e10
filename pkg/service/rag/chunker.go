package rag

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the window size in characters for document chunking
	DefaultChunkSize = 650
	// DefaultChunkOverlap is the number of characters shared by adjacent chunks
	DefaultChunkOverlap = 120
)

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// cleanText collapses excessive whitespace so that window boundaries are
// not dominated by formatting artifacts. Carriage returns are folded into
// newlines first so CRLF documents collapse the same way.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiNewlinePattern.ReplaceAllString(text, "\n\n")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Chunk splits text into overlapping windows of at most size characters.
// Adjacent windows share overlap characters. The split is deterministic:
// the same input always yields the same chunks. The cursor always advances
// by at least one character, so a degenerate overlap >= size terminates.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	text = cleanText(text)
	if text == "" {
		return nil
	}

	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); {
		j := i + size
		if j > len(runes) {
			j = len(runes)
		}

		piece := strings.TrimSpace(string(runes[i:j]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if j == len(runes) {
			break
		}

		next := j - overlap
		if next <= i {
			next = i + 1
		}
		i = next
	}

	return chunks
}
