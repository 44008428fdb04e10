package rag_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
)

func TestChunk(t *testing.T) {
	t.Run("short text yields single chunk", func(t *testing.T) {
		chunks := rag.Chunk("refund requests are accepted within 30 days", 650, 120)
		gt.Array(t, chunks).Length(1)
		gt.Value(t, chunks[0]).Equal("refund requests are accepted within 30 days")
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		gt.Array(t, rag.Chunk("", 650, 120)).Length(0)
		gt.Array(t, rag.Chunk("   \n\n\t  ", 650, 120)).Length(0)
	})

	t.Run("whitespace is normalized", func(t *testing.T) {
		chunks := rag.Chunk("first   line\n\n\n\n\nsecond\t\tline", 650, 120)
		gt.Array(t, chunks).Length(1)
		gt.Value(t, chunks[0]).Equal("first line\n\nsecond line")
	})

	t.Run("CRLF input collapses like LF input", func(t *testing.T) {
		chunks := rag.Chunk("alpha\r\n\r\n\r\n\r\nbeta", 650, 120)
		gt.Array(t, chunks).Length(1)
		gt.Value(t, chunks[0]).Equal("alpha\n\nbeta")

		lf := rag.Chunk("alpha\n\n\n\nbeta", 650, 120)
		gt.Value(t, chunks[0]).Equal(lf[0])
	})

	t.Run("long text is split with overlap", func(t *testing.T) {
		text := strings.Repeat("abcdefghij", 30)
		chunks := rag.Chunk(text, 100, 20)

		gt.Number(t, len(chunks)).Greater(1)
		for _, chunk := range chunks {
			gt.Number(t, len(chunk)).LessOrEqual(100)
		}

		// adjacent chunks share the overlap region
		tail := chunks[0][len(chunks[0])-20:]
		gt.Value(t, chunks[1][:20]).Equal(tail)
	})

	t.Run("every input character is covered", func(t *testing.T) {
		text := strings.Repeat("x", 995)
		chunks := rag.Chunk(text, 100, 20)

		total := 0
		for _, chunk := range chunks {
			total += len(chunk)
		}
		gt.Number(t, total).GreaterOrEqual(len(text))
		gt.Value(t, chunks[len(chunks)-1][len(chunks[len(chunks)-1])-1:]).Equal("x")
	})

	t.Run("deterministic", func(t *testing.T) {
		text := strings.Repeat("policy terms apply to all orders ", 40)
		first := rag.Chunk(text, 200, 50)
		second := rag.Chunk(text, 200, 50)

		gt.Array(t, first).Length(len(second))
		for i := range first {
			gt.Value(t, first[i]).Equal(second[i])
		}
	})

	t.Run("overlap larger than size still terminates", func(t *testing.T) {
		text := strings.Repeat("y", 50)
		chunks := rag.Chunk(text, 10, 100)

		gt.Number(t, len(chunks)).Greater(0)
		gt.Number(t, len(chunks)).LessOrEqual(50)
	})
}
