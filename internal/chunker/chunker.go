// Package chunker splits markdown text into bounded chunks for embedding,
// tracking the heading path each chunk falls under.
package chunker

import (
	"strings"
)

// DefaultChunkSize is the character budget per chunk.
const DefaultChunkSize = 500

// Options configures chunking behavior.
type Options struct {
	ChunkSize int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{ChunkSize: DefaultChunkSize}
}

// Chunk is one bounded unit of a document, with the heading path that was
// active at the line the chunk started on.
type Chunk struct {
	Text    string
	Headers []string
}

// Split breaks text into chunks. A boundary is inserted when adding one more
// line would exceed the budget and the current chunk is non-empty, so a
// single line longer than the budget becomes its own chunk and no chunk is
// ever empty. The final partial chunk is always flushed. Splitting is
// deterministic: the same text and options always yield the same boundaries.
func Split(text string, opts Options) []Chunk {
	if opts.ChunkSize <= 0 {
		opts = DefaultOptions()
	}
	if text == "" {
		return nil
	}

	var (
		chunks      []Chunk
		current     []string
		currentSize int
		headers     []string
		startPath   []string
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Text:    strings.Join(current, "\n"),
			Headers: startPath,
		})
		current = nil
		currentSize = 0
	}

	for _, line := range strings.Split(text, "\n") {
		if level, title, ok := headingLine(line); ok {
			// Push at the matched depth, truncating anything deeper.
			depth := level - 1
			if depth > len(headers) {
				depth = len(headers)
			}
			headers = append(headers[:depth:depth], title)
		}

		if currentSize+len(line) > opts.ChunkSize && len(current) > 0 {
			flush()
		}
		if len(current) == 0 {
			startPath = append([]string(nil), headers...)
		}
		current = append(current, line)
		currentSize += len(line)
	}
	flush()

	return chunks
}

// headingLine reports whether line is a markdown heading and returns its
// level and title text.
func headingLine(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	title := strings.TrimSpace(trimmed[level:])
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}
