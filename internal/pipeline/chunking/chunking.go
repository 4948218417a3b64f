package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/akolanti/smartsort/internal/config"
)

const paragraphSeparator = "\n\n"

type Piece struct {
	Index         int
	Text          string
	TokenEstimate int
}

type Splitter struct {
	TargetSize int
	Overlap    int
}

func NewSplitter() Splitter {
	return Splitter{TargetSize: config.ChunkTargetSize, Overlap: config.ChunkOverlap}
}

// Split packs paragraphs into chunks of roughly TargetSize characters. When a chunk is closed
// and held more than one paragraph, its last paragraph opens the next chunk as overlap.
// Paragraphs longer than TargetSize are cut on finer separators first.
func (s Splitter) Split(text string) []Piece {
	paragraphs := s.paragraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)
		if currentLen+paraLen > s.TargetSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, paragraphSeparator))

			if len(current) > 1 {
				last := current[len(current)-1]
				current = []string{last, para}
				currentLen = utf8.RuneCountInString(last) + paraLen
			} else {
				current = []string{para}
				currentLen = paraLen
			}
			continue
		}
		current = append(current, para)
		currentLen += paraLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, paragraphSeparator))
	}

	pieces := make([]Piece, len(chunks))
	for i, c := range chunks {
		pieces[i] = Piece{Index: i, Text: c, TokenEstimate: len(strings.Fields(c))}
	}
	return pieces
}

func (s Splitter) paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, paragraphSeparator) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) > s.TargetSize {
			for _, part := range splitTextIntoChunks(p, s.TargetSize, s.Overlap) {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitTextIntoChunks cuts text on the coarsest separator it contains and carries the last
// overlap characters of each piece into the next one.
func splitTextIntoChunks(text string, limit int, overlap int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	separators := []string{"\n", ". ", " "}

	splitChar := ""
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			break
		}
	}

	// no separator at all: hard cut on rune boundaries
	if splitChar == "" {
		return hardCut(text, limit, overlap)
	}
	sepLen := utf8.RuneCountInString(splitChar)

	var chunks []string
	var currentChunk strings.Builder
	currentLen := 0

	for _, part := range strings.Split(text, splitChar) {
		if part == "" {
			continue
		}
		partLen := utf8.RuneCountInString(part)
		if partLen > limit {
			// a single word or line longer than the limit
			if currentLen > 0 {
				chunks = append(chunks, currentChunk.String())
				currentChunk.Reset()
				currentLen = 0
			}
			chunks = append(chunks, hardCut(part, limit, overlap)...)
			continue
		}

		if currentLen+partLen+sepLen > limit {
			if currentLen > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			overlapContent := ""
			if currentLen > overlap && partLen+overlap+sepLen <= limit {
				overlapContent = tail(currentChunk.String(), overlap)
			}
			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
			currentLen = utf8.RuneCountInString(overlapContent)
		}

		if currentLen > 0 {
			currentChunk.WriteString(splitChar)
			currentLen += sepLen
		}
		currentChunk.WriteString(part)
		currentLen += partLen
	}

	if currentLen > 0 {
		chunks = append(chunks, currentChunk.String())
	}
	return chunks
}

func hardCut(text string, limit, overlap int) []string {
	runes := []rune(text)
	step := limit - overlap
	if step <= 0 {
		step = limit
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + limit
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// tail returns at most n trailing characters of s.
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
