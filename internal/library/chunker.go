package library

import "strings"

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// splitText breaks document text into overlapping chunks, preferring
// paragraph and sentence boundaries near the target size.
func splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}

		cut := end
		if i := strings.LastIndex(text[start:end], "\n\n"); i > chunkSize/2 {
			cut = start + i
		} else if i := strings.LastIndexAny(text[start:end], ".!?"); i > chunkSize/2 {
			cut = start + i + 1
		} else if i := strings.LastIndex(text[start:end], " "); i > chunkSize/2 {
			cut = start + i
		}

		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}
