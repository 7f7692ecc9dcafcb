package ingest

import "strings"

// SplitText splits extracted text into ordered segments of at most size
// runes. It is deterministic, drops no characters, and preserves input
// order; whitespace-only segments are discarded. One chunk size must be
// used for a document's entire chunk set, so callers pass the size down
// from a single configuration knob.
func SplitText(text string, size int) []string {
	if size <= 0 || text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
