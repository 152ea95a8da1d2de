package rag

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[^\pL\pN]+`)

// Similarity scores a chunk of text against a query. The default
// implementation is a bag-of-words overlap; a vector-similarity backend can
// be dropped in without touching the chunk store contract.
type Similarity interface {
	Score(text, query string) float64
}

// BagOfWords scores by lexical overlap:
// |distinct query words ∩ distinct text words| / |distinct query words|.
type BagOfWords struct{}

func (BagOfWords) Score(text, query string) float64 {
	queryWords := distinctWords(query)
	if len(queryWords) == 0 {
		return 0.0
	}

	textWords := distinctWords(text)
	common := 0
	for w := range queryWords {
		if _, ok := textWords[w]; ok {
			common++
		}
	}

	return float64(common) / float64(len(queryWords))
}

func distinctWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range wordRe.Split(strings.ToLower(s), -1) {
		if w != "" {
			words[w] = struct{}{}
		}
	}
	return words
}

// Fingerprint returns a cheap reproducible digest of a chunk's text.
// It stands in for a real embedding vector.
func Fingerprint(text string) string {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(text))))
	return fmt.Sprintf("fnv-%016x", h.Sum64())
}
