package quizgen

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minSentenceLen = 20
	maxSentenceLen = 500
	minTermLen     = 3
	maxTermLen     = 50
	minDefLen      = 10
	maxConcepts    = 30
	// Below this many pattern hits, capitalized terms supplement the concept list
	minPatternConcepts = 5
	minFactLen         = 30
	maxFactLen         = 300
	maxFacts           = 20
)

// definitionPattern is one matcher in the ordered extraction cascade
type definitionPattern struct {
	name string
	re   *regexp.Regexp
}

// definitionPatterns is the ordered matcher cascade. The first pattern that
// matches a sentence wins; later patterns are never retried on that sentence.
// Order is part of the contract and pinned by tests.
var definitionPatterns = []definitionPattern{
	{
		name: "copula",
		re: regexp.MustCompile(`(?i)^(.{3,60}?)\s+(?:est|sont|désigne|représente|signifie|correspond à|se définit comme|identifie|is|are|means|represents|refers to|identifies|denotes)\s+(.{10,240})$`),
	},
	{
		name: "appellation",
		re:   regexp.MustCompile(`(?i)^(?:on appelle|on définit|we call)\s+(.{3,60}?)\s+(.{10,240})$`),
	},
	{
		name: "colon",
		re:   regexp.MustCompile(`^(.{3,60}?)\s*:\s*(.{10,240})$`),
	},
	{
		name: "equals",
		re:   regexp.MustCompile(`^(.{3,60}?)\s*=\s*(.{10,240})$`),
	},
}

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?\n]+`)
	factSplitRe     = regexp.MustCompile(`[.!?\n]+`)
	articleRe       = regexp.MustCompile(`(?i)^(?:(?:un|une|le|la|les|a|an|the)\s+|l['’])`)
	capitalizedRe   = regexp.MustCompile(`\b[A-Z][\p{L}]{2,}(?:\s+[A-Z][\p{L}]{2,})*\b`)
	nonWordRe       = regexp.MustCompile(`[^\pL\pN]+`)
)

// commonWords are capitalized words excluded from term supplementation
var commonWords = map[string]bool{
	"Dans": true, "Pour": true, "Avec": true, "Sans": true, "Cette": true,
	"Cela": true, "Donc": true, "Mais": true, "Puis": true, "Quel": true,
	"Quoi": true, "Comment": true, "Pourquoi": true, "Quand": true,
	"Alors": true, "Ainsi": true, "Aussi": true, "Bien": true, "Très": true,
	"Plus": true, "Moins": true, "Tout": true, "Tous": true, "Toute": true,
	"Toutes": true,
	"This": true, "That": true, "With": true, "When": true, "Where": true,
	"What": true, "Then": true, "Also": true, "More": true, "Most": true,
	"Some": true, "Such": true, "These": true, "Those": true, "From": true,
	"Into": true, "About": true, "Chapter": true, "Course": true,
}

// informativeWords marks a sentence as fact-worthy when at least one of them
// appears as a standalone word
var informativeWords = map[string]bool{
	"permet": true, "est": true, "sont": true, "peut": true, "doit": true,
	"représente": true, "contient": true, "utilise": true, "produit": true,
	"génère": true, "crée": true, "fonctionne": true, "sert": true,
	"comprend": true, "inclut": true, "nécessite": true, "requiert": true,
	"implique": true, "consiste": true, "caractérise": true, "définit": true,
	"décrit": true, "explique": true, "identifie": true,
	"allows": true, "is": true, "are": true, "can": true, "must": true,
	"represents": true, "contains": true, "uses": true, "produces": true,
	"generates": true, "creates": true, "works": true, "serves": true,
	"includes": true, "requires": true, "involves": true, "consists": true,
	"defines": true, "describes": true, "explains": true, "identifies": true,
	"enables": true, "provides": true,
}

// Extractor mines concepts and facts from a course corpus
type Extractor struct {
	rng *rand.Rand
}

// NewExtractor creates an Extractor. A nil rng gets a time-seeded source;
// tests inject a fixed seed for deterministic fact sampling.
func NewExtractor(rng *rand.Rand) *Extractor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Extractor{rng: rng}
}

// ExtractConcepts mines (term, definition) pairs from the corpus using the
// ordered pattern cascade, deduplicated case-insensitively by term. When
// pattern hits are scarce, capitalized terms with a surrounding context
// window supplement the list up to the concept cap.
func (e *Extractor) ExtractConcepts(content string) []Concept {
	var concepts []Concept
	seenTerms := make(map[string]bool)

	for _, sentence := range sentenceSplitRe.Split(content, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < minSentenceLen || len(sentence) > maxSentenceLen {
			continue
		}

		for _, pattern := range definitionPatterns {
			match := pattern.re.FindStringSubmatch(sentence)
			if match == nil {
				continue
			}

			term := cleanTerm(match[1])
			definition := strings.TrimSpace(match[2])

			if len(term) >= minTermLen && len(term) <= maxTermLen &&
				len(definition) >= minDefLen && !seenTerms[strings.ToLower(term)] {
				seenTerms[strings.ToLower(term)] = true
				concepts = append(concepts, Concept{
					Term:       term,
					Definition: definition,
					Context:    sentence,
					Source:     SourceDefinitionPattern,
				})
			}

			// First pattern in priority order wins; never retry with a later one.
			break
		}
	}

	if len(concepts) < minPatternConcepts {
		concepts = e.supplementWithTerms(content, concepts, seenTerms)
	}

	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}

	return concepts
}

// supplementWithTerms adds capitalized technical terms paired with their
// surrounding text as context, skipping common words
func (e *Extractor) supplementWithTerms(content string, concepts []Concept, seenTerms map[string]bool) []Concept {
	for _, loc := range capitalizedRe.FindAllStringIndex(content, -1) {
		if len(concepts) >= maxConcepts {
			break
		}

		term := content[loc[0]:loc[1]]
		firstWord := strings.Fields(term)[0]
		if len(term) < 4 || commonWords[firstWord] || seenTerms[strings.ToLower(term)] {
			continue
		}

		start := loc[0] - 50
		if start < 0 {
			start = 0
		}
		end := loc[1] + 150
		if end > len(content) {
			end = len(content)
		}
		// Window offsets can land mid-rune; snap to boundaries
		for start > 0 && !utf8.RuneStart(content[start]) {
			start--
		}
		for end < len(content) && !utf8.RuneStart(content[end]) {
			end--
		}
		context := strings.TrimSpace(content[start:end])

		seenTerms[strings.ToLower(term)] = true
		concepts = append(concepts, Concept{
			Term:       term,
			Definition: context,
			Context:    context,
			Source:     SourceTermContext,
		})
	}

	return concepts
}

// ExtractFacts returns informative sentences within the configured length
// bounds, deduplicated case-insensitively, shuffled for variety across
// calls and capped.
func (e *Extractor) ExtractFacts(content string) []string {
	var facts []string
	seenFacts := make(map[string]bool)

	for _, sentence := range factSplitRe.Split(content, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < minFactLen || len(sentence) > maxFactLen {
			continue
		}
		if !containsInformation(sentence) || seenFacts[strings.ToLower(sentence)] {
			continue
		}
		seenFacts[strings.ToLower(sentence)] = true
		facts = append(facts, sentence)
	}

	e.rng.Shuffle(len(facts), func(i, j int) {
		facts[i], facts[j] = facts[j], facts[i]
	})

	if len(facts) > maxFacts {
		facts = facts[:maxFacts]
	}

	return facts
}

// containsInformation reports whether a sentence holds at least one
// informative verb as a standalone word
func containsInformation(sentence string) bool {
	for _, word := range nonWordRe.Split(strings.ToLower(sentence), -1) {
		if informativeWords[word] {
			return true
		}
	}
	return false
}

// cleanTerm strips leading articles/determiners and surrounding noise from a
// captured term
func cleanTerm(term string) string {
	term = strings.TrimSpace(term)
	term = articleRe.ReplaceAllString(term, "")
	return strings.Trim(term, ` "'«»`)
}
