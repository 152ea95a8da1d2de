package quizgen

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	return NewExtractor(rand.New(rand.NewSource(42)))
}

func findConcept(concepts []Concept, term string) *Concept {
	for i := range concepts {
		if strings.EqualFold(concepts[i].Term, term) {
			return &concepts[i]
		}
	}
	return nil
}

func TestExtractConcepts_FrenchCopula(t *testing.T) {
	e := newTestExtractor()

	content := "Une clé primaire identifie un enregistrement de manière unique dans une table."
	concepts := e.ExtractConcepts(content)

	c := findConcept(concepts, "clé primaire")
	require.NotNil(t, c, "expected a concept for 'clé primaire', got %+v", concepts)
	assert.Equal(t, SourceDefinitionPattern, c.Source)
	assert.Contains(t, c.Definition, "enregistrement")
}

func TestExtractConcepts_ArticleStripping(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		sentence string
		term     string
	}{
		{"La photosynthèse est le processus par lequel les plantes produisent de l'énergie.", "photosynthèse"},
		{"L'algorithme est une suite d'instructions permettant de résoudre un problème.", "algorithme"},
		{"The compiler is a program that translates source code into machine code.", "compiler"},
	}

	for _, tt := range tests {
		concepts := e.ExtractConcepts(tt.sentence)
		c := findConcept(concepts, tt.term)
		require.NotNil(t, c, "sentence %q should yield term %q, got %+v", tt.sentence, tt.term, concepts)
		assert.Equal(t, tt.term, c.Term)
	}
}

func TestExtractConcepts_ColonAndEquals(t *testing.T) {
	e := newTestExtractor()

	content := "Polymorphisme : capacité d'un objet à prendre plusieurs formes.\n" +
		"Encapsulation = regroupement des données et des méthodes dans une classe."
	concepts := e.ExtractConcepts(content)

	require.NotNil(t, findConcept(concepts, "Polymorphisme"))
	require.NotNil(t, findConcept(concepts, "Encapsulation"))
}

// The copula matcher outranks the colon matcher on a sentence both could match.
func TestExtractConcepts_MatcherPriority(t *testing.T) {
	e := newTestExtractor()

	content := "Le cache est un espace de stockage rapide : il garde les données fréquemment utilisées."
	concepts := e.ExtractConcepts(content)

	require.Len(t, concepts, 1)
	assert.Equal(t, "cache", concepts[0].Term)
}

func TestExtractConcepts_DeduplicatesByTerm(t *testing.T) {
	e := newTestExtractor()

	content := "La variable est un espace mémoire nommé contenant une valeur.\n" +
		"La variable est un emplacement de stockage utilisé par le programme.\n" +
		"Une VARIABLE est une zone nommée de la mémoire du programme."
	concepts := e.ExtractConcepts(content)

	count := 0
	for _, c := range concepts {
		if strings.EqualFold(c.Term, "variable") {
			count++
		}
	}
	assert.Equal(t, 1, count, "the same term should only be extracted once")
}

func TestExtractConcepts_SupplementsWithCapitalizedTerms(t *testing.T) {
	e := newTestExtractor()

	// No definition sentence matches, so capitalized technical terms fill in.
	content := "Ce chapitre présente Kubernetes et son écosystème. " +
		"Nous déployons ensuite des conteneurs avec Docker sur plusieurs machines."
	concepts := e.ExtractConcepts(content)

	k := findConcept(concepts, "Kubernetes")
	require.NotNil(t, k)
	assert.Equal(t, SourceTermContext, k.Source)
	assert.NotEmpty(t, k.Context)
}

func TestExtractConcepts_IgnoresOutOfBoundsSentences(t *testing.T) {
	e := newTestExtractor()

	short := "X est un Y." // below the sentence length floor
	concepts := e.ExtractConcepts(short)
	assert.Nil(t, findConcept(concepts, "X"))
}

func TestExtractFacts_Bounds(t *testing.T) {
	e := newTestExtractor()

	content := "Court. " + // too short
		"Le réseau permet la communication entre les machines distantes. " + // informative
		"Bonjour tout le monde aujourd'hui voici le chapitre. " // no informative verb
	facts := e.ExtractFacts(content)

	require.Len(t, facts, 1)
	assert.Contains(t, facts[0], "réseau")
}

func TestExtractFacts_NewlineSeparatedLines(t *testing.T) {
	e := newTestExtractor()

	// Lines without terminal punctuation, as in slide exports and PDF text
	content := "La normalisation permet de réduire la redondance des données\n" +
		"Une transaction est une unité atomique de travail dans la base"
	facts := e.ExtractFacts(content)

	require.Len(t, facts, 2)
	assert.ElementsMatch(t, []string{
		"La normalisation permet de réduire la redondance des données",
		"Une transaction est une unité atomique de travail dans la base",
	}, facts)
}

func TestExtractConcepts_SupplementContextsAreValidUTF8(t *testing.T) {
	e := newTestExtractor()

	// Accented filler before the term puts the raw context window offsets
	// in the middle of two-byte runes
	content := strings.Repeat("é", 60) + " Kubernetes orchestre les conteneurs répartis sur les nœuds du cluster"
	concepts := e.ExtractConcepts(content)

	c := findConcept(concepts, "Kubernetes")
	require.NotNil(t, c)
	assert.True(t, utf8.ValidString(c.Context))
	assert.True(t, utf8.ValidString(c.Definition))
}

func TestExtractFacts_DeduplicatesAndCaps(t *testing.T) {
	e := newTestExtractor()

	sentence := "Le protocole HTTP permet le transfert de documents hypertextes"
	content := sentence + ". " + sentence + ". " + strings.ToUpper(sentence) + "."
	facts := e.ExtractFacts(content)
	assert.Len(t, facts, 1)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("La machine numéro ")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(" utilise un processeur dédié pour ses calculs. ")
	}
	facts = e.ExtractFacts(b.String())
	assert.Len(t, facts, maxFacts)
}

func TestCleanTerm(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Une clé primaire", "clé primaire"},
		{"L'ordinateur", "ordinateur"},
		{"the database", "database"},
		{"  \"cache\"  ", "cache"},
		{"« mémoire »", "mémoire"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, cleanTerm(tt.in), "cleanTerm(%q)", tt.in)
	}
}
