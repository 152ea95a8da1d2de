package quizgen

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynthesizer() *Synthesizer {
	return NewSynthesizer(rand.New(rand.NewSource(7)))
}

func sampleConcepts() []Concept {
	return []Concept{
		{Term: "clé primaire", Definition: "une colonne qui identifie chaque ligne de façon unique", Context: "Une clé primaire identifie un enregistrement", Source: SourceDefinitionPattern},
		{Term: "index", Definition: "une structure qui accélère la recherche de données", Context: "Un index est une structure qui accélère la recherche", Source: SourceDefinitionPattern},
		{Term: "Transaction", Definition: "les transactions garantissent l'atomicité des opérations", Context: "les transactions garantissent l'atomicité des opérations", Source: SourceTermContext},
	}
}

func sampleFacts() []string {
	return []string{
		"La normalisation permet de réduire la redondance des données",
		"Un index est stocké séparément de la table principale",
	}
}

func assertWellFormed(t *testing.T, questions []GeneratedQuestion) {
	t.Helper()
	for _, q := range questions {
		require.Len(t, q.Options, 4, "question %q", q.Question)

		seen := make(map[string]bool)
		for _, opt := range q.Options {
			assert.NotEmpty(t, opt)
			assert.False(t, seen[opt], "duplicate option %q in question %q", opt, q.Question)
			seen[opt] = true
		}

		require.GreaterOrEqual(t, q.CorrectIndex, 0)
		require.Less(t, q.CorrectIndex, 4)
		assert.NotEmpty(t, q.Explanation)
		assert.NotEmpty(t, q.Category)
	}
}

func TestGenerate_ExactCount(t *testing.T) {
	s := newTestSynthesizer()

	for _, n := range []int{1, 5, 8, 12} {
		questions := s.Generate(sampleConcepts(), sampleFacts(), "BEGINNER", n)
		assert.Len(t, questions, n, "requested %d questions", n)
		assertWellFormed(t, questions)
	}
}

func TestGenerate_PadsWithPlaceholders(t *testing.T) {
	s := newTestSynthesizer()

	// No material at all: every slot is a placeholder, the count still holds.
	questions := s.Generate(nil, nil, "BEGINNER", 5)
	require.Len(t, questions, 5)
	assertWellFormed(t, questions)
	for _, q := range questions {
		assert.Equal(t, CategoryComprehension, q.Category)
	}
}

func TestGenerate_ZeroOrNegativeCount(t *testing.T) {
	s := newTestSynthesizer()

	assert.Empty(t, s.Generate(sampleConcepts(), sampleFacts(), "BEGINNER", 0))
	assert.Empty(t, s.Generate(sampleConcepts(), sampleFacts(), "ADVANCED", -3))
}

func TestGenerate_CategoriesRespectTier(t *testing.T) {
	s := newTestSynthesizer()

	tiers := []string{"BEGINNER", "INTERMEDIATE", "ADVANCED"}
	for _, tier := range tiers {
		allowed := make(map[string]bool)
		for _, cat := range AllowedCategories(tier) {
			allowed[cat] = true
		}

		questions := s.Generate(sampleConcepts(), sampleFacts(), tier, 8)
		require.Len(t, questions, 8)
		for _, q := range questions {
			assert.True(t, allowed[q.Category], "category %q not allowed at tier %s", q.Category, tier)
		}
	}
}

func TestGenerate_CorrectOptionMatchesSource(t *testing.T) {
	s := newTestSynthesizer()

	concepts := sampleConcepts()[:1]
	questions := s.Generate(concepts, nil, "BEGINNER", 1)
	require.Len(t, questions, 1)

	q := questions[0]
	correct := q.Options[q.CorrectIndex]
	assert.Equal(t, Truncate(concepts[0].Definition, maxAnswerLen), correct)
}

func TestAllowedCategories(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{CategoryDefinition, CategoryConceptContext, CategoryComprehension},
		AllowedCategories("BEGINNER"))
	assert.ElementsMatch(t,
		[]string{CategoryDefinition, CategoryConceptContext, CategoryComprehension, CategoryApplication},
		AllowedCategories("intermediate"))
	assert.ElementsMatch(t,
		[]string{CategoryDefinition, CategoryConceptContext, CategoryComprehension, CategoryApplication, CategoryAnalysis},
		AllowedCategories("ADVANCED"))
	// Unknown tiers get the base set
	assert.ElementsMatch(t,
		[]string{CategoryDefinition, CategoryConceptContext, CategoryComprehension},
		AllowedCategories("WIZARD"))
}

func TestPickDistractors_AlwaysThreeDistinct(t *testing.T) {
	s := newTestSynthesizer()

	// Candidate pool smaller than three forces numbered fillers
	distractors := s.pickDistractors("bonne réponse", []string{"bonne réponse", "autre"})
	require.Len(t, distractors, 3)

	seen := map[string]bool{"bonne réponse": true}
	for _, d := range distractors {
		assert.False(t, seen[d], "distractor %q collides", d)
		seen[d] = true
	}
}

func TestNegateFact(t *testing.T) {
	assert.Contains(t, negateFact("Le cache est rapide et efficace pour les lectures"), "n'est pas")
	assert.Contains(t, negateFact("Indexes are stored separately from the table"), "are not")
	// Nothing to flip falls back to a generic contradiction
	assert.Equal(t, "The opposite of what the course states", negateFact("Aucun verbe à inverser ici"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "court", Truncate("  court  ", 120))
	assert.Equal(t, "a b c", Truncate("a   b \n c", 120))

	long := ""
	for i := 0; i < 50; i++ {
		long += "éléphant "
	}
	out := Truncate(long, 40)
	runes := []rune(out)
	assert.Len(t, runes, 40)
	assert.Equal(t, "...", string(runes[37:]))
}
