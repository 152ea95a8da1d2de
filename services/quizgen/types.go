package quizgen

// Question categories. The allowed set grows with the difficulty tier.
const (
	CategoryDefinition     = "definition"
	CategoryConceptContext = "concept-context"
	CategoryComprehension  = "comprehension"
	CategoryApplication    = "application"
	CategoryAnalysis       = "analysis"
)

// Concept sources
const (
	SourceDefinitionPattern = "definition-pattern"
	SourceTermContext       = "term-context"
)

// Concept is an extracted (term, definition) pair with its source context
type Concept struct {
	Term       string
	Definition string
	Context    string
	Source     string // definition-pattern or term-context
}

// GeneratedQuestion is a synthesized 4-option multiple-choice question
type GeneratedQuestion struct {
	Question     string
	Options      []string // exactly 4 distinct non-empty strings
	CorrectIndex int      // 0..3; Options[CorrectIndex] is the extracted correct answer
	Explanation  string
	Category     string
	Difficulty   string
}
