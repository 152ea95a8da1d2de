package quizgen

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

const (
	maxAnswerLen      = 120
	maxShortAnswerLen = 80
	maxExcerptLen     = 150
)

var spaceRe = regexp.MustCompile(`\s+`)

// Synthesizer turns extracted concepts and facts into 4-option
// multiple-choice questions with generated distractors
type Synthesizer struct {
	rng *rand.Rand
}

// NewSynthesizer creates a Synthesizer. A nil rng gets a time-seeded source;
// tests inject a fixed seed for deterministic option and question order.
func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{rng: rng}
}

// AllowedCategories returns the question categories permitted at a tier
func AllowedCategories(difficulty string) []string {
	categories := []string{CategoryDefinition, CategoryConceptContext, CategoryComprehension}
	switch strings.ToUpper(difficulty) {
	case "INTERMEDIATE":
		categories = append(categories, CategoryApplication)
	case "ADVANCED":
		categories = append(categories, CategoryApplication, CategoryAnalysis)
	}
	return categories
}

// Generate produces exactly numQuestions questions for the tier. When the
// extracted material runs out, generic placeholder questions make up the
// count; the final question order is shuffled.
func (s *Synthesizer) Generate(concepts []Concept, facts []string, difficulty string, numQuestions int) []GeneratedQuestion {
	if numQuestions <= 0 {
		return []GeneratedQuestion{}
	}

	difficulty = strings.ToUpper(difficulty)
	questions := make([]GeneratedQuestion, 0, numQuestions)

	var defConcepts, contextConcepts []Concept
	for _, c := range concepts {
		if c.Source == SourceTermContext {
			contextConcepts = append(contextConcepts, c)
		} else {
			defConcepts = append(defConcepts, c)
		}
	}

	perType := numQuestions/4 + 1

	// Definition questions from pattern-extracted concepts
	for i := 0; i < perType && len(questions) < numQuestions && i < len(defConcepts); i++ {
		questions = append(questions, s.definitionQuestion(defConcepts[i], difficulty))
	}

	// Concept-context questions from supplemented terms
	for i := 0; i < perType && len(questions) < numQuestions && i < len(contextConcepts); i++ {
		questions = append(questions, s.conceptContextQuestion(contextConcepts[i], difficulty))
	}

	// Comprehension questions from facts
	for i := 0; i < perType && len(questions) < numQuestions && i < len(facts); i++ {
		questions = append(questions, s.comprehensionQuestion(facts[i], difficulty))
	}

	// Application questions (intermediate and above)
	if difficulty != "BEGINNER" {
		for i := 0; i < perType && len(questions) < numQuestions && i < len(concepts); i++ {
			questions = append(questions, s.applicationQuestion(concepts[i], difficulty))
		}
	}

	// Analysis questions (advanced only)
	if difficulty == "ADVANCED" {
		for i := 0; i < perType && len(questions) < numQuestions && i < len(facts); i++ {
			questions = append(questions, s.analysisQuestion(facts[i%len(facts)], difficulty))
		}
	}

	// Top up from remaining concepts
	for len(questions) < numQuestions && len(concepts) > 0 {
		c := concepts[s.rng.Intn(len(concepts))]
		if c.Source == SourceTermContext {
			questions = append(questions, s.conceptContextQuestion(c, difficulty))
		} else {
			questions = append(questions, s.definitionQuestion(c, difficulty))
		}
	}

	// Placeholders when material is exhausted
	for len(questions) < numQuestions {
		questions = append(questions, s.placeholderQuestion(len(questions)+1, difficulty))
	}

	s.rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	return questions[:numQuestions]
}

func (s *Synthesizer) definitionQuestion(concept Concept, difficulty string) GeneratedQuestion {
	var stem string
	switch difficulty {
	case "ADVANCED":
		stem = fmt.Sprintf("According to the course, which statement best describes %q?", concept.Term)
	case "INTERMEDIATE":
		stem = fmt.Sprintf("How does the course define %q?", concept.Term)
	default:
		stem = fmt.Sprintf("What does %q mean in this course?", concept.Term)
	}

	correct := Truncate(concept.Definition, maxAnswerLen)
	distractors := s.pickDistractors(correct, []string{
		fmt.Sprintf("A concept unrelated to %s in this context", concept.Term),
		fmt.Sprintf("A different notion that does not correspond to %s", concept.Term),
		fmt.Sprintf("An element with no connection to the definition of %s", concept.Term),
		fmt.Sprintf("An incorrect interpretation of %s", concept.Term),
		fmt.Sprintf("%s is not defined this way in the course", concept.Term),
		fmt.Sprintf("This description does not correspond to %s", concept.Term),
	})

	return s.assemble(stem, correct, distractors, difficulty, CategoryDefinition,
		"The correct answer is based on the course content: "+Truncate(concept.Context, maxExcerptLen))
}

func (s *Synthesizer) conceptContextQuestion(concept Concept, difficulty string) GeneratedQuestion {
	stem := fmt.Sprintf("In which context does the course mention %q?", concept.Term)

	correct := Truncate(concept.Context, maxAnswerLen)
	distractors := s.pickDistractors(correct, []string{
		fmt.Sprintf("%s is not mentioned anywhere in the course", concept.Term),
		fmt.Sprintf("%s only appears in an example unrelated to the material", concept.Term),
		"In a section that is not part of the course material",
		fmt.Sprintf("The course mentions %s without giving any context", concept.Term),
	})

	return s.assemble(stem, correct, distractors, difficulty, CategoryConceptContext,
		"This excerpt comes directly from the course material: "+Truncate(concept.Context, maxExcerptLen))
}

func (s *Synthesizer) comprehensionQuestion(fact, difficulty string) GeneratedQuestion {
	var stem string
	switch difficulty {
	case "ADVANCED":
		stem = "Which statement from the course is accurate?"
	case "INTERMEDIATE":
		stem = "According to the studied material, which of these statements is correct?"
	default:
		stem = "Which of these pieces of information is mentioned in the course?"
	}

	correct := Truncate(fact, maxAnswerLen)
	distractors := s.pickDistractors(correct, []string{
		negateFact(fact),
		"A statement that does not appear in the studied material",
		"This information is not covered in the course",
		"A claim the course explicitly contradicts",
	})

	return s.assemble(stem, correct, distractors, difficulty, CategoryComprehension,
		"This information comes directly from the course.")
}

func (s *Synthesizer) applicationQuestion(concept Concept, difficulty string) GeneratedQuestion {
	stem := fmt.Sprintf("How could the concept of %q be applied according to the course?", concept.Term)

	correct := "By following the principles described: " + Truncate(concept.Definition, maxShortAnswerLen)
	distractors := s.pickDistractors(correct, []string{
		"This concept has no practical application mentioned",
		"Applying it requires knowledge not covered by the course",
		"The course does not propose any application for this concept",
		fmt.Sprintf("%s cannot be applied in practice", concept.Term),
	})

	return s.assemble(stem, correct, distractors, difficulty, CategoryApplication,
		"The course explains: "+Truncate(concept.Context, maxExcerptLen))
}

func (s *Synthesizer) analysisQuestion(fact, difficulty string) GeneratedQuestion {
	stem := "Analyzing the course content, which conclusion can be drawn?"

	correct := Truncate(fact, maxAnswerLen)
	distractors := s.pickDistractors(correct, []string{
		"This conclusion is not supported by the course",
		"The course suggests a different interpretation",
		"Analyzing the course leads to another conclusion",
		"No conclusion can be drawn from the material",
	})

	return s.assemble(stem, correct, distractors, difficulty, CategoryAnalysis,
		"This conclusion is based on the course content.")
}

func (s *Synthesizer) placeholderQuestion(n int, difficulty string) GeneratedQuestion {
	stem := fmt.Sprintf("Review question %d: which statement about this course is most accurate?", n)

	correct := "The course material covers the topics presented in its content"
	distractors := s.pickDistractors(correct, []string{
		"The course has no content to study",
		"None of the course material is relevant to this quiz",
		"This course only contains administrative information",
	})

	return s.assemble(stem, correct, distractors, difficulty, CategoryComprehension,
		"Generic review question: the course content offered too little extractable material.")
}

// pickDistractors selects three distractors from the candidate templates,
// guaranteed distinct from the correct answer and from each other
func (s *Synthesizer) pickDistractors(correct string, candidates []string) []string {
	distractors := make([]string, 0, 3)
	offset := s.rng.Intn(len(candidates))

	for i := 0; i < len(candidates) && len(distractors) < 3; i++ {
		candidate := candidates[(offset+i)%len(candidates)]
		if candidate == "" || candidate == correct {
			continue
		}
		duplicate := false
		for _, d := range distractors {
			if d == candidate {
				duplicate = true
				break
			}
		}
		if !duplicate {
			distractors = append(distractors, candidate)
		}
	}

	// Number remaining slots so distinctness always holds
	for i := 1; len(distractors) < 3; i++ {
		filler := fmt.Sprintf("None of the other statements is correct (%d)", i)
		if filler != correct {
			distractors = append(distractors, filler)
		}
	}

	return distractors
}

// assemble shuffles the correct answer among the distractors and records the
// resulting correct index
func (s *Synthesizer) assemble(stem, correct string, distractors []string, difficulty, category, explanation string) GeneratedQuestion {
	options := append([]string{correct}, distractors...)
	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}

	return GeneratedQuestion{
		Question:     stem,
		Options:      options,
		CorrectIndex: correctIndex,
		Explanation:  explanation,
		Category:     category,
		Difficulty:   difficulty,
	}
}

// negateFact flips the main verb of a fact to build a plausible false
// statement. Falls back to a generic contradiction when nothing flips.
func negateFact(fact string) string {
	replacements := [][2]string{
		{" est ", " n'est pas "},
		{" sont ", " ne sont pas "},
		{" peut ", " ne peut pas "},
		{" is ", " is not "},
		{" are ", " are not "},
		{" can ", " cannot "},
	}

	modified := fact
	for _, r := range replacements {
		modified = strings.Replace(modified, r[0], r[1], 1)
	}

	if modified == fact {
		modified = "The opposite of what the course states"
	}

	return Truncate(modified, maxAnswerLen)
}

// Truncate collapses whitespace and cuts text to maxLength runes with an ellipsis
func Truncate(text string, maxLength int) string {
	text = spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength-3]) + "..."
}
