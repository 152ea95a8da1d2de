package agent

import (
	"eduquiz/config"
	"eduquiz/models"
	"eduquiz/services/quizgen"
	"eduquiz/services/rag"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors surfaced to controllers
var (
	ErrAlreadySubmitted = errors.New("quiz attempt has already been submitted")
	ErrNotAttemptOwner  = errors.New("quiz attempt does not belong to this student")
)

// PerformanceAnalysis summarizes a student's completed attempt history for a
// course. It is derived per generation request and never persisted.
type PerformanceAnalysis struct {
	TotalAttempts int
	AverageScore  float64
	LastScore     float64
	CurrentLevel  string
	Improving     bool // requires at least two prior attempts
	FirstAttempt  bool
}

// QuizParameters are the generation parameters the agent decides on
type QuizParameters struct {
	Difficulty    string
	NumQuestions  int
	ContextChunks int
}

// rng drives option shuffling and fact sampling; swappable for deterministic tests
var rng *rand.Rand

// SetRand injects a random source for deterministic generation in tests.
// A nil value restores the default time-seeded behavior.
func SetRand(r *rand.Rand) {
	rng = r
}

// NormalizeDifficulty maps an arbitrary difficulty string onto a known
// level, defaulting to BEGINNER for anything unrecognized
func NormalizeDifficulty(difficulty string) string {
	switch strings.ToUpper(strings.TrimSpace(difficulty)) {
	case models.DifficultyIntermediate:
		return models.DifficultyIntermediate
	case models.DifficultyAdvanced:
		return models.DifficultyAdvanced
	default:
		return models.DifficultyBeginner
	}
}

// AnalyzePerformance classifies a completed attempt history, most recent
// first, into a performance snapshot
func AnalyzePerformance(attempts []models.QuizAttempt) PerformanceAnalysis {
	analysis := PerformanceAnalysis{TotalAttempts: len(attempts)}

	if len(attempts) == 0 {
		analysis.CurrentLevel = models.DifficultyBeginner
		analysis.FirstAttempt = true
		return analysis
	}

	var total float64
	for _, attempt := range attempts {
		total += attempt.Score
	}
	analysis.AverageScore = total / float64(len(attempts))

	// An improving trend needs at least two prior attempts
	if len(attempts) >= 2 {
		analysis.Improving = attempts[0].Score > attempts[1].Score
	}

	analysis.LastScore = attempts[0].Score
	analysis.CurrentLevel = attempts[0].Difficulty

	return analysis
}

// DecideParameters applies the adaptive policy bands to a performance
// snapshot. Thresholds come from configuration, not literals.
func DecideParameters(analysis PerformanceAnalysis) QuizParameters {
	cfg := config.AppConfig

	if analysis.FirstAttempt {
		log.Println("Agent Decision: First attempt - Starting with BEGINNER level")
		return QuizParameters{Difficulty: models.DifficultyBeginner, NumQuestions: 5, ContextChunks: 5}
	}

	avg := analysis.AverageScore
	switch {
	case avg >= cfg.ExcellentScore && analysis.Improving:
		log.Println("Agent Decision: Excellent performance - Upgrading to ADVANCED")
		return QuizParameters{Difficulty: models.DifficultyAdvanced, NumQuestions: 8, ContextChunks: 10}
	case avg >= cfg.GoodScore:
		log.Println("Agent Decision: Good performance - INTERMEDIATE level")
		return QuizParameters{Difficulty: models.DifficultyIntermediate, NumQuestions: 6, ContextChunks: 8}
	case avg >= cfg.PassingScore:
		log.Println("Agent Decision: Passing performance - Maintaining current level")
		return QuizParameters{Difficulty: NormalizeDifficulty(analysis.CurrentLevel), NumQuestions: 5, ContextChunks: 6}
	default:
		log.Println("Agent Decision: Low performance - Back to BEGINNER")
		return QuizParameters{Difficulty: models.DifficultyBeginner, NumQuestions: 5, ContextChunks: 5}
	}
}

// BuildAgentDecision renders the human-readable rationale stored with the attempt
func BuildAgentDecision(analysis PerformanceAnalysis, params QuizParameters) string {
	var decision strings.Builder
	decision.WriteString("Adaptive agent - analysis and decision:\n")
	fmt.Fprintf(&decision, "- Previous attempts: %d\n", analysis.TotalAttempts)

	if !analysis.FirstAttempt {
		fmt.Fprintf(&decision, "- Average score: %.1f%%\n", analysis.AverageScore)
		fmt.Fprintf(&decision, "- Last score: %.1f%%\n", analysis.LastScore)
		improving := "No"
		if analysis.Improving {
			improving = "Yes"
		}
		fmt.Fprintf(&decision, "- Improving: %s\n", improving)
	}

	fmt.Fprintf(&decision, "- Chosen level: %s\n", params.Difficulty)
	fmt.Fprintf(&decision, "- Number of questions: %d\n", params.NumQuestions)

	return decision.String()
}

// LoadAttemptHistory returns the student's completed quiz attempts for a
// course, most recent first
func LoadAttemptHistory(db *gorm.DB, studentID, courseID uint) []models.QuizAttempt {
	var attempts []models.QuizAttempt
	db.Where("student_id = ? AND course_id = ? AND completed = true", studentID, courseID).
		Order("created_at desc").
		Find(&attempts)
	return attempts
}

// GenerateAdaptiveQuiz analyzes the student's history, decides generation
// parameters, synthesizes questions from the course corpus and persists the
// new attempt with the agent's rationale attached.
func GenerateAdaptiveQuiz(db *gorm.DB, student *models.User, course *models.Course) (*models.QuizAttempt, error) {
	log.Printf("Agent: Generating adaptive quiz for student %s on course %s", student.Email, course.Title)

	analysis := AnalyzePerformance(LoadAttemptHistory(db, student.ID, course.ID))
	params := DecideParameters(analysis)

	questions := generateQuestions(db, course, params)

	attempt, err := createQuizAttempt(db, student, course, questions, params, BuildAgentDecision(analysis, params))
	if err != nil {
		return nil, err
	}

	return attempt, nil
}

// GenerateCustomQuiz generates a quiz with the difficulty and question count
// the student chose. Unrecognized difficulty strings fall back to BEGINNER.
func GenerateCustomQuiz(db *gorm.DB, student *models.User, course *models.Course, difficulty string, numQuestions int) (*models.QuizAttempt, error) {
	level := NormalizeDifficulty(difficulty)
	log.Printf("Agent: Generating custom quiz for student %s on course %s (%s, %d questions)",
		student.Email, course.Title, level, numQuestions)

	params := QuizParameters{Difficulty: level, NumQuestions: numQuestions, ContextChunks: 20}
	questions := generateQuestions(db, course, params)

	decision := fmt.Sprintf("Student-selected quiz - Level: %s, Questions: %d", level, numQuestions)
	attempt, err := createQuizAttempt(db, student, course, questions, params, decision)
	if err != nil {
		return nil, err
	}

	return attempt, nil
}

// generateQuestions runs the extraction and synthesis pipeline. Indexed
// courses feed from their chunk store, unindexed ones from the aggregated
// corpus. An empty corpus degrades to placeholder questions, never an error.
func generateQuestions(db *gorm.DB, course *models.Course, params QuizParameters) []quizgen.GeneratedQuestion {
	var corpus string
	if course.IsIndexed {
		corpus = rag.CourseContext(db, course.ID, params.ContextChunks)
	}
	if corpus == "" {
		corpus = rag.FullCourseContext(db, course)
	}

	extractor := quizgen.NewExtractor(rng)
	concepts := extractor.ExtractConcepts(corpus)
	facts := extractor.ExtractFacts(corpus)
	log.Printf("Extracted %d concepts and %d facts from course '%s'", len(concepts), len(facts), course.Title)

	synthesizer := quizgen.NewSynthesizer(rng)
	return synthesizer.Generate(concepts, facts, params.Difficulty, params.NumQuestions)
}

// createQuizAttempt persists the attempt and its questions in one transaction
func createQuizAttempt(db *gorm.DB, student *models.User, course *models.Course,
	questions []quizgen.GeneratedQuestion, params QuizParameters, decision string) (*models.QuizAttempt, error) {

	attempt := &models.QuizAttempt{
		StudentID:      student.ID,
		CourseID:       course.ID,
		Difficulty:     params.Difficulty,
		TotalQuestions: len(questions),
		AgentDecision:  decision,
	}

	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		attempt.Questions = append(attempt.Questions, models.QuizQuestion{
			QuestionText:       q.Question,
			Options:            optionsJSON,
			CorrectAnswerIndex: q.CorrectIndex,
			Explanation:        q.Explanation,
			Category:           q.Category,
		})
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(attempt).Error
	}); err != nil {
		return nil, fmt.Errorf("save quiz attempt: %w", err)
	}

	return attempt, nil
}

// SubmitQuiz grades an attempt against the submitted answers and records the
// recommendation. Grading is all-or-nothing: either the full answer set is
// scored and the attempt persisted as completed, or nothing changes.
// A missing answer for a question simply counts as incorrect.
func SubmitQuiz(db *gorm.DB, attemptID, studentID uint, answers map[uint]int) (*models.QuizAttempt, string, error) {
	var attempt models.QuizAttempt
	if err := db.Preload("Questions").First(&attempt, attemptID).Error; err != nil {
		return nil, "", fmt.Errorf("load attempt: %w", err)
	}

	if attempt.StudentID != studentID {
		return nil, "", ErrNotAttemptOwner
	}
	if attempt.Completed {
		return nil, "", ErrAlreadySubmitted
	}

	correctCount := 0
	for i := range attempt.Questions {
		q := &attempt.Questions[i]
		if answerIndex, ok := answers[q.ID]; ok {
			idx := answerIndex
			q.StudentAnswerIndex = &idx
			q.Correct = answerIndex == q.CorrectAnswerIndex
		} else {
			q.StudentAnswerIndex = nil
			q.Correct = false
		}
		if q.Correct {
			correctCount++
		}
	}

	attempt.CorrectAnswers = correctCount
	if attempt.TotalQuestions > 0 {
		attempt.Score = float64(correctCount) * 100.0 / float64(attempt.TotalQuestions)
	}
	attempt.Passed = attempt.Score >= config.AppConfig.PassingScore
	attempt.Completed = true

	recommendation := MakeRecommendation(attempt.Score)
	attempt.RecommendedAction = recommendation

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range attempt.Questions {
			if err := tx.Save(&attempt.Questions[i]).Error; err != nil {
				return fmt.Errorf("save question: %w", err)
			}
		}
		return tx.Save(&attempt).Error
	})
	if err != nil {
		return nil, "", fmt.Errorf("persist graded attempt: %w", err)
	}

	log.Printf("Quiz attempt %d graded: %.1f%% (passed=%t)", attempt.ID, attempt.Score, attempt.Passed)
	return &attempt, recommendation, nil
}

// MakeRecommendation returns the pedagogical recommendation for a score,
// using the configured score bands
func MakeRecommendation(score float64) string {
	cfg := config.AppConfig

	switch {
	case score >= cfg.ExcellentScore:
		return "Excellent work! You have mastered this course. " +
			"You are ready to validate this training. " +
			"Next attempt: ADVANCED level."
	case score >= cfg.GoodScore:
		return "Very good! You have a solid understanding of the course. " +
			"Keep practicing to reach excellence. " +
			"Next attempt: level maintained or raised."
	case score >= cfg.PassingScore:
		return "Well done! You passed the quiz. " +
			"Review the weaker points to improve your score. " +
			"Next attempt: similar level."
	case score >= cfg.PoorScore:
		return "You have the basics, but more review is needed. " +
			"Reread the course carefully before trying again. " +
			"Next attempt: back to BEGINNER level."
	default:
		return "This course needs more work. " +
			"Take the time to read and understand the content. " +
			"Next attempt: BEGINNER level with reinforced support."
	}
}
