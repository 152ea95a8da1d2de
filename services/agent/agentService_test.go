package agent

import (
	"eduquiz/config"
	"eduquiz/models"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		ExcellentScore: 90,
		GoodScore:      75,
		PassingScore:   70,
		PoorScore:      50,
	}
}

// attemptsFromScores builds a completed attempt history, most recent first
func attemptsFromScores(difficulty string, scores ...float64) []models.QuizAttempt {
	attempts := make([]models.QuizAttempt, 0, len(scores))
	for _, score := range scores {
		attempts = append(attempts, models.QuizAttempt{
			Difficulty: difficulty,
			Score:      score,
			Completed:  true,
		})
	}
	return attempts
}

func TestDecideParameters_PolicyBands(t *testing.T) {
	config.AppConfig = testConfig()

	tests := []struct {
		name         string
		attempts     []models.QuizAttempt
		difficulty   string
		numQuestions int
	}{
		{"no attempts", nil, models.DifficultyBeginner, 5},
		{"low average", attemptsFromScores(models.DifficultyBeginner, 62, 58), models.DifficultyBeginner, 5},
		{"good average not improving", attemptsFromScores(models.DifficultyBeginner, 95, 80), models.DifficultyIntermediate, 6},
		{"good average improving but below excellent", attemptsFromScores(models.DifficultyIntermediate, 92, 85), models.DifficultyIntermediate, 6},
		{"excellent and improving", attemptsFromScores(models.DifficultyIntermediate, 96, 90), models.DifficultyAdvanced, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DecideParameters(AnalyzePerformance(tt.attempts))
			assert.Equal(t, tt.difficulty, params.Difficulty)
			assert.Equal(t, tt.numQuestions, params.NumQuestions)
		})
	}
}

func TestDecideParameters_PassingKeepsCurrentTier(t *testing.T) {
	config.AppConfig = testConfig()

	// Average 72 sits in the passing band: the tier stays where it was
	params := DecideParameters(AnalyzePerformance(attemptsFromScores(models.DifficultyIntermediate, 74, 70)))
	assert.Equal(t, models.DifficultyIntermediate, params.Difficulty)
	assert.Equal(t, 5, params.NumQuestions)
}

func TestDecideParameters_ExcellentNeedsTrend(t *testing.T) {
	config.AppConfig = testConfig()

	// A single 95% attempt cannot establish an improving trend
	params := DecideParameters(AnalyzePerformance(attemptsFromScores(models.DifficultyBeginner, 95)))
	assert.Equal(t, models.DifficultyIntermediate, params.Difficulty)
	assert.Equal(t, 6, params.NumQuestions)
}

func TestAnalyzePerformance(t *testing.T) {
	analysis := AnalyzePerformance(attemptsFromScores(models.DifficultyIntermediate, 80, 60, 70))

	assert.Equal(t, 3, analysis.TotalAttempts)
	assert.InDelta(t, 70.0, analysis.AverageScore, 1e-9)
	assert.Equal(t, 80.0, analysis.LastScore)
	assert.True(t, analysis.Improving)
	assert.False(t, analysis.FirstAttempt)
	assert.Equal(t, models.DifficultyIntermediate, analysis.CurrentLevel)

	empty := AnalyzePerformance(nil)
	assert.True(t, empty.FirstAttempt)
	assert.Equal(t, models.DifficultyBeginner, empty.CurrentLevel)
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, models.DifficultyBeginner, NormalizeDifficulty("BEGINNER"))
	assert.Equal(t, models.DifficultyIntermediate, NormalizeDifficulty("intermediate"))
	assert.Equal(t, models.DifficultyAdvanced, NormalizeDifficulty(" advanced "))
	// Unknown levels never reject, they fall back
	assert.Equal(t, models.DifficultyBeginner, NormalizeDifficulty("EXPERT"))
	assert.Equal(t, models.DifficultyBeginner, NormalizeDifficulty(""))
}

func TestMakeRecommendation_Bands(t *testing.T) {
	config.AppConfig = testConfig()

	tests := []struct {
		score float64
		want  string
	}{
		{95, "Excellent"},
		{90, "Excellent"},
		{80, "Very good"},
		{75, "Very good"},
		{72, "Well done"},
		{70, "Well done"},
		{55, "basics"},
		{50, "basics"},
		{30, "reinforced support"},
		{0, "reinforced support"},
	}
	for _, tt := range tests {
		assert.Contains(t, MakeRecommendation(tt.score), tt.want, "score %.0f", tt.score)
	}
}

func TestBuildAgentDecision(t *testing.T) {
	analysis := AnalyzePerformance(attemptsFromScores(models.DifficultyBeginner, 80, 70))
	params := QuizParameters{Difficulty: models.DifficultyIntermediate, NumQuestions: 6}

	decision := BuildAgentDecision(analysis, params)
	assert.Contains(t, decision, "Previous attempts: 2")
	assert.Contains(t, decision, "Average score: 75.0%")
	assert.Contains(t, decision, "Improving: Yes")
	assert.Contains(t, decision, "Chosen level: INTERMEDIATE")
	assert.Contains(t, decision, "Number of questions: 6")

	first := BuildAgentDecision(AnalyzePerformance(nil), QuizParameters{Difficulty: models.DifficultyBeginner, NumQuestions: 5})
	assert.Contains(t, first, "Previous attempts: 0")
	assert.NotContains(t, first, "Average score")
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Course{}, &models.CourseFile{},
		&models.CourseChunk{}, &models.QuizAttempt{}, &models.QuizQuestion{},
	))
	return db
}

func TestGenerateCustomQuiz_PersistsAttempt(t *testing.T) {
	config.AppConfig = testConfig()
	SetRand(rand.New(rand.NewSource(11)))
	db := setupTestDB(t)

	student := models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&student).Error)

	course := models.Course{
		Title: "Bases de données",
		Content: "Une clé primaire identifie un enregistrement de manière unique dans la table. " +
			"Une clé étrangère est une colonne qui référence la clé primaire d'une autre table. " +
			"Un index est une structure qui accélère la recherche des enregistrements. " +
			"Une transaction est une séquence d'opérations exécutée comme une unité atomique.",
		IsPublished: true,
	}
	require.NoError(t, db.Create(&course).Error)

	attempt, err := GenerateCustomQuiz(db, &student, &course, models.DifficultyAdvanced, 6)
	require.NoError(t, err)

	assert.Equal(t, models.DifficultyAdvanced, attempt.Difficulty)
	assert.Equal(t, 6, attempt.TotalQuestions)
	assert.Contains(t, attempt.AgentDecision, "Student-selected")

	var stored models.QuizAttempt
	require.NoError(t, db.Preload("Questions").First(&stored, attempt.ID).Error)
	require.Len(t, stored.Questions, 6)

	for _, q := range stored.Questions {
		var options []string
		require.NoError(t, json.Unmarshal(q.Options, &options))
		assert.Len(t, options, 4)
		assert.GreaterOrEqual(t, q.CorrectAnswerIndex, 0)
		assert.Less(t, q.CorrectAnswerIndex, 4)
	}
	assert.False(t, stored.Completed)
}

func TestGenerateAdaptiveQuiz_FirstAttemptDefaults(t *testing.T) {
	config.AppConfig = testConfig()
	SetRand(rand.New(rand.NewSource(11)))
	db := setupTestDB(t)

	student := models.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&student).Error)

	course := models.Course{Title: "Réseaux", Content: "Un routeur est un équipement qui achemine les paquets entre réseaux.", IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	attempt, err := GenerateAdaptiveQuiz(db, &student, &course)
	require.NoError(t, err)

	assert.Equal(t, models.DifficultyBeginner, attempt.Difficulty)
	assert.Equal(t, 5, attempt.TotalQuestions)
	assert.Contains(t, attempt.AgentDecision, "Previous attempts: 0")
}

func createGradedAttempt(t *testing.T, db *gorm.DB, studentID uint) *models.QuizAttempt {
	t.Helper()

	options, err := json.Marshal([]string{"a", "b", "c", "d"})
	require.NoError(t, err)

	attempt := &models.QuizAttempt{
		StudentID:      studentID,
		CourseID:       1,
		Difficulty:     models.DifficultyBeginner,
		TotalQuestions: 4,
		Questions: []models.QuizQuestion{
			{QuestionText: "q1", Options: options, CorrectAnswerIndex: 0},
			{QuestionText: "q2", Options: options, CorrectAnswerIndex: 1},
			{QuestionText: "q3", Options: options, CorrectAnswerIndex: 2},
			{QuestionText: "q4", Options: options, CorrectAnswerIndex: 3},
		},
	}
	require.NoError(t, db.Create(attempt).Error)
	return attempt
}

func TestSubmitQuiz_ScoreArithmetic(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	attempt := createGradedAttempt(t, db, 1)

	// Three correct, one wrong, and one question left unanswered counts wrong
	answers := map[uint]int{
		attempt.Questions[0].ID: 0,
		attempt.Questions[1].ID: 1,
		attempt.Questions[2].ID: 2,
		attempt.Questions[3].ID: 0,
	}

	graded, recommendation, err := SubmitQuiz(db, attempt.ID, 1, answers)
	require.NoError(t, err)

	assert.Equal(t, 3, graded.CorrectAnswers)
	assert.InDelta(t, 75.0, graded.Score, 1e-9)
	assert.True(t, graded.Passed)
	assert.True(t, graded.Completed)
	assert.NotEmpty(t, recommendation)
	assert.Equal(t, recommendation, graded.RecommendedAction)
}

func TestSubmitQuiz_MissingAnswersCountIncorrect(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	attempt := createGradedAttempt(t, db, 1)

	graded, _, err := SubmitQuiz(db, attempt.ID, 1, map[uint]int{
		attempt.Questions[0].ID: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, graded.CorrectAnswers)
	assert.InDelta(t, 25.0, graded.Score, 1e-9)
	assert.False(t, graded.Passed)
}

func TestSubmitQuiz_PassExactlyAtThreshold(t *testing.T) {
	config.AppConfig = testConfig()
	config.AppConfig.PassingScore = 75
	db := setupTestDB(t)

	attempt := createGradedAttempt(t, db, 1)

	graded, _, err := SubmitQuiz(db, attempt.ID, 1, map[uint]int{
		attempt.Questions[0].ID: 0,
		attempt.Questions[1].ID: 1,
		attempt.Questions[2].ID: 2,
	})
	require.NoError(t, err)

	assert.InDelta(t, 75.0, graded.Score, 1e-9)
	assert.True(t, graded.Passed, "score equal to the passing threshold passes")
}

func TestSubmitQuiz_RejectsResubmission(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	attempt := createGradedAttempt(t, db, 1)
	answers := map[uint]int{attempt.Questions[0].ID: 0}

	_, _, err := SubmitQuiz(db, attempt.ID, 1, answers)
	require.NoError(t, err)

	_, _, err = SubmitQuiz(db, attempt.ID, 1, answers)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitQuiz_RejectsForeignAttempt(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	attempt := createGradedAttempt(t, db, 1)

	_, _, err := SubmitQuiz(db, attempt.ID, 2, map[uint]int{})
	assert.ErrorIs(t, err, ErrNotAttemptOwner)
}
