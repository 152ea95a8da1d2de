package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Difficulty levels for generated quizzes
const (
	DifficultyBeginner     = "BEGINNER"
	DifficultyIntermediate = "INTERMEDIATE"
	DifficultyAdvanced     = "ADVANCED"
)

// QuizAttempt represents one generated quiz taken by a student.
// It is created at generation time and mutated exactly once on submission.
type QuizAttempt struct {
	gorm.Model
	StudentID         uint           `json:"student_id" gorm:"index;not null"`
	CourseID          uint           `json:"course_id" gorm:"index;not null"`
	Difficulty        string         `json:"difficulty" gorm:"default:'BEGINNER'"`
	TotalQuestions    int            `json:"total_questions"`
	CorrectAnswers    int            `json:"correct_answers" gorm:"default:0"`
	Score             float64        `json:"score" gorm:"default:0"`
	Passed            bool           `json:"passed" gorm:"default:false"`
	Completed         bool           `json:"completed" gorm:"default:false"`
	AgentDecision     string         `json:"agent_decision" gorm:"type:text"` // rationale recorded by the adaptive agent
	RecommendedAction string         `json:"recommended_action" gorm:"type:text"`
	Questions         []QuizQuestion `json:"questions" gorm:"foreignKey:QuizAttemptID"`
}

// QuizQuestion is a single generated multiple-choice question inside an attempt
type QuizQuestion struct {
	gorm.Model
	QuizAttemptID      uint           `json:"quiz_attempt_id" gorm:"index;not null"`
	QuestionText       string         `json:"question_text" gorm:"type:text;not null"`
	Options            datatypes.JSON `json:"options"` // exactly 4 distinct non-empty strings
	CorrectAnswerIndex int            `json:"correct_answer_index"`
	StudentAnswerIndex *int           `json:"student_answer_index"`
	Explanation        string         `json:"explanation" gorm:"type:text"`
	Category           string         `json:"category"` // definition, concept-context, comprehension, application, analysis
	Correct            bool           `json:"correct" gorm:"default:false"`
}
