package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Evaluation is an instructor-authored assessment for a course
type Evaluation struct {
	gorm.Model
	CourseID     uint                 `json:"course_id" gorm:"index;not null"`
	CreatorID    uint                 `json:"creator_id" gorm:"index"`
	Title        string               `json:"title" gorm:"not null"`
	Description  string               `json:"description" gorm:"type:text"`
	PassingScore float64              `json:"passing_score" gorm:"default:70"` // percent required to pass
	Duration     int                  `json:"duration" gorm:"default:30"`      // minutes
	Active       bool                 `json:"active" gorm:"default:true"`
	StartDate    *time.Time           `json:"start_date"`
	EndDate      *time.Time           `json:"end_date"`
	IsDeleted    bool                 `gorm:"default:false"`
	Questions    []EvaluationQuestion `json:"questions" gorm:"foreignKey:EvaluationID"`
}

// EvaluationQuestion is an authored multiple-choice question
type EvaluationQuestion struct {
	gorm.Model
	EvaluationID       uint           `json:"evaluation_id" gorm:"index;not null"`
	QuestionOrder      int            `json:"question_order" gorm:"default:1"`
	QuestionText       string         `json:"question_text" gorm:"type:text;not null"`
	Options            datatypes.JSON `json:"options"`
	CorrectAnswerIndex int            `json:"correct_answer_index"`
	Points             int            `json:"points" gorm:"default:1"`
	Explanation        string         `json:"explanation" gorm:"type:text"`
	IsDeleted          bool           `gorm:"default:false"`
}

// EvaluationAttempt is one sitting of an evaluation by a student
type EvaluationAttempt struct {
	gorm.Model
	EvaluationID   uint               `json:"evaluation_id" gorm:"index;not null"`
	StudentID      uint               `json:"student_id" gorm:"index;not null"`
	StartedAt      time.Time          `json:"started_at"`
	CompletedAt    *time.Time         `json:"completed_at"`
	TotalQuestions int                `json:"total_questions"`
	CorrectAnswers int                `json:"correct_answers" gorm:"default:0"`
	Score          float64            `json:"score" gorm:"default:0"`
	Passed         bool               `json:"passed" gorm:"default:false"`
	Completed      bool               `json:"completed" gorm:"default:false"`
	Answers        []EvaluationAnswer `json:"answers" gorm:"foreignKey:AttemptID"`
}

// EvaluationAnswer records the answer given for one question of an attempt
type EvaluationAnswer struct {
	gorm.Model
	AttemptID           uint `json:"attempt_id" gorm:"index;not null"`
	QuestionID          uint `json:"question_id" gorm:"index;not null"`
	QuestionOrder       int  `json:"question_order"`
	SelectedAnswerIndex *int `json:"selected_answer_index"`
	Correct             bool `json:"correct" gorm:"default:false"`
}
