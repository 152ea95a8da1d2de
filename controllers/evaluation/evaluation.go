package evaluationController

import (
	"eduquiz/database"
	"eduquiz/middleware"
	"eduquiz/models"
	"eduquiz/utils"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func CreateEvaluation(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := new(struct {
		CourseID     uint       `json:"courseId"`
		Title        string     `json:"title"`
		Description  string     `json:"description"`
		PassingScore float64    `json:"passingScore"`
		Duration     int        `json:"duration"`
		StartDate    *time.Time `json:"startDate"`
		EndDate      *time.Time `json:"endDate"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	if reqData.Title == "" || reqData.CourseID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Title and courseId are required!", nil)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	evaluation := models.Evaluation{
		CourseID:    course.ID,
		CreatorID:   userId,
		Title:       reqData.Title,
		Description: reqData.Description,
		StartDate:   reqData.StartDate,
		EndDate:     reqData.EndDate,
	}
	if reqData.PassingScore > 0 {
		evaluation.PassingScore = reqData.PassingScore
	}
	if reqData.Duration > 0 {
		evaluation.Duration = reqData.Duration
	}

	if err := database.Database.Db.Create(&evaluation).Error; err != nil {
		log.Printf("Error creating evaluation: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create evaluation!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Evaluation created successfully.", evaluation)
}

func AddQuestion(c *fiber.Ctx) error {
	evaluationId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid evaluation id!", nil)
	}

	var evaluation models.Evaluation
	if err := database.Database.Db.First(&evaluation, evaluationId).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Evaluation not found!", nil)
	}

	reqData := new(struct {
		QuestionText       string   `json:"questionText"`
		Options            []string `json:"options"`
		CorrectAnswerIndex int      `json:"correctAnswerIndex"`
		Points             int      `json:"points"`
		Explanation        string   `json:"explanation"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	if reqData.QuestionText == "" || len(reqData.Options) < 2 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Question text and at least two options are required!", nil)
	}
	if reqData.CorrectAnswerIndex < 0 || reqData.CorrectAnswerIndex >= len(reqData.Options) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Correct answer index is out of range!", nil)
	}

	optionsJSON, err := json.Marshal(reqData.Options)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to encode options!", nil)
	}

	var questionCount int64
	database.Database.Db.Model(&models.EvaluationQuestion{}).Where("evaluation_id = ?", evaluation.ID).Count(&questionCount)

	question := models.EvaluationQuestion{
		EvaluationID:       evaluation.ID,
		QuestionOrder:      int(questionCount) + 1,
		QuestionText:       reqData.QuestionText,
		Options:            optionsJSON,
		CorrectAnswerIndex: reqData.CorrectAnswerIndex,
		Points:             reqData.Points,
		Explanation:        reqData.Explanation,
	}
	if question.Points <= 0 {
		question.Points = 1
	}

	if err := database.Database.Db.Create(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added successfully.", question)
}

func UpdateEvaluation(c *fiber.Ctx) error {
	evaluationId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid evaluation id!", nil)
	}

	var evaluation models.Evaluation
	if err := database.Database.Db.First(&evaluation, evaluationId).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Evaluation not found!", nil)
	}

	reqData := new(struct {
		Title        *string    `json:"title"`
		Description  *string    `json:"description"`
		PassingScore *float64   `json:"passingScore"`
		Duration     *int       `json:"duration"`
		Active       *bool      `json:"active"`
		StartDate    *time.Time `json:"startDate"`
		EndDate      *time.Time `json:"endDate"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	if reqData.Title != nil {
		evaluation.Title = *reqData.Title
	}
	if reqData.Description != nil {
		evaluation.Description = *reqData.Description
	}
	if reqData.PassingScore != nil {
		evaluation.PassingScore = *reqData.PassingScore
	}
	if reqData.Duration != nil {
		evaluation.Duration = *reqData.Duration
	}
	if reqData.Active != nil {
		evaluation.Active = *reqData.Active
	}
	if reqData.StartDate != nil {
		evaluation.StartDate = reqData.StartDate
	}
	if reqData.EndDate != nil {
		evaluation.EndDate = reqData.EndDate
	}

	if err := database.Database.Db.Save(&evaluation).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update evaluation!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evaluation updated successfully.", evaluation)
}

// ListAvailable returns the active evaluations of a course that are inside
// their date window
func ListAvailable(c *fiber.Ctx) error {
	courseId, _ := c.Locals("courseID").(uint)

	var evaluations []models.Evaluation
	if err := database.Database.Db.Where("course_id = ? AND active = ?", courseId, true).Find(&evaluations).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch evaluations!", nil)
	}

	now := time.Now()
	available := make([]models.Evaluation, 0, len(evaluations))
	for _, e := range evaluations {
		if e.StartDate != nil && now.Before(*e.StartDate) {
			continue
		}
		if e.EndDate != nil && now.After(*e.EndDate) {
			continue
		}
		available = append(available, e)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Available evaluations.", available)
}

// studentEnrolled reports whether the student has an active enrollment in
// the evaluation's course
func studentEnrolled(db *gorm.DB, userID, courseID uint) bool {
	var enrollment models.Enrollment
	return db.Where("user_id = ? AND course_id = ? AND is_deleted = false",
		userID, courseID).First(&enrollment).Error == nil
}

// StartAttempt begins an evaluation attempt, resuming an open attempt if one exists
func StartAttempt(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)

	evaluationId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid evaluation id!", nil)
	}

	db := database.Database.Db

	var evaluation models.Evaluation
	if err := db.Preload("Questions").Where("id = ? AND active = ?", evaluationId, true).First(&evaluation).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Evaluation not found or inactive!", nil)
	}

	if !studentEnrolled(db, userId, evaluation.CourseID) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	now := time.Now()
	if evaluation.StartDate != nil && now.Before(*evaluation.StartDate) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Evaluation has not started yet!", nil)
	}
	if evaluation.EndDate != nil && now.After(*evaluation.EndDate) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Evaluation has ended!", nil)
	}

	// Resume an open attempt instead of creating a second one
	var attempt models.EvaluationAttempt
	result := db.Where("evaluation_id = ? AND student_id = ? AND completed = ?", evaluation.ID, userId, false).First(&attempt)
	if result.Error != nil {
		attempt = models.EvaluationAttempt{
			EvaluationID:   evaluation.ID,
			StudentID:      userId,
			StartedAt:      now,
			TotalQuestions: len(evaluation.Questions),
		}
		if err := db.Create(&attempt).Error; err != nil {
			log.Printf("Error creating evaluation attempt: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start evaluation!", nil)
		}
	}

	questions := make([]fiber.Map, 0, len(evaluation.Questions))
	for _, q := range evaluation.Questions {
		var options []string
		if err := json.Unmarshal(q.Options, &options); err != nil {
			log.Printf("Error decoding options for evaluation question %d: %v", q.ID, err)
		}
		questions = append(questions, fiber.Map{
			"id":           q.ID,
			"order":        q.QuestionOrder,
			"questionText": q.QuestionText,
			"options":      options,
			"points":       q.Points,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evaluation attempt started.", fiber.Map{
		"attemptId": attempt.ID,
		"title":     evaluation.Title,
		"duration":  evaluation.Duration,
		"startedAt": attempt.StartedAt,
		"questions": questions,
	})
}

// SubmitAttempt grades an evaluation attempt against its own passing score
func SubmitAttempt(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)

	attemptId, err := c.ParamsInt("attemptId")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt id!", nil)
	}

	db := database.Database.Db

	var attempt models.EvaluationAttempt
	if err := db.First(&attempt, attemptId).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attempt not found!", nil)
	}
	if attempt.StudentID != userId {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This attempt does not belong to you!", nil)
	}
	if attempt.Completed {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This attempt has already been submitted!", nil)
	}

	var evaluation models.Evaluation
	if err := db.Preload("Questions").First(&evaluation, attempt.EvaluationID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load evaluation!", nil)
	}

	if !studentEnrolled(db, userId, evaluation.CourseID) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	reqData := new(struct {
		Answers map[string]int `json:"answers"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	answers := make(map[uint]int)
	for key, idx := range reqData.Answers {
		questionID, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		answers[uint(questionID)] = idx
	}

	correctCount := 0
	answerRecords := make([]models.EvaluationAnswer, 0, len(evaluation.Questions))
	for _, q := range evaluation.Questions {
		record := models.EvaluationAnswer{
			AttemptID:     attempt.ID,
			QuestionID:    q.ID,
			QuestionOrder: q.QuestionOrder,
		}
		if idx, ok := answers[q.ID]; ok {
			selected := idx
			record.SelectedAnswerIndex = &selected
			record.Correct = idx == q.CorrectAnswerIndex
		}
		if record.Correct {
			correctCount++
		}
		answerRecords = append(answerRecords, record)
	}

	now := time.Now()
	attempt.TotalQuestions = len(evaluation.Questions)
	attempt.CorrectAnswers = correctCount
	if attempt.TotalQuestions > 0 {
		attempt.Score = float64(correctCount) * 100.0 / float64(attempt.TotalQuestions)
	}
	attempt.Passed = attempt.Score >= evaluation.PassingScore
	attempt.Completed = true
	attempt.CompletedAt = &now

	err = db.Transaction(func(tx *gorm.DB) error {
		if len(answerRecords) > 0 {
			if err := tx.Create(&answerRecords).Error; err != nil {
				return err
			}
		}
		return tx.Save(&attempt).Error
	})
	if err != nil {
		log.Printf("Error persisting evaluation attempt %d: %v", attempt.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit evaluation!", nil)
	}

	var student models.User
	if err := db.First(&student, userId).Error; err == nil {
		go utils.SendEvaluationResultEmail(student.Email, student.Name, evaluation.Title, attempt.Score, attempt.Passed)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evaluation submitted successfully.", fiber.Map{
		"attemptId":      attempt.ID,
		"score":          attempt.Score,
		"correctAnswers": attempt.CorrectAnswers,
		"totalQuestions": attempt.TotalQuestions,
		"passed":         attempt.Passed,
	})
}

// Results lists a student's completed evaluation attempts
func Results(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)

	var attempts []models.EvaluationAttempt
	if err := database.Database.Db.Where("student_id = ? AND completed = ?", userId, true).
		Order("created_at desc").
		Find(&attempts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch results!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Evaluation results.", attempts)
}
