package quizController

import (
	"eduquiz/database"
	"eduquiz/middleware"
	"eduquiz/models"
	"eduquiz/services/agent"
	"eduquiz/services/rag"
	"eduquiz/utils"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// questionView is the student-facing shape of a quiz question. The correct
// answer index and explanation are withheld until the attempt is completed.
type questionView struct {
	ID                 uint     `json:"id"`
	QuestionText       string   `json:"questionText"`
	Options            []string `json:"options"`
	Category           string   `json:"category"`
	StudentAnswerIndex *int     `json:"studentAnswerIndex,omitempty"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
	Correct            *bool    `json:"correct,omitempty"`
}

func buildQuestionViews(attempt *models.QuizAttempt) []questionView {
	views := make([]questionView, 0, len(attempt.Questions))
	for i := range attempt.Questions {
		q := &attempt.Questions[i]

		var options []string
		if err := json.Unmarshal(q.Options, &options); err != nil {
			log.Printf("Error decoding options for question %d: %v", q.ID, err)
		}

		view := questionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      options,
			Category:     q.Category,
		}

		if attempt.Completed {
			view.StudentAnswerIndex = q.StudentAnswerIndex
			correctIdx := q.CorrectAnswerIndex
			view.CorrectAnswerIndex = &correctIdx
			view.Explanation = q.Explanation
			correct := q.Correct
			view.Correct = &correct
		}

		views = append(views, view)
	}
	return views
}

// GenerateQuiz creates a new quiz attempt for the enrolled student. Without a
// request body the adaptive agent picks the parameters; with difficulty and
// numQuestions set, the student's choice is used instead.
func GenerateQuiz(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	courseId, _ := c.Locals("courseID").(uint)

	db := database.Database.Db

	var student models.User
	if err := db.Where("id = ? AND is_deleted = ?", userId, false).First(&student).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var course models.Course
	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", courseId, true, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	reqData := new(struct {
		Difficulty   string `json:"difficulty"`
		NumQuestions int    `json:"numQuestions"`
	})
	// Body is optional; an empty body means adaptive mode
	_ = c.BodyParser(reqData)

	var attempt *models.QuizAttempt
	var err error
	if reqData.Difficulty != "" && reqData.NumQuestions > 0 {
		attempt, err = agent.GenerateCustomQuiz(db, &student, &course, reqData.Difficulty, reqData.NumQuestions)
	} else {
		attempt, err = agent.GenerateAdaptiveQuiz(db, &student, &course)
	}
	if err != nil {
		log.Printf("Error generating quiz: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz generated successfully.", fiber.Map{
		"attemptId":      attempt.ID,
		"difficulty":     attempt.Difficulty,
		"totalQuestions": attempt.TotalQuestions,
		"agentDecision":  attempt.AgentDecision,
		"questions":      buildQuestionViews(attempt),
	})
}

func GetQuiz(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)

	attemptId, err := c.ParamsInt("attemptId")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt id!", nil)
	}

	var attempt models.QuizAttempt
	if err := database.Database.Db.Preload("Questions").First(&attempt, attemptId).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz attempt not found!", nil)
	}

	if attempt.StudentID != userId {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This quiz attempt does not belong to you!", nil)
	}

	data := fiber.Map{
		"attemptId":      attempt.ID,
		"courseId":       attempt.CourseID,
		"difficulty":     attempt.Difficulty,
		"totalQuestions": attempt.TotalQuestions,
		"completed":      attempt.Completed,
		"questions":      buildQuestionViews(&attempt),
	}

	if attempt.Completed {
		data["score"] = attempt.Score
		data["correctAnswers"] = attempt.CorrectAnswers
		data["passed"] = attempt.Passed
		data["recommendedAction"] = attempt.RecommendedAction
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz attempt.", data)
}

// SubmitQuiz grades the attempt. Answers arrive as a map of question id to
// chosen option index; non-numeric values are dropped rather than rejected.
func SubmitQuiz(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)

	attemptId, err := c.ParamsInt("attemptId")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt id!", nil)
	}

	reqData := new(struct {
		Answers map[string]interface{} `json:"answers"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	answers := make(map[uint]int)
	for key, value := range reqData.Answers {
		questionID, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			answers[uint(questionID)] = int(v)
		case string:
			if idx, err := strconv.Atoi(v); err == nil {
				answers[uint(questionID)] = idx
			}
		}
	}

	attempt, recommendation, err := agent.SubmitQuiz(database.Database.Db, uint(attemptId), userId, answers)
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrAlreadySubmitted):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "This quiz has already been submitted!", nil)
		case errors.Is(err, agent.ErrNotAttemptOwner):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This quiz attempt does not belong to you!", nil)
		default:
			log.Printf("Error submitting quiz attempt %d: %v", attemptId, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit quiz!", nil)
		}
	}

	// Result email goes out in the background
	var student models.User
	if err := database.Database.Db.First(&student, userId).Error; err == nil {
		go utils.SendQuizResultEmail(student.Email, student.Name, attempt.Score, attempt.Passed, recommendation)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted successfully.", fiber.Map{
		"attemptId":         attempt.ID,
		"score":             attempt.Score,
		"correctAnswers":    attempt.CorrectAnswers,
		"totalQuestions":    attempt.TotalQuestions,
		"passed":            attempt.Passed,
		"recommendedAction": recommendation,
		"questions":         buildQuestionViews(attempt),
	})
}

func QuizHistory(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	courseId, _ := c.Locals("courseID").(uint)

	attempts := agent.LoadAttemptHistory(database.Database.Db, userId, courseId)

	history := make([]fiber.Map, 0, len(attempts))
	for _, a := range attempts {
		history = append(history, fiber.Map{
			"attemptId":      a.ID,
			"difficulty":     a.Difficulty,
			"score":          a.Score,
			"correctAnswers": a.CorrectAnswers,
			"totalQuestions": a.TotalQuestions,
			"passed":         a.Passed,
			"date":           a.CreatedAt,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz history.", history)
}

// RetrieveContext exposes lexical retrieval over the indexed course chunks
func RetrieveContext(c *fiber.Ctx) error {
	courseId, _ := c.Locals("courseID").(uint)

	reqData, ok := c.Locals("validatedRetrieve").(*struct {
		Query string `json:"query"`
		TopK  int    `json:"topK"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	chunks := rag.RetrieveRelevantChunks(database.Database.Db, courseId, reqData.Query, reqData.TopK)

	results := make([]fiber.Map, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, fiber.Map{
			"chunkIndex": chunk.ChunkIndex,
			"content":    chunk.Content,
			"start":      chunk.StartPosition,
			"end":        chunk.EndPosition,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Relevant course context.", results)
}
