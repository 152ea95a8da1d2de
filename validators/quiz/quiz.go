package quizValidator

import (
	"eduquiz/middleware"
	"eduquiz/models"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GenerateQuiz validator middleware. An empty body is valid and means
// adaptive mode; a custom request must be fully specified.
func GenerateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Difficulty   string `json:"difficulty"`
			NumQuestions int    `json:"numQuestions"`
		})
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}

		errors := make(map[string]string)

		if reqData.Difficulty != "" || reqData.NumQuestions != 0 {
			level := strings.ToUpper(strings.TrimSpace(reqData.Difficulty))
			if level != models.DifficultyBeginner && level != models.DifficultyIntermediate && level != models.DifficultyAdvanced {
				// Unknown levels fall back to BEGINNER downstream, only flag emptiness
				if level == "" {
					errors["difficulty"] = "Difficulty is required for a custom quiz!"
				}
			}
			if reqData.NumQuestions < 1 || reqData.NumQuestions > 20 {
				errors["numQuestions"] = "Number of questions must be between 1 and 20!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// SubmitQuiz validator middleware
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Answers map[string]interface{} `json:"answers"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Answers == nil {
			errors["answers"] = "Answers are required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// RetrieveContext validator middleware
func RetrieveContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Query string `json:"query"`
			TopK  int    `json:"topK"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(strings.TrimSpace(reqData.Query)) == 0 {
			errors["query"] = "Query is required!"
		}
		if reqData.TopK <= 0 {
			reqData.TopK = 3
		}
		if reqData.TopK > 20 {
			errors["topK"] = "topK must not exceed 20!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRetrieve", reqData)
		return c.Next()
	}
}
