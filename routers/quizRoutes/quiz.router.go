package quizRoutes

import (
	controllers "eduquiz/controllers/quiz"
	"eduquiz/middleware"
	validators "eduquiz/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// SetupQuizRoutes sets up quiz generation, submission and retrieval routes.
// Generation, history and context retrieval require enrollment in the course.
func SetupQuizRoutes(app *fiber.App) {
	quizGroup := app.Group("/quiz", middleware.JWTMiddleware)

	quizGroup.Post("/course/:id/generate", middleware.CheckEnrollment("id"), validators.GenerateQuiz(), controllers.GenerateQuiz)
	quizGroup.Get("/course/:id/history", middleware.CheckEnrollment("id"), controllers.QuizHistory)
	quizGroup.Post("/course/:id/context", middleware.CheckEnrollment("id"), validators.RetrieveContext(), controllers.RetrieveContext)

	quizGroup.Get("/attempt/:attemptId", controllers.GetQuiz)
	quizGroup.Post("/attempt/:attemptId/submit", validators.SubmitQuiz(), controllers.SubmitQuiz)
}
