package evaluationRoutes

import (
	controllers "eduquiz/controllers/evaluation"
	"eduquiz/middleware"
	"eduquiz/models"

	"github.com/gofiber/fiber/v2"
)

// SetupEvaluationRoutes sets up formal evaluation routes for admins and students
func SetupEvaluationRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/evaluation", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin))

	adminGroup.Post("/create", controllers.CreateEvaluation)
	adminGroup.Patch("/:id", controllers.UpdateEvaluation)
	adminGroup.Post("/:id/question", controllers.AddQuestion)

	evalGroup := app.Group("/evaluation", middleware.JWTMiddleware)

	evalGroup.Get("/course/:id/list", middleware.CheckEnrollment("id"), controllers.ListAvailable)
	evalGroup.Post("/:id/start", controllers.StartAttempt)
	evalGroup.Post("/attempt/:attemptId/submit", controllers.SubmitAttempt)
	evalGroup.Get("/results", controllers.Results)
}
