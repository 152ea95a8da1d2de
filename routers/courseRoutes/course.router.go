package courseRoutes

import (
	controllers "eduquiz/controllers/course"
	"eduquiz/middleware"
	"eduquiz/models"
	validators "eduquiz/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up student-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Course listing and details
	courseGroup.Get("/list", middleware.JWTMiddleware, controllers.ListCourses)
	courseGroup.Get("/my", middleware.JWTMiddleware, controllers.MyCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetCourse)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, controllers.Enroll)
}

// SetupAdminCourseRoutes sets up admin course management routes
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin))

	adminGroup.Post("/create", validators.CreateCourse(), controllers.CreateCourse)
	adminGroup.Patch("/:id", controllers.UpdateCourse)
	adminGroup.Delete("/:id", controllers.DeleteCourse)
	adminGroup.Patch("/:id/publish", controllers.PublishCourse)

	// Indexing and attachments
	adminGroup.Post("/:id/index", controllers.IndexCourse)
	adminGroup.Post("/:id/file", controllers.UploadFile)
	adminGroup.Delete("/:id/file/:fileId", controllers.DeleteFile)

	// Reporting
	adminGroup.Get("/:id/attempts", controllers.CourseAttempts)
}
