package middleware

import (
	"eduquiz/database"
	"eduquiz/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole returns a middleware that checks the authenticated user's role
func RequireRole(requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  false,
				"message": "Unauthorized: User ID not found",
				"data":    nil,
			})
		}

		var user models.User
		err := database.Database.Db.Where("id = ? AND is_deleted = false", userID).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status":  false,
					"message": "User not found!",
					"data":    nil,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  false,
				"message": "Server error while checking permissions!",
				"data":    nil,
			})
		}

		if user.Role != requiredRole {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  false,
				"message": "You do not have permission to access this resource!",
				"data":    nil,
			})
		}

		return c.Next()
	}
}

// CheckEnrollment returns a middleware that verifies the authenticated user is
// enrolled in the course given by the :id route parameter. The enrollment row
// is stored in locals for the handler.
func CheckEnrollment(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  false,
				"message": "Unauthorized: User ID not found",
				"data":    nil,
			})
		}

		courseID, err := c.ParamsInt(param)
		if err != nil || courseID <= 0 {
			return JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
		}

		var enrollment models.Enrollment
		if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = false",
			userID, courseID).First(&enrollment).Error; err != nil {
			return JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
		}

		c.Locals("courseID", uint(courseID))
		return c.Next()
	}
}
