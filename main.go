package main

import (
	"eduquiz/config"
	"eduquiz/database"
	authRoutes "eduquiz/routers/authRoutes"
	courseRoutes "eduquiz/routers/courseRoutes"
	evaluationRoutes "eduquiz/routers/evaluationRoutes"
	quizRoutes "eduquiz/routers/quizRoutes"
	"eduquiz/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve uploaded course attachments
	app.Static("/uploads", config.AppConfig.UploadDir)

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app)
	quizRoutes.SetupQuizRoutes(app)
	evaluationRoutes.SetupEvaluationRoutes(app)

	// Periodic re-index of stale published courses
	utils.InitializeIndexScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
