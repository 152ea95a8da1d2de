package courseController

import (
	"eduquiz/config"
	"eduquiz/database"
	"eduquiz/middleware"
	"eduquiz/models"
	"eduquiz/services/rag"
	"eduquiz/utils"
	"log"

	"github.com/gofiber/fiber/v2"
)

func CreateCourse(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCreateCourse").(*struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		VideoLinks  string `json:"videoLinks"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	newCourse := models.Course{
		Title:       reqData.Title,
		Description: reqData.Description,
		Content:     reqData.Content,
		VideoLinks:  reqData.VideoLinks,
		CreatorID:   userId,
	}

	if err := database.Database.Db.Create(&newCourse).Error; err != nil {
		log.Printf("Error creating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully.", newCourse)
}

func UpdateCourse(c *fiber.Ctx) error {
	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseId, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData := new(struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Content     *string `json:"content"`
		VideoLinks  *string `json:"videoLinks"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	contentChanged := false
	if reqData.Title != nil {
		course.Title = *reqData.Title
		contentChanged = true
	}
	if reqData.Description != nil {
		course.Description = *reqData.Description
		contentChanged = true
	}
	if reqData.Content != nil {
		course.Content = *reqData.Content
		contentChanged = true
	}
	if reqData.VideoLinks != nil {
		course.VideoLinks = *reqData.VideoLinks
	}

	// Edits invalidate the index until the course is re-indexed
	if contentChanged {
		course.IsIndexed = false
	}

	if err := database.Database.Db.Save(&course).Error; err != nil {
		log.Printf("Error updating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully.", course)
}

func ListCourses(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	var courses []models.Course
	query := database.Database.Db.Where("is_deleted = ?", false)

	// Students only see published courses
	if role != models.RoleAdmin {
		query = query.Where("is_published = ?", true)
	}

	if err := query.Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course list.", courses)
}

func GetCourse(c *fiber.Ctx) error {
	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseId, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	role, _ := c.Locals("role").(string)
	if role != models.RoleAdmin && !course.IsPublished {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var files []models.CourseFile
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).Find(&files)

	fileViews := make([]fiber.Map, 0, len(files))
	for _, f := range files {
		fileViews = append(fileViews, fiber.Map{
			"id":          f.ID,
			"filename":    f.OriginalFilename,
			"contentType": f.ContentType,
			"size":        f.Size,
			"url":         utils.GetFileURL(f.StoredFilename),
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details.", fiber.Map{
		"course": course,
		"files":  fileViews,
	})
}

func PublishCourse(c *fiber.Ctx) error {
	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseId, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData := new(struct {
		Published bool `json:"published"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	course.IsPublished = reqData.Published
	if err := database.Database.Db.Save(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course publication updated.", course)
}

func DeleteCourse(c *fiber.Ctx) error {
	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseId, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	course.IsDeleted = true
	course.IsPublished = false
	course.IsIndexed = false
	if err := database.Database.Db.Save(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	if err := rag.DeleteIndex(database.Database.Db, course.ID); err != nil {
		log.Printf("Error deleting index for course %d: %v", course.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully.", nil)
}

// IndexCourse aggregates the full course corpus and rebuilds its chunk index
func IndexCourse(c *fiber.Ctx) error {
	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseId, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	content := rag.FullCourseContext(db, &course)
	if err := rag.IndexCourse(db, &course, content); err != nil {
		log.Printf("Error indexing course %d: %v", course.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to index course!", nil)
	}

	course.IsIndexed = true
	if err := db.Save(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	var chunkCount int64
	db.Model(&models.CourseChunk{}).Where("course_id = ?", course.ID).Count(&chunkCount)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course indexed successfully.", fiber.Map{
		"courseId": course.ID,
		"chunks":   chunkCount,
	})
}

func UploadFile(c *fiber.Ctx) error {
	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseId, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "No file uploaded!", nil)
	}

	storedName, storagePath, err := utils.SaveUploadedFile(fileHeader, config.AppConfig.UploadDir)
	if err != nil {
		log.Printf("Error saving uploaded file: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save file!", nil)
	}

	courseFile := models.CourseFile{
		CourseID:         course.ID,
		OriginalFilename: fileHeader.Filename,
		StoredFilename:   storedName,
		ContentType:      fileHeader.Header.Get("Content-Type"),
		Size:             fileHeader.Size,
		StoragePath:      storagePath,
	}

	if err := database.Database.Db.Create(&courseFile).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save file record!", nil)
	}

	// New attachments invalidate the index until the course is re-indexed
	course.IsIndexed = false
	database.Database.Db.Save(&course)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "File uploaded successfully.", courseFile)
}

func DeleteFile(c *fiber.Ctx) error {
	fileId, err := c.ParamsInt("fileId")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid file id!", nil)
	}

	var courseFile models.CourseFile
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", fileId, false).First(&courseFile).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "File not found!", nil)
	}

	courseFile.IsDeleted = true
	if err := database.Database.Db.Save(&courseFile).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete file!", nil)
	}

	database.Database.Db.Model(&models.Course{}).Where("id = ?", courseFile.CourseID).Update("is_indexed", false)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "File deleted successfully.", nil)
}

func Enroll(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_published = ? AND is_deleted = ?", courseId, true, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	// Already enrolled is not an error
	var existing models.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userId, course.ID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Already enrolled.", existing)
	}

	enrollment := models.Enrollment{
		UserID:   userId,
		CourseID: course.ID,
	}
	if err := database.Database.Db.Create(&enrollment).Error; err != nil {
		log.Printf("Error creating enrollment: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully.", enrollment)
}

func MyCourses(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []models.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userId, false).Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	courseIds := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIds = append(courseIds, e.CourseID)
	}

	var courses []models.Course
	if len(courseIds) > 0 {
		database.Database.Db.Where("id IN ? AND is_deleted = ?", courseIds, false).Find(&courses)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled courses.", fiber.Map{
		"enrollments": enrollments,
		"courses":     courses,
	})
}

// CourseAttempts gives an admin the quiz attempt report for a course
func CourseAttempts(c *fiber.Ctx) error {
	courseId, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var attempts []models.QuizAttempt
	if err := database.Database.Db.Where("course_id = ? AND completed = ?", courseId, true).
		Order("created_at desc").
		Find(&attempts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempts!", nil)
	}

	var passedCount int
	var totalScore float64
	for _, a := range attempts {
		totalScore += a.Score
		if a.Passed {
			passedCount++
		}
	}

	stats := fiber.Map{
		"totalAttempts": len(attempts),
		"passed":        passedCount,
	}
	if len(attempts) > 0 {
		stats["averageScore"] = totalScore / float64(len(attempts))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course attempt report.", fiber.Map{
		"attempts": attempts,
		"stats":    stats,
	})
}
