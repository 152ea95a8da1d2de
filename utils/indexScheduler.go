package utils

import (
	"eduquiz/config"
	"eduquiz/database"
	"eduquiz/models"
	"eduquiz/services/rag"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[INDEX-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// processStaleCourses re-indexes published courses whose index was
// invalidated by content edits or attachment changes
func processStaleCourses() {
	db := database.Database.Db

	var courses []models.Course
	if err := db.Where("is_published = ? AND is_indexed = ? AND is_deleted = ?", true, false, false).
		Find(&courses).Error; err != nil {
		logScheduler("Error fetching stale courses: " + err.Error())
		return
	}

	if len(courses) == 0 {
		return
	}

	logScheduler("Re-indexing stale courses")
	for i := range courses {
		course := &courses[i]

		content := rag.FullCourseContext(db, course)
		if err := rag.IndexCourse(db, course, content); err != nil {
			logScheduler("Error re-indexing course " + course.Title + ": " + err.Error())
			continue
		}

		course.IsIndexed = true
		if err := db.Save(course).Error; err != nil {
			logScheduler("Error saving course " + course.Title + ": " + err.Error())
		}
	}
}

// InitializeIndexScheduler starts the periodic re-index job. The schedule
// comes from configuration and defaults to every 30 minutes.
func InitializeIndexScheduler() *cron.Cron {
	logScheduler("Initializing index scheduler...")

	c := cron.New()

	if _, err := c.AddFunc(config.AppConfig.ReindexCron, processStaleCourses); err != nil {
		logScheduler("Invalid re-index schedule, falling back to @every 30m: " + err.Error())
		c.AddFunc("@every 30m", processStaleCourses)
	}

	c.Start()

	logScheduler("Index scheduler initialized successfully")
	return c
}
