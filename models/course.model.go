package models

import "gorm.io/gorm"

// Course represents a learning course with its raw text content
type Course struct {
	gorm.Model
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`
	Content     string `json:"content" gorm:"type:text"` // main course material used for quiz generation
	VideoLinks  string `json:"video_links" gorm:"type:text"` // newline separated links
	CreatorID   uint   `json:"creator_id" gorm:"index"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsIndexed   bool   `json:"is_indexed" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}

// CourseFile represents a file attached to a course (source material for quiz generation)
type CourseFile struct {
	gorm.Model
	CourseID         uint   `json:"course_id" gorm:"index;not null"`
	OriginalFilename string `json:"original_filename"`
	StoredFilename   string `json:"stored_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	StoragePath      string `json:"storage_path"`
	IsDeleted        bool   `gorm:"default:false"`
}

// Enrollment links a student to a course
type Enrollment struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"index;not null;uniqueIndex:idx_user_course"`
	CourseID  uint `json:"course_id" gorm:"index;not null;uniqueIndex:idx_user_course"`
	Progress  int  `json:"progress" gorm:"default:0"` // percent of passed evaluations
	IsDeleted bool `gorm:"default:false"`
}
