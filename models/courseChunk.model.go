package models

import "gorm.io/gorm"

// CourseChunk is a stored contiguous slice of a course corpus, indexed for retrieval.
// The chunk set for a course is fully replaced on every re-index.
type CourseChunk struct {
	gorm.Model
	CourseID      uint   `json:"course_id" gorm:"index;not null"`
	ChunkIndex    int    `json:"chunk_index" gorm:"not null"`
	Content       string `json:"content" gorm:"type:text;not null"`
	StartPosition int    `json:"start_position"`
	EndPosition   int    `json:"end_position"` // invariant: EndPosition > StartPosition
	Fingerprint   string `json:"fingerprint"`  // lexical digest, stand-in for an embedding vector
}
