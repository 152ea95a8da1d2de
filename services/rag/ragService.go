package rag

import (
	"eduquiz/config"
	"eduquiz/models"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"gorm.io/gorm"
)

// Per-course locks: a re-index (full delete + rewrite) must be exclusive with
// concurrent retrieval reads for the same course.
var courseLocks sync.Map // map[uint]*sync.RWMutex

func courseLock(courseID uint) *sync.RWMutex {
	lock, _ := courseLocks.LoadOrStore(courseID, &sync.RWMutex{})
	return lock.(*sync.RWMutex)
}

// similarity scores chunks during retrieval. Swappable for a real vector backend.
var similarity Similarity = BagOfWords{}

// SetSimilarity replaces the chunk scoring backend
func SetSimilarity(s Similarity) {
	similarity = s
}

// textExtensions are attachment extensions read directly as UTF-8
var textExtensions = []string{
	".txt", ".md", ".json", ".xml", ".html",
	".java", ".py", ".js", ".css", ".sql",
}

// FullCourseContext assembles the complete corpus for a course: title,
// description, main content, previously indexed chunks, then attachment text
// in upload order. Unreadable attachments are skipped, never fatal.
func FullCourseContext(db *gorm.DB, course *models.Course) string {
	var fullContext strings.Builder

	fullContext.WriteString("=== COURSE TITLE ===\n")
	fullContext.WriteString(course.Title)
	fullContext.WriteString("\n\n")

	if course.Description != "" {
		fullContext.WriteString("=== DESCRIPTION ===\n")
		fullContext.WriteString(course.Description)
		fullContext.WriteString("\n\n")
	}

	if course.Content != "" {
		fullContext.WriteString("=== MAIN CONTENT ===\n")
		fullContext.WriteString(course.Content)
		fullContext.WriteString("\n\n")
	}

	var chunks []models.CourseChunk
	db.Where("course_id = ?", course.ID).Order("chunk_index asc").Find(&chunks)
	if len(chunks) > 0 {
		fullContext.WriteString("=== INDEXED CONTENT ===\n")
		for _, chunk := range chunks {
			fullContext.WriteString(chunk.Content)
			fullContext.WriteString("\n")
		}
		fullContext.WriteString("\n")
	}

	var files []models.CourseFile
	db.Where("course_id = ? AND is_deleted = false", course.ID).Order("created_at asc").Find(&files)
	if len(files) > 0 {
		fullContext.WriteString("=== ATTACHED FILES ===\n")
		for _, file := range files {
			fileContent := ExtractFileContent(&file)
			if fileContent != "" {
				fullContext.WriteString("--- " + file.OriginalFilename + " ---\n")
				fullContext.WriteString(fileContent)
				fullContext.WriteString("\n\n")
			}
		}
	}

	result := fullContext.String()
	log.Printf("Full course context assembled: %d characters from course '%s'", len(result), course.Title)

	return result
}

// ExtractFileContent returns the readable text of an attachment. Text files
// are read directly, PDFs go through the Tika extraction service, anything
// else (or any read failure) yields an empty string and a log line.
func ExtractFileContent(file *models.CourseFile) string {
	if file == nil || file.StoragePath == "" {
		return ""
	}

	filename := strings.ToLower(file.OriginalFilename)

	if isTextFile(file.ContentType, filename) {
		data, err := os.ReadFile(file.StoragePath)
		if err != nil {
			log.Printf("Could not read text file %s: %v", file.OriginalFilename, err)
			return ""
		}
		return string(data)
	}

	if strings.HasSuffix(filename, ".pdf") || strings.Contains(file.ContentType, "pdf") {
		data, err := os.ReadFile(file.StoragePath)
		if err != nil {
			log.Printf("Could not read PDF file %s: %v", file.OriginalFilename, err)
			return ""
		}
		text, err := ExtractPDFText(data)
		if err != nil {
			log.Printf("PDF extraction failed for %s: %v", file.OriginalFilename, err)
			return ""
		}
		return text
	}

	log.Printf("Skipping unsupported attachment type %s (%s)", file.OriginalFilename, file.ContentType)
	return ""
}

// isTextFile checks whether a file can be read as plain text
func isTextFile(contentType, filename string) bool {
	if contentType != "" {
		if strings.HasPrefix(contentType, "text/") ||
			strings.Contains(contentType, "json") ||
			strings.Contains(contentType, "xml") ||
			strings.Contains(contentType, "javascript") {
			return true
		}
	}

	for _, ext := range textExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}

	return false
}

// chunkSpan is one slice of the corpus with its offsets
type chunkSpan struct {
	content string
	start   int
	end     int
}

// snapToRuneStart moves a byte offset left until it lands on a rune boundary
func snapToRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// chunkText splits a corpus according to the configured chunking mode.
// Single mode keeps the original one-chunk behavior with a hard cap; multi
// mode produces overlapping chunks of the target size. Boundaries never cut
// a multi-byte rune.
func chunkText(text string) []chunkSpan {
	var spans []chunkSpan
	if text == "" {
		return spans
	}

	cfg := config.AppConfig

	if cfg.ChunkSingleMode {
		capped := text
		if len(capped) > cfg.ChunkMaxSingle {
			capped = capped[:snapToRuneStart(capped, cfg.ChunkMaxSingle)]
		}
		return []chunkSpan{{content: capped, start: 0, end: len(capped)}}
	}

	step := cfg.ChunkSize - cfg.ChunkOverlap
	if step <= 0 {
		step = cfg.ChunkSize
	}

	for start := 0; start < len(text); start += step {
		end := start + cfg.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunkStart := snapToRuneStart(text, start)
		chunkEnd := snapToRuneStart(text, end)
		if chunkEnd > chunkStart && strings.TrimSpace(text[chunkStart:chunkEnd]) != "" {
			spans = append(spans, chunkSpan{content: text[chunkStart:chunkEnd], start: chunkStart, end: chunkEnd})
		}
		if end == len(text) {
			break
		}
	}

	return spans
}

// IndexCourse replaces the chunk set for a course with a fresh split of the
// aggregated content. The delete and rewrite happen in one transaction, and
// the per-course lock keeps concurrent retrieval from observing a partially
// replaced chunk set.
func IndexCourse(db *gorm.DB, course *models.Course, aggregatedContent string) error {
	lock := courseLock(course.ID)
	lock.Lock()
	defer lock.Unlock()

	log.Printf("Starting indexation for course: %s", course.Title)

	spans := chunkText(aggregatedContent)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("course_id = ?", course.ID).Delete(&models.CourseChunk{}).Error; err != nil {
			return fmt.Errorf("delete old chunks: %w", err)
		}

		for i, span := range spans {
			chunk := models.CourseChunk{
				CourseID:      course.ID,
				ChunkIndex:    i,
				Content:       span.content,
				StartPosition: span.start,
				EndPosition:   span.end,
				Fingerprint:   Fingerprint(span.content),
			}
			if err := tx.Create(&chunk).Error; err != nil {
				return fmt.Errorf("create chunk %d: %w", i, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Indexed %d chunks for course: %s", len(spans), course.Title)
	return nil
}

// DeleteIndex removes all chunks for a course
func DeleteIndex(db *gorm.DB, courseID uint) error {
	lock := courseLock(courseID)
	lock.Lock()
	defer lock.Unlock()

	return db.Unscoped().Where("course_id = ?", courseID).Delete(&models.CourseChunk{}).Error
}

// scoredChunk pairs a chunk with its retrieval score
type scoredChunk struct {
	chunk models.CourseChunk
	score float64
}

// RetrieveRelevantChunks returns the topK chunks of a course ranked by
// lexical-overlap score, ties broken by ascending chunk index.
func RetrieveRelevantChunks(db *gorm.DB, courseID uint, query string, topK int) []models.CourseChunk {
	lock := courseLock(courseID)
	lock.RLock()
	defer lock.RUnlock()

	var allChunks []models.CourseChunk
	db.Where("course_id = ?", courseID).Order("chunk_index asc").Find(&allChunks)

	scored := make([]scoredChunk, 0, len(allChunks))
	for _, chunk := range allChunks {
		scored = append(scored, scoredChunk{chunk: chunk, score: similarity.Score(chunk.Content, query)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].chunk.ChunkIndex < scored[j].chunk.ChunkIndex
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	if topK < 0 {
		topK = 0
	}

	result := make([]models.CourseChunk, 0, topK)
	for _, sc := range scored[:topK] {
		result = append(result, sc.chunk)
	}

	return result
}

// CourseContext joins the first maxChunks indexed chunks of a course,
// in chunk order, for use as generation context.
func CourseContext(db *gorm.DB, courseID uint, maxChunks int) string {
	lock := courseLock(courseID)
	lock.RLock()
	defer lock.RUnlock()

	var chunks []models.CourseChunk
	db.Where("course_id = ?", courseID).Order("chunk_index asc").Limit(maxChunks).Find(&chunks)

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}

	return strings.Join(parts, "\n\n")
}
