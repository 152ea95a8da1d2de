package rag

import (
	"eduquiz/config"
	"eduquiz/models"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		ChunkSize:      500,
		ChunkOverlap:   100,
		ChunkMaxSingle: 1000,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Course{}, &models.CourseFile{}, &models.CourseChunk{}))
	return db
}

func TestChunkText_MultiMode(t *testing.T) {
	config.AppConfig = testConfig()

	text := strings.Repeat("a", 1200)
	spans := chunkText(text)

	// step = 500 - 100 = 400: starts at 0, 400, 800
	require.Len(t, spans, 3)

	assert.Equal(t, 0, spans[0].start)
	assert.Equal(t, 500, spans[0].end)
	assert.Equal(t, 400, spans[1].start)
	assert.Equal(t, 900, spans[1].end)
	assert.Equal(t, 800, spans[2].start)
	assert.Equal(t, 1200, spans[2].end)

	for _, span := range spans {
		assert.Greater(t, span.end, span.start)
		assert.Equal(t, span.content, text[span.start:span.end])
	}

	// Consecutive chunks share the configured overlap
	assert.Equal(t, spans[0].content[400:], spans[1].content[:100])
}

func TestChunkText_SingleMode(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSingleMode = true
	config.AppConfig = cfg

	text := strings.Repeat("b", 1500)
	spans := chunkText(text)

	require.Len(t, spans, 1)
	assert.Equal(t, 1000, len(spans[0].content))
	assert.Equal(t, 0, spans[0].start)
	assert.Equal(t, 1000, spans[0].end)
}

func TestChunkText_MultiByteRuneBoundaries(t *testing.T) {
	config.AppConfig = testConfig()

	// One single-byte rune followed by 600 two-byte runes: every rune after
	// the first starts on an odd offset, so the even raw boundaries 400, 500,
	// 800, ... all land mid-rune
	text := "a" + strings.Repeat("é", 600)
	spans := chunkText(text)

	require.NotEmpty(t, spans)
	for i, span := range spans {
		assert.True(t, utf8.ValidString(span.content), "chunk %d contains invalid UTF-8", i)
		assert.Equal(t, text[span.start:span.end], span.content)
	}
}

func TestChunkText_SingleModeCapRuneSafe(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSingleMode = true
	cfg.ChunkMaxSingle = 1000
	config.AppConfig = cfg

	// The 1000-byte cap falls in the middle of a two-byte rune
	text := "a" + strings.Repeat("é", 600)
	spans := chunkText(text)

	require.Len(t, spans, 1)
	assert.True(t, utf8.ValidString(spans[0].content))
	assert.LessOrEqual(t, len(spans[0].content), 1000)
}

func TestChunkText_Empty(t *testing.T) {
	config.AppConfig = testConfig()

	assert.Empty(t, chunkText(""))
	assert.Empty(t, chunkText("   \n  "))
}

func TestChunkText_ShortText(t *testing.T) {
	config.AppConfig = testConfig()

	spans := chunkText("un contenu bien plus court que la taille de chunk")
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].start)
}

func TestIndexCourse_ReplacesPreviousChunks(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	course := &models.Course{Title: "SQL", Content: "v1"}
	require.NoError(t, db.Create(course).Error)

	require.NoError(t, IndexCourse(db, course, strings.Repeat("x", 1200)))

	var count int64
	db.Model(&models.CourseChunk{}).Where("course_id = ?", course.ID).Count(&count)
	assert.Equal(t, int64(3), count)

	// Re-index with shorter content: the old chunk set is fully replaced
	require.NoError(t, IndexCourse(db, course, strings.Repeat("y", 300)))

	var chunks []models.CourseChunk
	db.Where("course_id = ?", course.ID).Order("chunk_index asc").Find(&chunks)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Contains(t, chunks[0].Content, "y")
	assert.NotEmpty(t, chunks[0].Fingerprint)
}

func TestDeleteIndex(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	course := &models.Course{Title: "Réseaux"}
	require.NoError(t, db.Create(course).Error)
	require.NoError(t, IndexCourse(db, course, strings.Repeat("z", 600)))

	require.NoError(t, DeleteIndex(db, course.ID))

	var count int64
	db.Model(&models.CourseChunk{}).Where("course_id = ?", course.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRetrieveRelevantChunks_RankingAndTies(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	course := &models.Course{Title: "BD"}
	require.NoError(t, db.Create(course).Error)

	chunks := []models.CourseChunk{
		{CourseID: course.ID, ChunkIndex: 0, Content: "généralités sur les ordinateurs", StartPosition: 0, EndPosition: 10},
		{CourseID: course.ID, ChunkIndex: 1, Content: "la clé primaire identifie chaque ligne", StartPosition: 10, EndPosition: 20},
		{CourseID: course.ID, ChunkIndex: 2, Content: "une clé étrangère référence une clé primaire", StartPosition: 20, EndPosition: 30},
	}
	require.NoError(t, db.Create(&chunks).Error)

	results := RetrieveRelevantChunks(db, course.ID, "clé primaire", 2)
	require.Len(t, results, 2)

	// Both matching chunks score 1.0; the tie breaks on ascending chunk index
	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.Equal(t, 2, results[1].ChunkIndex)
}

// containsSimilarity scores 1.0 when the chunk contains the query verbatim
type containsSimilarity struct{}

func (containsSimilarity) Score(text, query string) float64 {
	if strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
		return 1.0
	}
	return 0.0
}

func TestSetSimilarity_ReplacesScoringBackend(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	SetSimilarity(containsSimilarity{})
	defer SetSimilarity(BagOfWords{})

	course := &models.Course{Title: "SQL"}
	require.NoError(t, db.Create(course).Error)

	chunks := []models.CourseChunk{
		{CourseID: course.ID, ChunkIndex: 0, Content: "primaire clé", StartPosition: 0, EndPosition: 10},
		{CourseID: course.ID, ChunkIndex: 1, Content: "la clé primaire de la table", StartPosition: 10, EndPosition: 20},
	}
	require.NoError(t, db.Create(&chunks).Error)

	// Bag-of-words scores both 1.0 and the tie would rank chunk 0 first; the
	// substring backend ranks the exact-phrase chunk ahead
	results := RetrieveRelevantChunks(db, course.ID, "clé primaire", 2)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.Equal(t, 0, results[1].ChunkIndex)
}

func TestRetrieveRelevantChunks_TopKClamped(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	course := &models.Course{Title: "OS"}
	require.NoError(t, db.Create(course).Error)
	require.NoError(t, db.Create(&models.CourseChunk{
		CourseID: course.ID, ChunkIndex: 0, Content: "ordonnancement des processus", StartPosition: 0, EndPosition: 10,
	}).Error)

	assert.Len(t, RetrieveRelevantChunks(db, course.ID, "processus", 10), 1)
	assert.Empty(t, RetrieveRelevantChunks(db, course.ID, "processus", 0))
}

func TestFullCourseContext_SectionOrder(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	course := &models.Course{
		Title:       "Systèmes",
		Description: "Introduction aux systèmes",
		Content:     "Le noyau gère les ressources",
	}
	require.NoError(t, db.Create(course).Error)

	corpus := FullCourseContext(db, course)

	titleIdx := strings.Index(corpus, "=== COURSE TITLE ===")
	descIdx := strings.Index(corpus, "=== DESCRIPTION ===")
	contentIdx := strings.Index(corpus, "=== MAIN CONTENT ===")

	require.NotEqual(t, -1, titleIdx)
	require.NotEqual(t, -1, descIdx)
	require.NotEqual(t, -1, contentIdx)
	assert.Less(t, titleIdx, descIdx)
	assert.Less(t, descIdx, contentIdx)
	assert.Contains(t, corpus, "Le noyau gère les ressources")
}

func TestCourseContext_JoinsInOrder(t *testing.T) {
	config.AppConfig = testConfig()
	db := setupTestDB(t)

	course := &models.Course{Title: "Archi"}
	require.NoError(t, db.Create(course).Error)
	require.NoError(t, db.Create(&[]models.CourseChunk{
		{CourseID: course.ID, ChunkIndex: 0, Content: "premier", StartPosition: 0, EndPosition: 7},
		{CourseID: course.ID, ChunkIndex: 1, Content: "deuxième", StartPosition: 7, EndPosition: 15},
		{CourseID: course.ID, ChunkIndex: 2, Content: "troisième", StartPosition: 15, EndPosition: 24},
	}).Error)

	ctx := CourseContext(db, course.ID, 2)
	assert.Equal(t, "premier\n\ndeuxième", ctx)
}
