package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"igvalue/ig-value-estimator/internal/models"
	"igvalue/ig-value-estimator/internal/repositories"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

type fakeReply struct {
	text  string
	err   error
	block bool
}

type fakeProvider struct {
	name    string
	replies []fakeReply

	mu       sync.Mutex
	calls    int
	requests []VisionRequest
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	f.mu.Lock()
	reply := f.replies[min(f.calls, len(f.replies)-1)]
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if reply.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply.text, reply.err
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRetriever struct {
	query string
	err   error
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string) (string, error) {
	f.query = query
	return "--- 參考 1 ---\n美食類 1 萬粉絲貼文約 NT$3,000", f.err
}

type analyzerFixture struct {
	analyzer AnalyzerService
	analyses repositories.AnalysisRepository
	sink     ResponseSink
	id       uuid.UUID
}

func newAnalyzerFixture(t *testing.T, retriever ReferenceRetriever, providers ...VisionProvider) analyzerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Upload{}, &models.Analysis{}))

	uploads := repositories.NewUploadRepository(db)
	analyses := repositories.NewAnalysisRepository(db)

	dir := t.TempDir()
	profilePath := filepath.Join(dir, "profile.png")
	require.NoError(t, os.WriteFile(profilePath, pngBytes(t, 32, 64), 0o644))
	postPath := filepath.Join(dir, "post.png")
	require.NoError(t, os.WriteFile(postPath, pngBytes(t, 16, 16), 0o644))

	profile := &models.Upload{Kind: models.UploadKindProfile, FilePath: profilePath}
	post := &models.Upload{Kind: models.UploadKindPost, FilePath: postPath}
	require.NoError(t, uploads.Create(profile))
	require.NoError(t, uploads.Create(post))

	analysis := &models.Analysis{ProfileUploadID: &profile.ID, PostUploadIDs: []uuid.UUID{post.ID}, Niche: "美食"}
	require.NoError(t, analyses.Create(analysis))

	sink := NewMemorySink()
	analyzer := NewAnalyzerService(
		analyses,
		uploads,
		newTestPipeline(),
		providers,
		NewImageProcessor(1280, 72, zap.NewNop()),
		retriever,
		sink,
		AnalyzerOptions{Timeout: 50 * time.Millisecond, MaxRetries: 1, MaxTokens: 1024},
		zap.NewNop(),
	)

	return analyzerFixture{analyzer: analyzer, analyses: analyses, sink: sink, id: analysis.ID}
}

func TestAnalyzeJobCompletes(t *testing.T) {
	primary := &fakeProvider{name: "gemini", replies: []fakeReply{{text: sampleAnalysisText}}}
	retriever := &fakeRetriever{}
	f := newAnalyzerFixture(t, retriever, primary)

	require.NoError(t, f.analyzer.AnalyzeJob(context.Background(), f.id))

	stored, err := f.analyses.FindByID(f.id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, "testuser", stored.Username)
	assert.Equal(t, 1500, stored.Followers)
	assert.Equal(t, "這是一段測試短評。", stored.ShortReview)
	assert.Equal(t, "gemini", stored.Provider)
	assert.Equal(t, sampleAnalysisText, stored.RawResponse)

	require.Equal(t, 1, primary.Calls())
	req := primary.requests[0]
	assert.Len(t, req.Images, 2)
	assert.Contains(t, req.Prompt, "美食類 1 萬粉絲貼文約 NT$3,000")
	assert.Contains(t, retriever.query, "美食")

	last, err := f.sink.Last(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "gemini", last.Provider)
	assert.Equal(t, f.id.String(), last.AnalysisID)
}

func TestAnalyzeJobRetriesThenFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "gemini", replies: []fakeReply{{err: errors.New("503")}}}
	fallback := &fakeProvider{name: "openai", replies: []fakeReply{{text: sampleAnalysisText}}}
	f := newAnalyzerFixture(t, nil, primary, fallback)

	require.NoError(t, f.analyzer.AnalyzeJob(context.Background(), f.id))

	assert.Equal(t, 2, primary.Calls())
	assert.Equal(t, 1, fallback.Calls())

	stored, err := f.analyses.FindByID(f.id)
	require.NoError(t, err)
	assert.Equal(t, "openai", stored.Provider)
}

func TestAnalyzeJobTimeoutCountsAsFailure(t *testing.T) {
	primary := &fakeProvider{name: "gemini", replies: []fakeReply{{block: true}}}
	fallback := &fakeProvider{name: "openai", replies: []fakeReply{{text: sampleAnalysisText}}}
	f := newAnalyzerFixture(t, nil, primary, fallback)

	require.NoError(t, f.analyzer.AnalyzeJob(context.Background(), f.id))

	stored, err := f.analyses.FindByID(f.id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, "openai", stored.Provider)
}

func TestAnalyzeJobUsesOCRRetry(t *testing.T) {
	primary := &fakeProvider{name: "gemini", replies: []fakeReply{
		{text: "毒舌短評：濾鏡很美但數字看不清\n\n商業價值分析：生活風格帳號。"},
		{text: "```json\n{\"username\": \"ocr.user\", \"followers\": \"2.5萬\", \"following\": 300, \"posts\": 88}\n```"},
	}}
	f := newAnalyzerFixture(t, nil, primary)

	require.NoError(t, f.analyzer.AnalyzeJob(context.Background(), f.id))

	require.Equal(t, 2, primary.Calls())
	assert.Len(t, primary.requests[1].Images, 1)

	stored, err := f.analyses.FindByID(f.id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, "ocr.user", stored.Username)
	assert.Equal(t, 25000, stored.Followers)
	assert.Equal(t, ProfileSourceHint, stored.ProfileSource)
	assert.Equal(t, "濾鏡很美但數字看不清。", stored.ShortReview)
}

func TestAnalyzeJobAllProvidersDown(t *testing.T) {
	primary := &fakeProvider{name: "gemini", replies: []fakeReply{{err: errors.New("down")}}}
	fallback := &fakeProvider{name: "openai", replies: []fakeReply{{err: errors.New("down")}}}
	f := newAnalyzerFixture(t, nil, primary, fallback)

	err := f.analyzer.AnalyzeJob(context.Background(), f.id)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoExtractableData)

	stored, err := f.analyses.FindByID(f.id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorCode)
	assert.Equal(t, apperrors.CodeNoExtractableData, *stored.ErrorCode)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, apperrors.ReuploadHint, *stored.ErrorMessage)
	assert.Equal(t, DisabledText, stored.RawResponse)

	last, err := f.sink.Last(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Disabled)
	assert.Equal(t, purposeOCR, last.Purpose)
}

func TestAnalyzeJobSkipsClaimedJob(t *testing.T) {
	primary := &fakeProvider{name: "gemini", replies: []fakeReply{{text: sampleAnalysisText}}}
	f := newAnalyzerFixture(t, nil, primary)

	require.NoError(t, f.analyzer.AnalyzeJob(context.Background(), f.id))
	require.NoError(t, f.analyzer.AnalyzeJob(context.Background(), f.id))

	assert.Equal(t, 1, primary.Calls())
}

func TestAnalyzeText(t *testing.T) {
	f := newAnalyzerFixture(t, nil)

	report, err := f.analyzer.AnalyzeText(context.Background(), sampleAnalysisText)
	require.NoError(t, err)
	assert.Equal(t, "testuser", report.Profile.Username)

	_, err = f.analyzer.AnalyzeText(context.Background(), "")
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}
