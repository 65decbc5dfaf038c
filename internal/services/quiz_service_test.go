package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-engine/internal/cache"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

type quizFixture struct {
	quizzes   *MockQuizRepository
	results   *MockResultRepository
	cache     *MockCache
	publisher *events.MockEventPublisher
	service   QuizService
}

func newQuizFixture() *quizFixture {
	f := &quizFixture{
		quizzes:   &MockQuizRepository{},
		results:   &MockResultRepository{},
		cache:     &MockCache{},
		publisher: events.NewMockEventPublisher(discardLogger()),
	}
	f.service = NewQuizService(
		f.quizzes,
		f.results,
		cache.NewQuizCache(f.cache, time.Minute),
		f.publisher,
		validator.New(),
		discardLogger(),
	)
	return f
}

func TestQuizService_Create(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	quiz := sampleQuiz(nil)

	f.quizzes.On("Exists", ctx, mock.Anything, "quiz-1").Return(false, nil)
	f.quizzes.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.StoredQuiz) bool {
		return s.ID == "quiz-1" && s.QuestionCount == 2 && s.MaxScore == 15 && s.CreatedBy == "author"
	})).Return(nil)
	f.cache.On("Set", ctx, cache.QuizKey("quiz-1"), quiz, time.Minute).Return(nil)

	resp, err := f.service.Create(ctx, quiz, "author")
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", resp.ID)
	assert.Same(t, quiz, resp.Definition)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventQuizCreated, published[0].Type)

	f.quizzes.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestQuizService_CreateRejectsInvalidQuiz(t *testing.T) {
	f := newQuizFixture()
	quiz := sampleQuiz(nil)
	quiz.Questions[0].Body.(*models.MultipleChoiceBody).CorrectAnswerID = "z"

	_, err := f.service.Create(context.Background(), quiz, "author")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	f.quizzes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuizService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	f.quizzes.On("Exists", ctx, mock.Anything, "quiz-1").Return(true, nil)

	_, err := f.service.Create(ctx, sampleQuiz(nil), "author")
	assert.ErrorIs(t, err, ErrQuizExists)
	assert.True(t, IsConflict(err))
}

func TestQuizService_LoadReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	quiz := sampleQuiz(nil)
	stored, err := models.NewStoredQuiz(quiz, "author")
	require.NoError(t, err)

	f.cache.On("Get", ctx, cache.QuizKey("quiz-1"), mock.Anything).Return(cache.ErrCacheMiss, nil).Once()
	f.quizzes.On("GetByID", ctx, mock.Anything, "quiz-1").Return(stored, nil).Once()
	f.cache.On("Set", ctx, cache.QuizKey("quiz-1"), mock.Anything, time.Minute).Return(nil).Once()

	loaded, err := f.service.Load(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Basics", loaded.Title)
	require.Len(t, loaded.Questions, 2)

	raw, err := json.Marshal(quiz)
	require.NoError(t, err)
	f.cache.On("Get", ctx, cache.QuizKey("quiz-1"), mock.Anything).Return(nil, raw).Once()

	cached, err := f.service.Load(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, models.Hotspot, cached.Questions[1].Type())

	f.quizzes.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestQuizService_LoadNotFound(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	f.cache.On("Get", ctx, cache.QuizKey("missing"), mock.Anything).Return(cache.ErrCacheMiss, nil)
	f.quizzes.On("GetByID", ctx, mock.Anything, "missing").Return(nil, repositories.ErrNotFound)

	_, err := f.service.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrQuizNotFound)
	assert.True(t, IsNotFound(err))
}

func TestQuizService_UpdateStaleVersion(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	quiz := sampleQuiz(nil)
	current, err := models.NewStoredQuiz(quiz, "author")
	require.NoError(t, err)
	current.Version = 3

	f.quizzes.On("GetByID", ctx, mock.Anything, "quiz-1").Return(current, nil)
	f.quizzes.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.StoredQuiz) bool {
		return s.Version == 2
	})).Return(repositories.ErrStaleVersion)

	_, err = f.service.Update(ctx, "quiz-1", &UpdateQuizRequest{Quiz: quiz, Version: 2}, "author")
	assert.ErrorIs(t, err, ErrQuizVersionStale)
	f.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestQuizService_UpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	quiz := sampleQuiz(nil)
	current, err := models.NewStoredQuiz(quiz, "author")
	require.NoError(t, err)
	current.Version = 1

	f.quizzes.On("GetByID", ctx, mock.Anything, "quiz-1").Return(current, nil)
	f.quizzes.On("Update", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(2).(*models.StoredQuiz).Version++
	}).Return(nil)
	f.cache.On("Delete", ctx, cache.QuizKey("quiz-1")).Return(nil)

	updated := sampleQuiz(nil)
	updated.ID = ""
	updated.Title = "Renamed"
	resp, err := f.service.Update(ctx, "quiz-1", &UpdateQuizRequest{Quiz: updated, Version: 1}, "editor")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", resp.Title)
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, "author", resp.CreatedBy)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventQuizUpdated, published[0].Type)
	f.cache.AssertExpectations(t)
}

func TestQuizService_UpdateCannotChangeID(t *testing.T) {
	f := newQuizFixture()
	quiz := sampleQuiz(nil)
	quiz.ID = "other"

	_, err := f.service.Update(context.Background(), "quiz-1", &UpdateQuizRequest{Quiz: quiz, Version: 1}, "author")
	assert.True(t, IsValidation(err))
}

func TestQuizService_DeleteNotFound(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	f.quizzes.On("Delete", ctx, mock.Anything, "quiz-1").Return(repositories.ErrNotFound)

	err := f.service.Delete(ctx, "quiz-1", "author")
	assert.ErrorIs(t, err, ErrQuizNotFound)
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestQuizService_List(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	filters := repositories.QuizFilters{Limit: 10, Offset: 20}
	f.quizzes.On("List", ctx, mock.Anything, filters).Return([]*models.StoredQuiz{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
	}, int64(42), nil)

	resp, err := f.service.List(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Total)
	assert.Equal(t, 2, resp.Page)
	require.Len(t, resp.Quizzes, 2)
	assert.Nil(t, resp.Quizzes[0].Definition)
}

func TestQuizService_ResultStatsUnknownQuiz(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	f.quizzes.On("Exists", ctx, mock.Anything, "nope").Return(false, nil)

	_, err := f.service.ResultStats(ctx, "nope")
	assert.ErrorIs(t, err, ErrQuizNotFound)
	f.results.AssertNotCalled(t, "GetStats", mock.Anything, mock.Anything, mock.Anything)
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestQuizService_ImportExcelDryRun(t *testing.T) {
	f := newQuizFixture()
	data := workbook(t, [][]any{
		{"ID", "Type", "Prompt", "Points", "Topic", "Glossary", "Data"},
		{"q1", "true_false", "Sky is blue", "2", "nature", "sky; colour", `{"correctAnswer":true}`},
		{"q2", "multiple_choice", "Pick", "1", "", "", `{"options":[{"id":"a","text":"A"}],"correctAnswerId":"b"}`},
		{},
		{"q3", "numeric", "Pi", "x", "", "", `{"answer":3.14}`},
		{"q1", "short_answer", "Again", "1", "", "", `{"acceptedAnswers":["x"]}`},
	})

	result, err := f.service.Import(context.Background(), bytes.NewReader(data), "questions.xlsx", nil, "author")
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 3, result.ErrorCount)
	require.Len(t, result.Questions, 1)

	q := result.Questions[0]
	assert.Equal(t, models.TrueFalse, q.Type())
	assert.Equal(t, 2.0, q.Points)
	assert.Equal(t, []string{"sky", "colour"}, q.Glossary)
	assert.Equal(t, "nature", q.Topic)

	rows := make([]int, 0, len(result.Errors))
	for _, e := range result.Errors {
		rows = append(rows, e.Row)
	}
	assert.ElementsMatch(t, []int{3, 5, 6}, rows)
	assert.Nil(t, result.Quiz)
	f.quizzes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuizService_ImportJSONCreatesQuiz(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	doc := `[
	  {"id":"q1","questionType":"short_answer","prompt":"Capital of France?","points":1,"acceptedAnswers":["Paris"]},
	  {"id":"q2","questionType":"true_false","prompt":"2+2=4","points":1,"correctAnswer":true}
	]`

	f.quizzes.On("Exists", ctx, mock.Anything, "imported").Return(false, nil)
	f.quizzes.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Set", ctx, cache.QuizKey("imported"), mock.Anything, time.Minute).Return(nil)

	result, err := f.service.Import(ctx, bytes.NewBufferString(doc), "quiz.json",
		&ImportRequest{ID: "imported", Title: "Imported"}, "author")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.NotNil(t, result.Quiz)
	assert.Equal(t, 2, result.Quiz.QuestionCount)
}

func TestQuizService_ImportUnsupported(t *testing.T) {
	f := newQuizFixture()
	_, err := f.service.Import(context.Background(), bytes.NewBufferString("a,b"), "questions.csv", nil, "author")
	assert.ErrorIs(t, err, ErrImportUnsupported)
	assert.True(t, IsValidation(err))
}

func TestImportErrorJSON(t *testing.T) {
	e := &ImportError{Source: "xlsx", Row: 3, Err: ValidationErrors{{Field: "prompt", Message: "is required"}}}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"xlsx","row":3,"message":"validation failed: prompt is required",
		"fields":[{"field":"prompt","message":"is required"}]}`, string(b))
}
