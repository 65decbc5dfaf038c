package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	quizService   services.QuizService
	exportService services.ExportService
	validator     *validator.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:   NewBaseHandler(logger),
		quizService:   quizService,
		exportService: exportService,
		validator:     validator,
	}
}

// ValidationReport is the body of a validate call.
type ValidationReport struct {
	Valid  bool                      `json:"valid"`
	Errors services.ValidationErrors `json:"errors,omitempty"`
}

// CreateQuiz stores a new quiz definition
// @Summary Create quiz
// @Description Validates and stores a quiz definition
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body models.Quiz true "Quiz definition"
// @Success 201 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Creating quiz", "quiz_id", quiz.ID)

	resp, err := h.quizService.Create(c.Request.Context(), &quiz, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetQuiz returns a quiz with its full definition
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.quizService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateQuiz replaces a quiz definition. The request carries the version the
// caller read; a concurrent write makes it fail with 409.
// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param request body services.UpdateQuizRequest true "Definition and expected version"
// @Success 200 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.handleServiceError(c, validator.ToValidationErrors(err))
		return
	}

	h.LogRequest(c, "Updating quiz", "quiz_id", id, "version", req.Version)

	resp, err := h.quizService.Update(c.Request.Context(), id, &req, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteQuiz removes a quiz definition
// @Summary Delete quiz
// @Tags quizzes
// @Param id path string true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", id)

	if err := h.quizService.Delete(c.Request.Context(), id, currentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Quiz deleted successfully", nil)
}

// ListQuizzes lists quiz summaries
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param search query string false "Title search"
// @Param created_by query string false "Author"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param sort_by query string false "created_at, updated_at or title"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} services.QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	limit, offset := pagination(c)
	filters := repositories.QuizFilters{
		CreatedBy: c.Query("created_by"),
		Search:    c.Query("search"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	resp, err := h.quizService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ValidateQuiz checks a definition without storing it
// @Summary Validate quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body models.Quiz true "Quiz definition"
// @Success 200 {object} ValidationReport
// @Failure 400 {object} ErrorResponse
// @Router /quizzes/validate [post]
func (h *QuizHandler) ValidateQuiz(c *gin.Context) {
	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	err := h.quizService.Validate(&quiz)
	if err == nil {
		c.JSON(http.StatusOK, ValidationReport{Valid: true})
		return
	}

	var errs services.ValidationErrors
	if !errors.As(err, &errs) {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ValidationReport{Valid: false, Errors: errs})
}

// ImportQuiz reads questions from an uploaded .xlsx or .json file. Without an
// id form field the upload is only parsed and validated.
// @Summary Import questions
// @Tags quizzes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook or JSON document"
// @Param id formData string false "Id of the quiz to create"
// @Param title formData string false "Title of the quiz to create"
// @Param description formData string false "Description of the quiz to create"
// @Success 200 {object} services.ImportResult
// @Success 201 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} services.ImportResult
// @Router /quizzes/import [post]
func (h *QuizHandler) ImportQuiz(c *gin.Context) {
	var req services.ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid form data", err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "File is required", err)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.badRequest(c, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing quiz", "filename", header.Filename, "size", header.Size, "quiz_id", req.ID)

	result, err := h.quizService.Import(c.Request.Context(), file, header.Filename, &req, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	switch {
	case result.ErrorCount > 0:
		c.JSON(http.StatusUnprocessableEntity, result)
	case result.Quiz != nil:
		c.JSON(http.StatusCreated, result)
	default:
		c.JSON(http.StatusOK, result)
	}
}

// DownloadScormPackage builds an LMS-ready zip for a stored quiz
// @Summary Download SCORM package
// @Tags quizzes
// @Produce application/zip
// @Param id path string true "Quiz ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/scorm-package [get]
func (h *QuizHandler) DownloadScormPackage(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	quiz, err := h.quizService.Load(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	pkg, err := h.exportService.ScormPackage(c.Request.Context(), quiz)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	attachment(c, safeFilename(id)+"-scorm.zip", "application/zip", pkg)
}

// ListResults lists stored results of a quiz
// @Summary List quiz results
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Param student query string false "Student name"
// @Param passed query bool false "Only passed or failed results"
// @Param timed_out query bool false "Only timed out results"
// @Param from query string false "Completed at or after (RFC 3339 or date)"
// @Param to query string false "Completed before (RFC 3339 or date)"
// @Success 200 {object} services.ResultListResponse
// @Router /quizzes/{id}/results [get]
func (h *QuizHandler) ListResults(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	limit, offset := pagination(c)
	filters := repositories.ResultFilters{
		StudentName: c.Query("student"),
		Passed:      queryBool(c, "passed"),
		TimedOut:    queryBool(c, "timed_out"),
		DateFrom:    queryTime(c, "from"),
		DateTo:      queryTime(c, "to"),
		Limit:       limit,
		Offset:      offset,
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}

	resp, err := h.quizService.Results(c.Request.Context(), id, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetResultStats
// @Summary Quiz result statistics
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} repositories.QuizResultStats
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/results/stats [get]
func (h *QuizHandler) GetResultStats(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	stats, err := h.quizService.ResultStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
