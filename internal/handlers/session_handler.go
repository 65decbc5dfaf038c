package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

// ===== REQUEST STRUCTURES =====

type SubmitAnswerRequest struct {
	QuestionID string         `json:"question_id" binding:"required"`
	Answer     *models.Answer `json:"answer" binding:"required"`
}

type GoToRequest struct {
	// Index is zero-based.
	Index *int `json:"index" binding:"required"`
}

type HotspotRequest struct {
	QuestionID string   `json:"question_id" binding:"required"`
	X          *float64 `json:"x" binding:"required"`
	Y          *float64 `json:"y" binding:"required"`
}

type HotspotResponse struct {
	QuestionID string `json:"question_id"`
	HotspotID  string `json:"hotspot_id,omitempty"`
	Hit        bool   `json:"hit"`
}

// stateEvent is sent first on every event stream.
const stateEvent = "state"

type SessionHandler struct {
	BaseHandler
	playerService services.PlayerService
	quizService   services.QuizService
	exportService services.ExportService
	validator     *validator.Validator
}

func NewSessionHandler(
	playerService services.PlayerService,
	quizService services.QuizService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:   NewBaseHandler(logger),
		playerService: playerService,
		quizService:   quizService,
		exportService: exportService,
		validator:     validator,
	}
}

// StartSession starts playing a stored or inline quiz
// @Summary Start session
// @Description Starts a quiz session. The student name defaults to the caller's display name.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.StartSessionRequest true "Quiz to play"
// @Success 201 {object} services.SessionState
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.handleServiceError(c, validator.ToValidationErrors(err))
		return
	}
	if req.StudentName == "" {
		req.StudentName = currentUserName(c)
	}

	h.LogRequest(c, "Starting session", "quiz_id", req.QuizID, "inline", req.Quiz != nil)

	state, err := h.playerService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

// GetSession
// @Summary Get session state
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionState
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	state, err := h.playerService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetCurrentQuestion returns the question on screen, without its answer key
// @Summary Current question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.QuestionView
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/question [get]
func (h *SessionHandler) GetCurrentQuestion(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.playerService.CurrentQuestion(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAnswer records an answer. Resubmitting replaces the earlier answer.
// @Summary Submit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SubmitAnswerRequest true "Answer"
// @Success 200 {object} services.SubmitResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	resp, err := h.playerService.SubmitAnswer(c.Request.Context(), id, req.QuestionID, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// NextQuestion
// @Summary Next question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.QuestionView
// @Router /sessions/{id}/next [post]
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	h.navigate(c, h.playerService.Next)
}

// PreviousQuestion
// @Summary Previous question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.QuestionView
// @Router /sessions/{id}/previous [post]
func (h *SessionHandler) PreviousQuestion(c *gin.Context) {
	h.navigate(c, h.playerService.Previous)
}

// GoToQuestion jumps to a zero-based index. An index out of range leaves the
// current question unchanged.
// @Summary Go to question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body GoToRequest true "Target index"
// @Success 200 {object} services.QuestionView
// @Router /sessions/{id}/goto [post]
func (h *SessionHandler) GoToQuestion(c *gin.Context) {
	var req GoToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}
	h.navigate(c, func(ctx context.Context, id string) (*services.QuestionView, error) {
		return h.playerService.GoTo(ctx, id, *req.Index)
	})
}

func (h *SessionHandler) navigate(c *gin.Context, move func(ctx context.Context, id string) (*services.QuestionView, error)) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := move(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ResolveHotspot maps a click, in percent of the image, to a hotspot id
// @Summary Resolve hotspot click
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body HotspotRequest true "Click coordinates"
// @Success 200 {object} HotspotResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/hotspot [post]
func (h *SessionHandler) ResolveHotspot(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req HotspotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	hotspotID, hit, err := h.playerService.ResolveHotspot(c.Request.Context(), id, req.QuestionID, *req.X, *req.Y)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, HotspotResponse{QuestionID: req.QuestionID, HotspotID: hotspotID, Hit: hit})
}

// FinishSession ends the session and returns the result. Calling it again
// returns the same result.
// @Summary Finish session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.QuizResult
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/finish [post]
func (h *SessionHandler) FinishSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Finishing session", "session_id", id)

	result, err := h.playerService.Finish(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResult
// @Summary Session result
// @Description Result of a finished session, live or already stored.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.QuizResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/result [get]
func (h *SessionHandler) GetResult(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	result, err := h.playerService.Result(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportResult downloads the result workbook
// @Summary Export result
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) ExportResult(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	ctx := c.Request.Context()

	result, err := h.playerService.Result(ctx, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	quiz, err := h.playerService.Quiz(ctx, id)
	if err != nil {
		// Reaped sessions only know the quiz id; inline quizzes are gone.
		quiz, err = h.quizService.Load(ctx, result.QuizID)
		if err != nil && !services.IsNotFound(err) {
			h.handleServiceError(c, err)
			return
		}
	}

	book, err := h.exportService.ResultWorkbook(ctx, result, quiz)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	attachment(c, safeFilename(id)+"-result.xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", book)
}

// StreamEvents pushes session events as server-sent events until the
// session finishes or the client goes away.
// @Summary Session events
// @Tags sessions
// @Produce text/event-stream
// @Param id path string true "Session ID"
// @Router /sessions/{id}/events [get]
func (h *SessionHandler) StreamEvents(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	ctx := c.Request.Context()

	events, cancel, err := h.playerService.Subscribe(ctx, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer cancel()

	state, err := h.playerService.Get(ctx, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(stateEvent, state)
	c.Writer.Flush()
	if state.Finished {
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return ev.Type != services.SessionEventFinish && ev.Type != services.SessionEventClosed
		}
	})
}

// GetScormData returns the CMI data written to the preview LMS runtime
// @Summary SCORM preview data
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/scorm [get]
func (h *SessionHandler) GetScormData(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	data, err := h.playerService.ScormData(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// DeleteSession
// @Summary Destroy session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.playerService.Destroy(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Session destroyed", nil)
}
