package scorm

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

const (
	statusNotAttempted = "not attempted"
	statusIncomplete   = "incomplete"
	statusCompleted    = "completed"
	statusPassed       = "passed"
	statusFailed       = "failed"

	exitTimeOut = "time-out"
	exitNormal  = "normal"
)

// Report is what the engine hands the adapter at finish.
type Report struct {
	Score    float64
	MaxScore float64
	MinScore float64
	// Passed is nil when the quiz has no passing score.
	Passed         *bool
	SessionSeconds float64
	TimedOut       bool
}

// Adapter drives one LMS session: discover, initialize, report, terminate.
// Failures are recorded in Status and Err and never returned to the caller.
type Adapter struct {
	mu sync.Mutex

	host     Host
	settings models.ScormSettings
	logger   *slog.Logger

	version     models.ScormVersion
	fields      FieldTable
	conn        conn
	status      models.ScormStatus
	errs        []error
	studentName string
	initialized bool
}

func NewAdapter(host Host, settings models.ScormSettings, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := settings.Version
	if version == "" {
		version = models.Scorm12
	}
	return &Adapter{
		host:     host,
		settings: settings,
		logger:   logger.With("component", "scorm"),
		version:  version,
		status:   models.ScormIdle,
	}
}

// Start discovers the runtime and opens the LMS session. It is a no-op after
// the first call.
func (a *Adapter) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != models.ScormIdle {
		return
	}

	a.status = models.ScormInitializing
	a.conn = a.connect()
	if a.conn == nil {
		a.status = models.ScormNoAPI
		a.logger.Info("SCORM API not found, continuing without LMS reporting")
		return
	}
	a.fields = NewFieldTable(a.version, a.settings.FieldOverrides)

	if !a.conn.initialize() {
		a.status = models.ScormError
		a.fail(a.lastError("Initialize", ""))
		return
	}
	a.initialized = true
	a.status = models.ScormInitialized

	if el := a.fields.Element(FieldStudentName); el != "" {
		a.studentName = a.getValue(el)
	}
	if el := a.fields.Element(FieldLessonStatus); el != "" && a.getValue(el) == statusNotAttempted {
		if err := a.setValue(el, statusIncomplete); err != nil {
			a.logger.Warn("failed to mark lesson incomplete", "element", el, "error", err)
		}
	}
	if a.settings.AutoCommitEnabled() {
		if err := a.commit(); err != nil {
			a.logger.Warn("initial commit failed", "error", err)
		}
	}
	a.logger.Info("SCORM session initialized", "version", a.version, "student", a.studentName)
}

// connect picks the call shape by interface. An object offering both uses the
// configured version.
func (a *Adapter) connect() conn {
	if a.host == nil {
		return nil
	}
	api := a.host.FindAPI()
	if api == nil {
		return nil
	}
	r2004, is2004 := api.(Runtime2004)
	r12, is12 := api.(Runtime12)
	switch {
	case is2004 && is12:
		if a.version == models.Scorm2004 {
			return conn2004{api: r2004}
		}
		return conn12{api: r12}
	case is2004:
		a.version = models.Scorm2004
		return conn2004{api: r2004}
	case is12:
		a.version = models.Scorm12
		return conn12{api: r12}
	default:
		a.logger.Warn("object found in place of SCORM API does not implement a runtime")
		return nil
	}
}

// Report writes score, status, session time and exit, then commits. Every
// write is attempted even when an earlier one failed.
func (a *Adapter) Report(r Report) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized || a.status == models.ScormTerminated {
		return
	}

	a.status = models.ScormSendingData
	a.errs = nil

	a.write(FieldScoreMin, formatNumber(r.MinScore))
	a.write(FieldScoreMax, formatNumber(r.MaxScore))
	a.write(FieldScoreRaw, formatNumber(r.Score))
	if a.version == models.Scorm2004 {
		if scaled, ok := ScaledScore(r.Score, r.MinScore, r.MaxScore); ok {
			a.write(FieldScoreScaled, formatNumber(scaled))
		}
	}

	a.writeStatus(r.Passed)
	a.write(FieldSessionTime, FormatDuration(a.version, r.SessionSeconds))
	a.write(FieldExit, a.exitValue(r.TimedOut))

	if err := a.commit(); err != nil {
		a.fail(err)
	}

	if len(a.errs) > 0 {
		a.status = models.ScormError
		a.logger.Warn("SCORM reporting finished with errors", "errors", len(a.errs), "error", a.errText())
		return
	}
	a.status = models.ScormCommitted
}

// writeStatus maps the outcome onto the version's status vocabulary.
func (a *Adapter) writeStatus(passed *bool) {
	lesson := statusCompleted
	if passed != nil {
		lesson = statusFailed
		if *passed {
			lesson = statusPassed
		}
	}

	if a.version == models.Scorm2004 {
		if a.settings.CompletionOnFinish() {
			a.write(FieldLessonStatus, statusCompleted)
		}
		if a.settings.SuccessOnPass() && passed != nil {
			a.write(FieldSuccessStatus, lesson)
		}
		return
	}

	// 1.2 has a single lesson_status. Passed and failed are always written;
	// a plain completion only when completion-on-finish is enabled.
	if passed != nil || a.settings.CompletionOnFinish() {
		a.write(FieldLessonStatus, lesson)
	}
}

func (a *Adapter) exitValue(timedOut bool) string {
	if timedOut {
		return exitTimeOut
	}
	if a.version == models.Scorm2004 {
		return exitNormal
	}
	return ""
}

func (a *Adapter) write(f Field, value string) {
	el := a.fields.Element(f)
	if el == "" {
		return
	}
	if err := a.setValue(el, value); err != nil {
		a.fail(err)
	}
}

// Terminate closes the LMS session if one is open.
func (a *Adapter) Terminate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return
	}
	a.initialized = false
	if !a.conn.terminate() {
		a.status = models.ScormError
		a.fail(a.lastError("Terminate", ""))
		return
	}
	a.status = models.ScormTerminated
}

func (a *Adapter) getValue(el string) string {
	v := a.conn.get(el)
	if code, msg, _ := a.conn.lastError(); code != noError {
		a.logger.Warn("GetValue reported an error", "element", el, "code", code, "message", msg)
	}
	return v
}

func (a *Adapter) setValue(el, value string) error {
	if !a.conn.set(el, value) {
		return a.lastError("SetValue", el)
	}
	if a.settings.AutoCommitEnabled() {
		return a.commit()
	}
	return nil
}

func (a *Adapter) commit() error {
	if !a.conn.commit() {
		return a.lastError("Commit", "")
	}
	return nil
}

func (a *Adapter) lastError(op, element string) *LMSError {
	code, msg, diag := a.conn.lastError()
	if code == noError {
		code = ""
	}
	if msg == "" {
		msg = "unknown error"
	}
	return &LMSError{Op: op, Element: element, Code: code, Message: msg, Diagnostic: diag}
}

func (a *Adapter) fail(err error) {
	a.errs = append(a.errs, err)
}

func (a *Adapter) Status() models.ScormStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Err joins every failure from the last operation, or "" when there were none.
func (a *Adapter) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errText()
}

func (a *Adapter) errText() string {
	if len(a.errs) == 0 {
		return ""
	}
	msgs := make([]string, len(a.errs))
	for i, err := range a.errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Errors returns the failures as LMSError values where possible.
func (a *Adapter) Errors() []*LMSError {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*LMSError, 0, len(a.errs))
	for _, err := range a.errs {
		var lmsErr *LMSError
		if errors.As(err, &lmsErr) {
			out = append(out, lmsErr)
		}
	}
	return out
}

func (a *Adapter) StudentName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.studentName
}

func (a *Adapter) Version() models.ScormVersion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.version
}
