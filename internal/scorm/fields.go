package scorm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Field is a logical data-model element, mapped to a CMI path per version.
type Field string

const (
	FieldStudentName   Field = "student_name"
	FieldLessonStatus  Field = "lesson_status"
	FieldSuccessStatus Field = "success_status"
	FieldScoreRaw      Field = "score_raw"
	FieldScoreMin      Field = "score_min"
	FieldScoreMax      Field = "score_max"
	FieldScoreScaled   Field = "score_scaled"
	FieldSessionTime   Field = "session_time"
	FieldExit          Field = "exit"
)

var defaultFields = map[models.ScormVersion]map[Field]string{
	models.Scorm12: {
		FieldStudentName:  "cmi.core.student_name",
		FieldLessonStatus: "cmi.core.lesson_status",
		FieldScoreRaw:     "cmi.core.score.raw",
		FieldScoreMin:     "cmi.core.score.min",
		FieldScoreMax:     "cmi.core.score.max",
		FieldSessionTime:  "cmi.core.session_time",
		FieldExit:         "cmi.core.exit",
	},
	models.Scorm2004: {
		FieldStudentName:   "cmi.learner_name",
		FieldLessonStatus:  "cmi.completion_status",
		FieldSuccessStatus: "cmi.success_status",
		FieldScoreRaw:      "cmi.score.raw",
		FieldScoreMin:      "cmi.score.min",
		FieldScoreMax:      "cmi.score.max",
		FieldScoreScaled:   "cmi.score.scaled",
		FieldSessionTime:   "cmi.session_time",
		FieldExit:          "cmi.exit",
	},
}

// FieldTable resolves logical fields for one version, applying overrides.
type FieldTable struct {
	version   models.ScormVersion
	overrides map[string]string
}

func NewFieldTable(version models.ScormVersion, overrides map[string]string) FieldTable {
	return FieldTable{version: version, overrides: overrides}
}

// Element returns the CMI path for f, or "" when the version has no such element.
// A version-qualified override ("2004.score_raw") beats a plain one ("score_raw").
func (t FieldTable) Element(f Field) string {
	if el := strings.TrimSpace(t.overrides[string(t.version)+"."+string(f)]); el != "" {
		return el
	}
	if _, known := defaultFields[t.version][f]; known {
		if el := strings.TrimSpace(t.overrides[string(f)]); el != "" {
			return el
		}
	}
	return defaultFields[t.version][f]
}

// FormatDuration renders seconds in the version's session time format:
// 1.2 uses HH:MM:SS.SS, 2004 uses an ISO 8601 duration such as PT1H2M3.50S.
func FormatDuration(version models.ScormVersion, totalSeconds float64) string {
	if totalSeconds < 0 || math.IsNaN(totalSeconds) {
		totalSeconds = 0
	}
	hours := int(totalSeconds / 3600)
	minutes := int(math.Mod(totalSeconds, 3600) / 60)
	seconds := math.Mod(totalSeconds, 60)

	if version != models.Scorm2004 {
		return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, seconds)
	}

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 || (hours > 0 && seconds == 0) {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		fmt.Fprintf(&b, "%.2fS", seconds)
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScaledScore maps raw into [0,1] rounded to four decimals. ok is false when
// max does not exceed min.
func ScaledScore(raw, min, max float64) (float64, bool) {
	if max <= min {
		return 0, false
	}
	scaled := (raw - min) / (max - min)
	return math.Round(scaled*10000) / 10000, true
}
