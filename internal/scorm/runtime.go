// Package scorm reports quiz results to a SCORM 1.2 or 2004 run-time
// environment supplied by the host.
package scorm

import (
	"fmt"
	"strings"
)

// Runtime2004 is the API_1484_11 object of a SCORM 2004 LMS.
type Runtime2004 interface {
	Initialize(param string) string
	Terminate(param string) string
	GetValue(element string) string
	SetValue(element, value string) string
	Commit(param string) string
	GetLastError() string
	GetErrorString(code string) string
	GetDiagnostic(code string) string
}

// Runtime12 is the API object of a SCORM 1.2 LMS.
type Runtime12 interface {
	LMSInitialize(param string) string
	LMSFinish(param string) string
	LMSGetValue(element string) string
	LMSSetValue(element, value string) string
	LMSCommit(param string) string
	LMSGetLastError() string
	LMSGetErrorString(code string) string
	LMSGetDiagnostic(code string) string
}

const (
	scormTrue = "true"
	noError   = "0"
)

// LMSError is the last-error triple reported by the runtime after a failed call.
type LMSError struct {
	Op         string
	Element    string
	Code       string
	Message    string
	Diagnostic string
}

func (e *LMSError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Element != "" {
		fmt.Fprintf(&b, " %s", e.Element)
	}
	fmt.Fprintf(&b, " failed: %s", e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " (code %s)", e.Code)
	}
	if e.Diagnostic != "" && e.Diagnostic != e.Message {
		fmt.Fprintf(&b, ": %s", e.Diagnostic)
	}
	return b.String()
}

// conn hides the two call shapes behind one set of operations.
type conn interface {
	initialize() bool
	terminate() bool
	get(element string) string
	set(element, value string) bool
	commit() bool
	lastError() (code, message, diagnostic string)
}

type conn2004 struct{ api Runtime2004 }

func (c conn2004) initialize() bool      { return c.api.Initialize("") == scormTrue }
func (c conn2004) terminate() bool       { return c.api.Terminate("") == scormTrue }
func (c conn2004) get(el string) string  { return c.api.GetValue(el) }
func (c conn2004) set(el, v string) bool { return c.api.SetValue(el, v) == scormTrue }
func (c conn2004) commit() bool          { return c.api.Commit("") == scormTrue }
func (c conn2004) lastError() (string, string, string) {
	code := c.api.GetLastError()
	if code == "" || code == noError {
		return noError, "", ""
	}
	return code, c.api.GetErrorString(code), c.api.GetDiagnostic(code)
}

type conn12 struct{ api Runtime12 }

func (c conn12) initialize() bool      { return c.api.LMSInitialize("") == scormTrue }
func (c conn12) terminate() bool       { return c.api.LMSFinish("") == scormTrue }
func (c conn12) get(el string) string  { return c.api.LMSGetValue(el) }
func (c conn12) set(el, v string) bool { return c.api.LMSSetValue(el, v) == scormTrue }
func (c conn12) commit() bool          { return c.api.LMSCommit("") == scormTrue }
func (c conn12) lastError() (string, string, string) {
	code := c.api.LMSGetLastError()
	if code == "" || code == noError {
		return noError, "", ""
	}
	return code, c.api.LMSGetErrorString(code), c.api.LMSGetDiagnostic(code)
}
