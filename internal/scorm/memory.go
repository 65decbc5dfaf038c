package scorm

import (
	"maps"
	"strings"
	"sync"
)

var errorStrings = map[string]string{
	"0":   "No error",
	"101": "General exception",
	"103": "Already initialized",
	"104": "Content instance terminated",
	"112": "Termination before initialization",
	"122": "Retrieve data before initialization",
	"132": "Store data before initialization",
	"142": "Commit before initialization",
	"351": "General set failure",
	"391": "General commit failure",
	"401": "Undefined data model element",
}

// Call is one recorded runtime invocation.
type Call struct {
	Method  string `json:"method"`
	Element string `json:"element,omitempty"`
	Value   string `json:"value,omitempty"`
}

// MemoryRuntime is an in-process run-time environment implementing both
// Runtime12 and Runtime2004 over one data map. It backs SCORM preview
// sessions and lets failures be injected per operation.
type MemoryRuntime struct {
	mu          sync.Mutex
	data        map[string]string
	calls       []Call
	initialized bool
	terminated  bool
	lastError   string

	// FailInitialize, FailCommit and FailTerminate make the operation
	// return "false" with the given error code when non-empty.
	FailInitialize string
	FailCommit     string
	FailTerminate  string
	// FailSet maps a CMI element to the error code SetValue reports for it.
	FailSet map[string]string
}

func NewMemoryRuntime(seed map[string]string) *MemoryRuntime {
	data := map[string]string{
		"cmi.core.lesson_status": "not attempted",
		"cmi.completion_status":  "not attempted",
	}
	maps.Copy(data, seed)
	return &MemoryRuntime{data: data, lastError: noError, FailSet: map[string]string{}}
}

func (m *MemoryRuntime) record(method, element, value string) {
	m.calls = append(m.calls, Call{Method: method, Element: element, Value: value})
}

func (m *MemoryRuntime) result(ok bool, code string) string {
	if ok {
		m.lastError = noError
		return scormTrue
	}
	m.lastError = code
	return "false"
}

func (m *MemoryRuntime) Initialize(string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Initialize", "", "")
	switch {
	case m.FailInitialize != "":
		return m.result(false, m.FailInitialize)
	case m.terminated:
		return m.result(false, "104")
	case m.initialized:
		return m.result(false, "103")
	}
	m.initialized = true
	return m.result(true, "")
}

func (m *MemoryRuntime) Terminate(string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Terminate", "", "")
	switch {
	case m.FailTerminate != "":
		return m.result(false, m.FailTerminate)
	case !m.initialized:
		return m.result(false, "112")
	}
	m.initialized = false
	m.terminated = true
	return m.result(true, "")
}

func (m *MemoryRuntime) GetValue(element string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetValue", element, "")
	if !m.initialized {
		m.result(false, "122")
		return ""
	}
	if !strings.HasPrefix(element, "cmi.") {
		m.result(false, "401")
		return ""
	}
	m.result(true, "")
	return m.data[element]
}

func (m *MemoryRuntime) SetValue(element, value string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetValue", element, value)
	if !m.initialized {
		return m.result(false, "132")
	}
	if code, ok := m.FailSet[element]; ok {
		return m.result(false, code)
	}
	if !strings.HasPrefix(element, "cmi.") {
		return m.result(false, "401")
	}
	m.data[element] = value
	return m.result(true, "")
}

func (m *MemoryRuntime) Commit(string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Commit", "", "")
	if m.FailCommit != "" {
		return m.result(false, m.FailCommit)
	}
	if !m.initialized {
		return m.result(false, "142")
	}
	return m.result(true, "")
}

func (m *MemoryRuntime) GetLastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *MemoryRuntime) GetErrorString(code string) string {
	if s, ok := errorStrings[code]; ok {
		return s
	}
	return "Unknown error"
}

func (m *MemoryRuntime) GetDiagnostic(code string) string {
	if code == noError {
		return ""
	}
	return "memory runtime error " + code
}

func (m *MemoryRuntime) LMSInitialize(p string) string        { return m.Initialize(p) }
func (m *MemoryRuntime) LMSFinish(p string) string            { return m.Terminate(p) }
func (m *MemoryRuntime) LMSGetValue(el string) string         { return m.GetValue(el) }
func (m *MemoryRuntime) LMSSetValue(el, v string) string      { return m.SetValue(el, v) }
func (m *MemoryRuntime) LMSCommit(p string) string            { return m.Commit(p) }
func (m *MemoryRuntime) LMSGetLastError() string              { return m.GetLastError() }
func (m *MemoryRuntime) LMSGetErrorString(code string) string { return m.GetErrorString(code) }
func (m *MemoryRuntime) LMSGetDiagnostic(code string) string  { return m.GetDiagnostic(code) }

// Value returns the stored value of a CMI element.
func (m *MemoryRuntime) Value(element string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[element]
}

// Data returns a copy of the data model.
func (m *MemoryRuntime) Data() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.data)
}

// Calls returns the invocation log.
func (m *MemoryRuntime) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MemoryRuntime) Terminated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminated
}
