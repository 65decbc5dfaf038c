package scorm

// Host locates the LMS runtime object. A nil result means no LMS is present.
type Host interface {
	FindAPI() any
}

type HostFunc func() any

func (f HostFunc) FindAPI() any { return f() }

// StaticHost always returns the same runtime.
func StaticHost(api any) Host {
	return HostFunc(func() any { return api })
}

// Window is one frame in the browsing-context ancestry an LMS injects its
// API object into.
type Window interface {
	// Lookup returns the named global, or nil.
	Lookup(name string) any
	// Parent returns the enclosing frame; a top-level window returns itself or nil.
	Parent() Window
	// Opener returns the window that opened this one, or nil.
	Opener() Window
}

const (
	apiName2004 = "API_1484_11"
	apiName12   = "API"

	maxSearchDepth = 10
)

// WindowHost searches self, then parents, then the opener chain, preferring
// the 2004 API name over the 1.2 one at every level.
type WindowHost struct {
	Start Window
}

func (h WindowHost) FindAPI() any {
	return findAPI(h.Start, 0)
}

func findAPI(w Window, depth int) any {
	if w == nil || depth > maxSearchDepth {
		return nil
	}
	if api := w.Lookup(apiName2004); api != nil {
		return api
	}
	if api := w.Lookup(apiName12); api != nil {
		return api
	}
	if parent := w.Parent(); parent != nil && parent != w {
		return findAPI(parent, depth+1)
	}
	if opener := w.Opener(); opener != nil && opener != w {
		return findAPI(opener, depth+1)
	}
	return nil
}

// Frame is a plain Window used to describe a frame tree in memory.
type Frame struct {
	Globals map[string]any
	ParentW *Frame
	OpenerW *Frame
}

func (f *Frame) Lookup(name string) any {
	if f == nil {
		return nil
	}
	return f.Globals[name]
}

func (f *Frame) Parent() Window {
	if f == nil || f.ParentW == nil {
		return nil
	}
	return f.ParentW
}

func (f *Frame) Opener() Window {
	if f == nil || f.OpenerW == nil {
		return nil
	}
	return f.OpenerW
}
