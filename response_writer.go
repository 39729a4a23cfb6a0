// ResponseRecorder is influenced by the work done by goji and chi libraries.
// See their respective licenses for more information:
// https://github.com/zenazn/goji/blob/master/LICENSE
// https://github.com/go-chi/chi/blob/master/LICENSE

package hrouter

import (
	"net/http"
)

// ResponseWriter extends http.ResponseWriter and provides
// methods to retrieve the recorded status code, written state, and response size.
// The underlying writer remains reachable through Unwrap, which [http.ResponseController] relies on
// for flushing and hijacking.
type ResponseWriter interface {
	http.ResponseWriter
	// Status recorded after Write and WriteHeader.
	Status() int
	// Written returns true if the response has been written.
	Written() bool
	// Size returns the size of the written response.
	Size() int
	// Unwrap returns the underlying http.ResponseWriter.
	Unwrap() http.ResponseWriter
}

const notWritten = -1

var _ ResponseWriter = (*recorder)(nil)

type recorder struct {
	http.ResponseWriter
	size   int
	status int
}

func newRecorder(w http.ResponseWriter) *recorder {
	if rec, ok := w.(*recorder); ok {
		return rec
	}
	return &recorder{ResponseWriter: w, size: notWritten, status: http.StatusOK}
}

func (r *recorder) Status() int {
	return r.status
}

func (r *recorder) Written() bool {
	return r.size != notWritten
}

func (r *recorder) Size() int {
	return r.size
}

func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *recorder) WriteHeader(code int) {
	if !r.Written() {
		r.size = 0
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(buf []byte) (n int, err error) {
	if !r.Written() {
		r.size = 0
		r.ResponseWriter.WriteHeader(r.status)
	}
	n, err = r.ResponseWriter.Write(buf)
	r.size += n
	return
}

// noopWriter discards everything. It backs the Context of recognition only lookups.
type noopWriter struct{}

func (noopWriter) Header() http.Header {
	return http.Header{}
}

func (noopWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (noopWriter) WriteHeader(int) {}
