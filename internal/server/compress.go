package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// compressWriter sends the body through an encoder.
type compressWriter struct {
	io.Writer
	http.ResponseWriter
	wroteHeader bool
}

func (w *compressWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.Writer.Write(b)
}

// accepts reports whether an Accept-Encoding header lists encoding.
func accepts(header, encoding string) bool {
	for _, part := range strings.Split(header, ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(name, encoding) {
			return true
		}
	}
	return false
}

// compress encodes responses with brotli, or gzip, when the client accepts it.
// Snapshots of large flocks shrink to a fraction of their size.
func compress(next http.Handler) http.Handler {
	brPool := sync.Pool{
		New: func() any { return brotli.NewWriterLevel(io.Discard, brotli.BestSpeed) },
	}
	gzPool := sync.Pool{
		New: func() any { return gzip.NewWriter(io.Discard) },
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Accept-Encoding")
		var (
			enc     io.WriteCloser
			release func()
		)
		switch {
		case accepts(header, "br"):
			br := brPool.Get().(*brotli.Writer)
			br.Reset(w)
			enc, release = br, func() { brPool.Put(br) }
			w.Header().Set("Content-Encoding", "br")
		case accepts(header, "gzip"):
			gz := gzPool.Get().(*gzip.Writer)
			gz.Reset(w)
			enc, release = gz, func() { gzPool.Put(gz) }
			w.Header().Set("Content-Encoding", "gzip")
		default:
			next.ServeHTTP(w, r)
			return
		}
		defer release()
		defer enc.Close()

		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Del("Content-Length")
		next.ServeHTTP(&compressWriter{Writer: enc, ResponseWriter: w}, r)
	})
}
