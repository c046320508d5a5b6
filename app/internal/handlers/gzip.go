package handlers

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// gzipResponseWriter decides on the first write whether the body is worth
// compressing, based on the Content-Type the handler set.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz      *gzip.Writer
	decided bool
	active  bool
}

func (g *gzipResponseWriter) decide() {
	if g.decided {
		return
	}
	g.decided = true
	h := g.ResponseWriter.Header()
	if h.Get("Content-Encoding") != "" || !isCompressible(h.Get("Content-Type")) {
		return
	}
	g.active = true
	g.gz.Reset(g.ResponseWriter)
	h.Set("Content-Encoding", "gzip")
	h.Del("Content-Length") // Length changes after compression
	h.Add("Vary", "Accept-Encoding")
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	g.decide()
	g.ResponseWriter.WriteHeader(code)
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	g.decide()
	if g.active {
		return g.gz.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

func (g *gzipResponseWriter) close() {
	if g.active {
		_ = g.gz.Close()
	}
}

// gzip writer pool to reduce allocations
var gzipPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

// compressible content types worth gzipping; PDFs are already compressed
var compressibleTypes = map[string]bool{
	"application/json": true,
	"text/plain":       true,
}

// isCompressible checks if a content type should be gzip-compressed
func isCompressible(contentType string) bool {
	// Strip charset suffix: "text/plain; charset=utf-8" → "text/plain"
	ct := contentType
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return compressibleTypes[ct]
}

// GzipMiddleware compresses JSON and text responses for clients that accept gzip
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipPool.Get().(*gzip.Writer)
		defer gzipPool.Put(gz)

		gw := &gzipResponseWriter{ResponseWriter: w, gz: gz}
		defer gw.close()
		next.ServeHTTP(gw, r)
	})
}
