package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// minCompressSize is the smallest body worth compressing.
const minCompressSize = 1024

var compressibleTypes = []string{
	"application/json",
	"application/xml",
	"application/javascript",
	"text/",
	"image/svg+xml",
}

var (
	gzipPool   = sync.Pool{New: func() interface{} { w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression); return w }}
	brotliPool = sync.Pool{New: func() interface{} { return brotli.NewWriterLevel(io.Discard, brotli.DefaultCompression) }}
)

// Compress encodes response bodies with br or gzip per Accept-Encoding.
// Paths in skip (e.g. /metrics) and bodies under minCompressSize are sent as-is.
func Compress(skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range skip {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}
			enc := negotiateEncoding(r.Header.Get("Accept-Encoding"))
			if enc == "" || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Accept-Encoding")
			cw := &compressWriter{ResponseWriter: w, encoding: enc, status: http.StatusOK}
			defer cw.Close()
			next.ServeHTTP(cw, r)
		})
	}
}

// negotiateEncoding picks br over gzip. q=0 excludes an encoding.
func negotiateEncoding(header string) string {
	var br, gz bool
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.ReplaceAll(strings.TrimSpace(params), " ", "") == "q=0" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "br":
			br = true
		case "gzip":
			gz = true
		}
	}
	switch {
	case br:
		return "br"
	case gz:
		return "gzip"
	}
	return ""
}

func compressible(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, t := range compressibleTypes {
		if strings.HasPrefix(ct, t) {
			return true
		}
	}
	return false
}

// compressWriter buffers up to minCompressSize before deciding whether to encode.
type compressWriter struct {
	http.ResponseWriter
	encoding    string
	status      int
	wroteHeader bool
	buf         bytes.Buffer
	enc         io.WriteCloser
	passthrough bool
	closed      bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true
	cw.status = code
	if code < 200 || code == http.StatusNoContent || code == http.StatusNotModified {
		cw.passthrough = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.passthrough {
		return cw.ResponseWriter.Write(b)
	}
	if cw.enc != nil {
		return cw.enc.Write(b)
	}
	cw.buf.Write(b)
	if cw.buf.Len() < minCompressSize {
		return len(b), nil
	}
	if err := cw.start(); err != nil {
		return 0, err
	}
	return len(b), nil
}

// start commits to an encoding (or to passthrough) and flushes the buffered bytes.
func (cw *compressWriter) start() error {
	h := cw.Header()
	if h.Get("Content-Encoding") != "" || !compressible(h.Get("Content-Type")) {
		cw.passthrough = true
		cw.ResponseWriter.WriteHeader(cw.status)
		_, err := cw.ResponseWriter.Write(cw.buf.Bytes())
		cw.buf.Reset()
		return err
	}
	h.Set("Content-Encoding", cw.encoding)
	h.Del("Content-Length")
	cw.ResponseWriter.WriteHeader(cw.status)
	switch cw.encoding {
	case "br":
		bw := brotliPool.Get().(*brotli.Writer)
		bw.Reset(cw.ResponseWriter)
		cw.enc = bw
	default:
		gw := gzipPool.Get().(*gzip.Writer)
		gw.Reset(cw.ResponseWriter)
		cw.enc = gw
	}
	_, err := cw.enc.Write(cw.buf.Bytes())
	cw.buf.Reset()
	return err
}

// Close finishes the encoder or writes a small buffered body uncompressed.
func (cw *compressWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	if cw.enc != nil {
		err := cw.enc.Close()
		switch e := cw.enc.(type) {
		case *brotli.Writer:
			brotliPool.Put(e)
		case *gzip.Writer:
			gzipPool.Put(e)
		}
		return err
	}
	if cw.passthrough {
		return nil
	}
	if !cw.wroteHeader {
		cw.status = http.StatusOK
	}
	cw.ResponseWriter.WriteHeader(cw.status)
	if cw.buf.Len() > 0 {
		_, err := cw.ResponseWriter.Write(cw.buf.Bytes())
		return err
	}
	return nil
}

// Flush commits whatever is buffered and flushes the encoder.
func (cw *compressWriter) Flush() {
	if cw.enc == nil && !cw.passthrough {
		if !cw.wroteHeader {
			cw.WriteHeader(http.StatusOK)
		}
		if err := cw.start(); err != nil {
			return
		}
	}
	if f, ok := cw.enc.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }
