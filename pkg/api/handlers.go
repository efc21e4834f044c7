package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/lmptool/pkg/codec"
	"github.com/ssargent/lmptool/pkg/interchange"
	"github.com/ssargent/lmptool/pkg/library"
)

// Server holds the API server state
type Server struct {
	library Library
	config  ServerConfig
	metrics *Metrics
	log     *zap.Logger
}

// NewServer creates a new API server
func NewServer(lib Library, config ServerConfig, metrics *Metrics, log *zap.Logger) *Server {
	if config.DefaultFormat == "" {
		config.DefaultFormat = interchange.DefaultFormat
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		library: lib,
		config:  config,
		metrics: metrics,
		log:     log,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleDecode converts a raw recording in the body into a document.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	format, err := s.formatParam(r, "")
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	doc, warnings, err := s.decode(r, body)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	out, err := interchange.Marshal(doc, format)
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for _, warning := range warnings {
		w.Header().Add(WarningHeader, warning.String())
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleEncode converts a document in the body back into a raw recording.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	format, err := s.formatParam(r, r.Header.Get("Content-Type"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	doc, err := interchange.Unmarshal(body, format)
	var data []byte
	if err == nil {
		data, err = codec.NewRecordCodec().Encode(doc)
	}
	if s.metrics != nil {
		s.metrics.RecordConversion("encode", err == nil, len(data), time.Since(start))
	}
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport stores the raw recording in the body in the library.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "unnamed"
	}

	entry, err := s.library.Import(name, body)
	s.recordLibrary("import", err == nil)
	switch {
	case errors.Is(err, library.ErrDuplicate):
		sendJSON(w, http.StatusConflict, APIResponse{Success: false, Data: entry, Error: err.Error()})
		return
	case err != nil:
		sendError(w, err.Error(), statusFor(err))
		return
	}

	s.log.Info("imported recording", zap.String("id", entry.ID), zap.String("name", name), zap.Int("tics", entry.Tics))
	s.refreshLibraryGauge()
	sendJSON(w, http.StatusCreated, APIResponse{Success: true, Data: entry})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.library.List()
	s.recordLibrary("list", err == nil)
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if s.metrics != nil {
		s.metrics.SetLibraryRecordings(len(entries))
	}
	sendSuccess(w, entries)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, _, err := s.library.Get(chi.URLParam(r, "id"))
	s.recordLibrary("get", err == nil)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}
	sendSuccess(w, entry)
}

func (s *Server) handleGetRaw(w http.ResponseWriter, r *http.Request) {
	entry, data, err := s.library.Get(chi.URLParam(r, "id"))
	s.recordLibrary("get", err == nil)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": entry.Name + ".lmp"}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	format, err := s.formatParam(r, "")
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, data, err := s.library.Get(chi.URLParam(r, "id"))
	s.recordLibrary("get", err == nil)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}

	doc, warnings, err := s.decode(r, data)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}
	out, err := interchange.Marshal(doc, format)
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for _, warning := range warnings {
		w.Header().Add(WarningHeader, warning.String())
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.library.Delete(id)
	s.recordLibrary("delete", err == nil)
	if err != nil {
		sendError(w, err.Error(), statusFor(err))
		return
	}
	s.refreshLibraryGauge()
	sendSuccess(w, map[string]string{"id": id, "status": "deleted"})
}

// decode runs the codec, collecting warnings and recording metrics. Strictness
// comes from the server config unless the request sets ?strict=.
func (s *Server) decode(r *http.Request, data []byte) (*codec.Document, []codec.Warning, error) {
	strict := s.config.Strict
	if v := r.URL.Query().Get("strict"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: strict=%q", errBadRequest, v)
		}
		strict = parsed
	}

	var warnings []codec.Warning
	c := codec.NewRecordCodec(
		codec.WithStrict(strict),
		codec.WithWarningHandler(func(warning codec.Warning) {
			warnings = append(warnings, warning)
			if s.metrics != nil {
				s.metrics.RecordWarning(warning.Kind.String())
			}
			s.log.Warn("decode warning", zap.Stringer("kind", warning.Kind), zap.String("detail", warning.Message))
		}),
	)

	start := time.Now()
	doc, err := c.Decode(data)
	if s.metrics != nil {
		s.metrics.RecordConversion("decode", err == nil, len(data), time.Since(start))
	}
	return doc, warnings, err
}

// formatParam resolves the document format from ?format=, then the content
// type, then the server default.
func (s *Server) formatParam(r *http.Request, contentType string) (interchange.Format, error) {
	if name := r.URL.Query().Get("format"); name != "" {
		return interchange.ParseFormat(name)
	}
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			for _, f := range interchange.Formats() {
				if f.ContentType() == mediaType {
					return f, nil
				}
			}
		}
	}
	return s.config.DefaultFormat, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if len(body) == 0 {
		sendError(w, "Request body is empty", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (s *Server) recordLibrary(operation string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordLibraryOperation(operation, success)
	}
}

func (s *Server) refreshLibraryGauge() {
	if s.metrics == nil {
		return
	}
	entries, err := s.library.List()
	if err != nil {
		s.log.Warn("failed to count library", zap.Error(err))
		return
	}
	s.metrics.SetLibraryRecordings(len(entries))
}

var errBadRequest = errors.New("bad request")

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, codec.ErrMalformedInput),
		errors.Is(err, codec.ErrRange),
		errors.Is(err, codec.ErrSentinelMismatch),
		errors.Is(err, codec.ErrFrameAlignment),
		errors.Is(err, interchange.ErrUnknownFormat),
		errors.Is(err, library.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
