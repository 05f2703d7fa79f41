package command

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ZaguanLabs/phrasebook"
	"github.com/ZaguanLabs/phrasebook/store"
)

const maxRequestBytes = 4 << 20

// Server serves Commands as JSON over HTTP.
type Server struct {
	commands *Commands
	mux      *http.ServeMux
	server   *http.Server
}

// NewServer creates a Server for c.
func NewServer(c *Commands) *Server {
	s := &Server{
		commands: c,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// NewHandler returns the HTTP handler for c.
func NewHandler(c *Commands) http.Handler {
	return NewServer(c).Handler()
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /translate", s.handleTranslate)
	s.mux.HandleFunc("POST /save", s.handleSave)
	s.mux.HandleFunc("POST /load", s.handleLoad)
	s.mux.HandleFunc("GET /documents", s.handleList)
	s.mux.HandleFunc("POST /document", s.handleDocument)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

type translateRequest struct {
	Phrase string `json:"phrase"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

type saveRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type loadRequest struct {
	Name string `json:"name"`
}

type loadResponse struct {
	Content string `json:"content"`
}

type listResponse struct {
	Names []string `json:"names"`
}

type documentRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type documentResponse struct {
	Translations map[string]string `json:"translations"`
	Failures     map[string]string `json:"failures,omitempty"`
	Translated   int               `json:"translated"`
	Cached       int               `json:"cached"`
	Skipped      int               `json:"skipped"`
	Total        int               `json:"total"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	translation, err := s.commands.Translate(r.Context(), req.Phrase)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{Translation: translation})
}

// handleSave always answers 204; save failures are only logged.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	s.commands.Save(r.Context(), req.Name, req.Content)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	content, err := s.commands.Load(r.Context(), req.Name)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{Content: content})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.commands.List(r.Context())
	if err != nil {
		writeCommandError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, listResponse{Names: names})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = phrasebook.ContentTypeDraft
	}
	result, err := s.commands.TranslateDocument(r.Context(), req.Content, req.Type)
	if err != nil {
		writeCommandError(w, err)
		return
	}

	resp := documentResponse{
		Translations: result.Translations,
		Translated:   result.TranslatedCount,
		Cached:       result.CachedCount,
		Skipped:      result.SkippedCount,
		Total:        result.TotalPhrases,
	}
	if len(result.Failures) > 0 {
		resp.Failures = make(map[string]string, len(result.Failures))
		for phrase, err := range result.Failures {
			resp.Failures[phrase] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": phrasebook.FullVersion(),
		"source":  s.commands.translator.SourceLang(),
		"target":  s.commands.translator.TargetLang(),
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// StatusFor maps a command error to an HTTP status and an error kind.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrListUnsupported):
		return http.StatusNotImplemented, "unsupported"
	case errors.Is(err, ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	}

	kind := phrasebook.Kind(err)
	switch kind {
	case phrasebook.KindInvalidPhrase, phrasebook.KindProcessor:
		return http.StatusBadRequest, string(kind)
	case phrasebook.KindEmptyResult:
		return http.StatusUnprocessableEntity, string(kind)
	case phrasebook.KindDecode:
		return http.StatusBadGateway, string(kind)
	case phrasebook.KindTransport:
		return http.StatusServiceUnavailable, string(kind)
	case phrasebook.KindMissingCredential:
		return http.StatusInternalServerError, string(kind)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, string(phrasebook.KindUnknown)
}

func writeCommandError(w http.ResponseWriter, err error) {
	status, kind := StatusFor(err)
	writeError(w, status, kind, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
		"kind":  kind,
	})
}
