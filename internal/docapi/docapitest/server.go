// Package docapitest provides an in-memory document API for tests.
package docapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/five82/editer/internal/docapi"
)

// Server is a fake document API backed by a map.
type Server struct {
	URL string

	mu        sync.Mutex
	docs      map[string]docapi.Document
	gets      int
	creates   int
	updates   int
	failNext  int
	delay     time.Duration
	lastBody  string
	inFlight  int
	maxFlight int
	release   chan struct{}
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{docs: make(map[string]docapi.Document)}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/documents", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/documents/{shareID}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/documents/{shareID}", s.handleUpdate).Methods(http.MethodPut)

	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		s.Unblock()
		ts.Close()
	})
	s.URL = ts.URL
	return s
}

// Put seeds a document and returns it.
func (s *Server) Put(shareID, content string) docapi.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	doc := docapi.Document{
		ID:        uuid.NewString(),
		ShareID:   shareID,
		Content:   content,
		CreatedAt: docapi.Timestamp{Time: now},
		UpdatedAt: docapi.Timestamp{Time: now},
	}
	s.docs[shareID] = doc
	return doc
}

// Document returns the stored document for shareID.
func (s *Server) Document(shareID string) (docapi.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[shareID]
	return doc, ok
}

// FailNext makes the next request answer with status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	s.failNext = status
	s.mu.Unlock()
}

// SetDelay delays every response.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Block holds every request until Unblock is called.
func (s *Server) Block() {
	s.mu.Lock()
	if s.release == nil {
		s.release = make(chan struct{})
	}
	s.mu.Unlock()
}

// Unblock releases held requests.
func (s *Server) Unblock() {
	s.mu.Lock()
	if s.release != nil {
		close(s.release)
		s.release = nil
	}
	s.mu.Unlock()
}

// Counts returns how many get, create and update calls were served.
func (s *Server) Counts() (gets, creates, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.creates, s.updates
}

// InFlight returns the current and the maximum observed number of
// concurrent requests.
func (s *Server) InFlight() (current, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight, s.maxFlight
}

// LastContent returns the content of the most recent create or update.
func (s *Server) LastContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody
}

func (s *Server) begin(w http.ResponseWriter) bool {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxFlight {
		s.maxFlight = s.inFlight
	}
	delay := s.delay
	release := s.release
	status := s.failNext
	s.failNext = 0
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
		return false
	}
	return true
}

func (s *Server) end() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	defer s.end()
	if !s.begin(w) {
		return
	}
	shareID := mux.Vars(r)["shareID"]

	s.mu.Lock()
	s.gets++
	doc, ok := s.docs[shareID]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Document not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer s.end()
	if !s.begin(w) {
		return
	}
	req, ok := decodeContent(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	doc := docapi.Document{
		ID:        uuid.NewString(),
		ShareID:   newShareID(),
		Content:   req.Content,
		CreatedAt: docapi.Timestamp{Time: now},
		UpdatedAt: docapi.Timestamp{Time: now},
	}

	s.mu.Lock()
	s.creates++
	s.lastBody = req.Content
	s.docs[doc.ShareID] = doc
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	defer s.end()
	if !s.begin(w) {
		return
	}
	req, ok := decodeContent(w, r)
	if !ok {
		return
	}
	shareID := mux.Vars(r)["shareID"]

	s.mu.Lock()
	s.updates++
	s.lastBody = req.Content
	doc, found := s.docs[shareID]
	if found {
		doc.Content = req.Content
		doc.UpdatedAt = docapi.Timestamp{Time: time.Now().UTC()}
		s.docs[shareID] = doc
	}
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Document not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func decodeContent(w http.ResponseWriter, r *http.Request) (docapi.ContentRequest, bool) {
	var req docapi.ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return req, false
	}
	return req, true
}

func newShareID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
