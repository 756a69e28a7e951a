// Package mockdatagov implements a minimal datastore_search-compatible API
// surface for tests and local smoke runs.
package mockdatagov

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Call records a request made to the mock service.
type Call struct {
	ResourceID string
	Offset     int
	Limit      int
}

// Server serves paginated records for configured resources.
type Server struct {
	mu        sync.Mutex
	resources map[string][]map[string]any
	calls     []Call

	// maxLimit, when > 0, rejects any request with limit above it using 413.
	maxLimit int

	// timeoutsRemaining makes the next N requests stall past client timeouts.
	timeoutsRemaining int
	stallFor          time.Duration

	// failStatus, when != 0, answers every request with that status.
	failStatus int

	// malformedBody, when set, is returned verbatim instead of a valid
	// search response.
	malformedBody string
}

// New constructs an empty mock server.
func New() *Server {
	return &Server{
		resources: make(map[string][]map[string]any),
		stallFor:  5 * time.Second,
	}
}

// SetResource installs the record set served for a resource id.
func (s *Server) SetResource(id string, records []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[id] = records
}

// RejectLimitsAbove makes the server answer 413 to any request whose limit
// exceeds n.
func (s *Server) RejectLimitsAbove(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxLimit = n
}

// StallNextRequests makes the next n requests hang for d before answering,
// which trips client request timeouts shorter than d.
func (s *Server) StallNextRequests(n int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeoutsRemaining = n
	s.stallFor = d
}

// FailWithStatus makes every request answer with the given status code.
// Status 0 restores normal behavior.
func (s *Server) FailWithStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = code
}

// RespondMalformed makes every request answer 200 with the given body.
// An empty body restores normal behavior.
func (s *Server) RespondMalformed(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformedBody = body
}

// Calls returns a snapshot of requests served so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handler returns an http.Handler serving the datastore_search action.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/action/datastore_search", s.handleSearch)
	return mux
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resourceID := strings.TrimSpace(q.Get("resource_id"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	s.mu.Lock()
	s.calls = append(s.calls, Call{ResourceID: resourceID, Offset: offset, Limit: limit})
	records, known := s.resources[resourceID]
	maxLimit := s.maxLimit
	failStatus := s.failStatus
	malformed := s.malformedBody
	stall := time.Duration(0)
	if s.timeoutsRemaining > 0 {
		s.timeoutsRemaining--
		stall = s.stallFor
	}
	s.mu.Unlock()

	if stall > 0 {
		select {
		case <-time.After(stall):
		case <-r.Context().Done():
			return
		}
	}
	if failStatus != 0 {
		http.Error(w, http.StatusText(failStatus), failStatus)
		return
	}
	if malformed != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(malformed))
		return
	}
	if !known {
		http.Error(w, "unknown resource", http.StatusNotFound)
		return
	}
	if maxLimit > 0 && limit > maxLimit {
		http.Error(w, "requested limit too large", http.StatusRequestEntityTooLarge)
		return
	}
	if limit <= 0 {
		limit = 100
	}

	page := records
	if offset >= len(records) {
		page = nil
	} else {
		end := offset + limit
		if end > len(records) {
			end = len(records)
		}
		page = records[offset:end]
	}

	resp := map[string]any{
		"result": map[string]any{
			"records": page,
			"total":   len(records),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
