package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines one canned response of the mock engine server.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockEngine is a configurable reasoning-engine HTTP server for testing
// provider adapters.
type MockEngine struct {
	server *httptest.Server
	mu     sync.RWMutex
	queues map[string][]MockResponse

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastRequestBody   []byte
	LastRequestPath   string
}

// NewMockEngine creates a new mock engine server.
func NewMockEngine() *MockEngine {
	mock := &MockEngine{
		queues: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastRequestBody = body
		mock.LastRequestPath = r.URL.Path

		resp, ok := mock.next(r.URL.Path)
		mock.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"message":"no response configured"}}`))
			return
		}
		resp.write(w)
	}))

	return mock
}

// next pops the next response for path; the last one is repeated.
// Must be called with the lock held.
func (m *MockEngine) next(path string) (MockResponse, bool) {
	queue := m.queues[path]
	if len(queue) == 0 {
		return MockResponse{}, false
	}
	resp := queue[0]
	if len(queue) > 1 {
		m.queues[path] = queue[1:]
	}
	return resp, true
}

func (r MockResponse) write(w http.ResponseWriter) {
	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}
	w.Header().Set("Content-Type", "application/json")
	for key, value := range r.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(r.StatusCode)
	if r.Body != "" {
		w.Write([]byte(r.Body))
	}
}

// URL returns the mock server URL.
func (m *MockEngine) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockEngine) Close() {
	m.server.Close()
}

// SetResponse answers every request to path with resp.
func (m *MockEngine) SetResponse(path string, resp MockResponse) {
	m.SetSequence(path, resp)
}

// SetSequence answers requests to path with resps in order, repeating the
// last one once the sequence is used up.
func (m *MockEngine) SetSequence(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[path] = append([]MockResponse(nil), resps...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockEngine) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastRequestBody returns the body of the most recent request.
func (m *MockEngine) GetLastRequestBody() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestBody
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockEngine) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// NewJSONResponse creates a 200 OK response with body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: body}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":{"message":"Rate limit exceeded"}}`,
		Headers:    map[string]string{"Retry-After": "1"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":{"message":"Internal server error"}}`,
	}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse(message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"error":{"message":"` + message + `"}}`,
	}
}
