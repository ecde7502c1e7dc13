package testutil

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/emmanuelhcpk/wolmo-networking/endpoint"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Reply is one scripted response of a route.
type Reply struct {
	Status  int
	Body    string
	Headers map[string]string
}

// Route scripts the replies of one method and gin path pattern. Replies are
// served in order; the last one repeats.
type Route struct {
	Method  string
	Path    string
	Replies []Reply
}

// RecordedRequest is a request received by an APIServer.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	Body    []byte
}

// APIServer is a fake remote API: a gin engine served by httptest.
type APIServer struct {
	*httptest.Server
	engine *gin.Engine

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewAPIServer starts a server for routes and closes it when the test ends.
func NewAPIServer(t testing.TB, routes ...Route) *APIServer {
	t.Helper()

	s := &APIServer{engine: gin.New()}
	s.engine.Use(s.record)
	for _, r := range routes {
		s.Handle(r)
	}

	s.Server = httptest.NewServer(s.engine)
	t.Cleanup(s.Close)
	return s
}

// Engine returns the gin engine for registering custom handlers.
func (s *APIServer) Engine() *gin.Engine {
	return s.engine
}

// Handle registers a scripted route.
func (s *APIServer) Handle(r Route) {
	var mu sync.Mutex
	next := 0
	s.engine.Handle(r.Method, r.Path, func(c *gin.Context) {
		if len(r.Replies) == 0 {
			c.Status(http.StatusOK)
			return
		}
		mu.Lock()
		reply := r.Replies[min(next, len(r.Replies)-1)]
		next++
		mu.Unlock()

		for k, v := range reply.Headers {
			c.Header(k, v)
		}
		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.Data(status, "application/json", []byte(reply.Body))
	})
}

// Endpoint returns an endpoint configuration pointing at the server.
func (s *APIServer) Endpoint(subPath string) endpoint.Config {
	u, _ := url.Parse(s.URL)
	host, portStr, _ := net.SplitHostPort(u.Host)
	port, _ := strconv.Atoi(portStr)
	return endpoint.Config{
		Secure:  u.Scheme == "https",
		Host:    host,
		Port:    port,
		SubPath: subPath,
	}
}

// Requests returns a copy of every request received so far.
func (s *APIServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

func (s *APIServer) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:  c.Request.Method,
		Path:    c.Request.URL.Path,
		Query:   c.Request.URL.Query(),
		Headers: c.Request.Header.Clone(),
		Body:    body,
	})
	s.mu.Unlock()

	c.Next()
}
