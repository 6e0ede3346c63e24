// Package astroxtest runs a scripted stand-in for the ASTROX web API on a local
// httptest server. Each endpoint replays a list of canned replies and every request is
// recorded for later assertions.
//
//	srv := astroxtest.New(t)
//	srv.Script("/Propagator/TwoBody",
//		astroxtest.Status(503, "busy"),
//		astroxtest.Success(map[string]any{"Position": []any{1.0, 2.0, 3.0}}),
//	)
//	c, _ := httpclient.NewBuilder(nil).WithBaseURL(srv.URL).Build()
package astroxtest

import (
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// Reply is one canned response.
type Reply struct {
	Status int
	Body   string
	// Delay holds the response back; it ends early when the client goes away
	Delay time.Duration
	// Drop closes the connection without writing a response
	Drop bool
}

// Success replies 200 with fields plus IsSuccess=true.
func Success(fields map[string]any) Reply {
	body := maps.Clone(fields)
	if body == nil {
		body = map[string]any{}
	}
	body["IsSuccess"] = true
	return JSON(http.StatusOK, body)
}

// Failure replies 200 with IsSuccess=false and the given Message.
func Failure(message string) Reply {
	return JSON(http.StatusOK, map[string]any{"IsSuccess": false, "Message": message})
}

// JSON replies with v encoded as JSON.
func JSON(status int, v any) Reply {
	raw, err := json.Marshal(v)
	if err != nil {
		panic("astroxtest: " + err.Error())
	}
	return Reply{Status: status, Body: string(raw)}
}

// Status replies with a raw body.
func Status(status int, body string) Reply {
	return Reply{Status: status, Body: body}
}

// Hang holds the request for d before replying 200 {}; pair it with a shorter client
// timeout to provoke a TimeoutError.
func Hang(d time.Duration) Reply {
	return Reply{Status: http.StatusOK, Body: "{}", Delay: d}
}

// Drop closes the connection without a response.
func Drop() Reply {
	return Reply{Drop: true}
}

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body as an object, or returns nil.
func (r Request) JSON() map[string]any {
	var out map[string]any
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil
	}
	return out
}

// Server is a scripted fake ASTROX API.
type Server struct {
	URL string

	httpServer *httptest.Server
	mu         sync.Mutex
	scripts    map[string][]Reply
	requests   []Request
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{scripts: make(map[string][]Reply)}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Any("/*", s.handle)

	s.httpServer = httptest.NewServer(e)
	s.URL = s.httpServer.URL
	t.Cleanup(s.Close)
	return s
}

// Script queues replies for endpoint. Replies are used in order; the last one keeps
// answering once the list is exhausted. Endpoints without a script answer 404.
func (s *Server) Script(endpoint string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[endpoint] = append(s.scripts[endpoint], replies...)
}

// Requests returns the recorded requests for endpoint, or all of them when endpoint is "".
func (s *Server) Requests(endpoint string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if endpoint == "" || r.Path == endpoint {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many requests reached endpoint.
func (s *Server) Count(endpoint string) int {
	return len(s.Requests(endpoint))
}

// Close shuts the server down. It is safe to call more than once.
func (s *Server) Close() {
	s.httpServer.CloseClientConnections()
	s.httpServer.Close()
}

func (s *Server) handle(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	reply, ok := s.record(Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Header: req.Header.Clone(),
		Body:   body,
	})
	if !ok {
		return c.String(http.StatusNotFound, "no reply scripted for "+req.URL.Path)
	}

	if reply.Delay > 0 {
		timer := time.NewTimer(reply.Delay)
		defer timer.Stop()
		select {
		case <-req.Context().Done():
			return nil
		case <-timer.C:
		}
	}

	if reply.Drop {
		conn, _, err := http.NewResponseController(c.Response()).Hijack()
		if err != nil {
			return err
		}
		return conn.Close()
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	return c.Blob(status, echo.MIMEApplicationJSON, []byte(reply.Body))
}

func (s *Server) record(r Request) (Reply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r)
	queue := s.scripts[r.Path]
	if len(queue) == 0 {
		return Reply{}, false
	}
	reply := queue[0]
	if len(queue) > 1 {
		s.scripts[r.Path] = queue[1:]
	}
	return reply, true
}
