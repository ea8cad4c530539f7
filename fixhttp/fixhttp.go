// Package fixhttp provides fixtures for HTTP-level testing: a local server
// that hosts any number of mock endpoints, and a client-side fixture for an
// entity that lives in an external service.
//
// The server fixture owns one real HTTP listener per instance. Tests add
// endpoints to it dynamically; each endpoint queues information about the
// requests it receives, so a test can both serve canned responses and make
// assertions about what was requested.
package fixhttp

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
)

const endpointPathPrefix = "/endpoints/"

const httpListenerTimeout = time.Second * 10

// ServerOption is the interface for optional configuration parameters of
// Endpoints.
type ServerOption helpers.ConfigOption[Server]

type serverOptionPort struct{ port int }

func (o serverOptionPort) Configure(s *Server) error {
	if o.port < 0 || o.port > 65535 {
		return fmt.Errorf("invalid port number %d", o.port)
	}
	s.port = o.port
	return nil
}

// Port makes the server listen on a fixed port instead of an ephemeral one.
func Port(port int) ServerOption { return serverOptionPort{port} }

type serverOptionSuppressLogLines struct{ patterns []string }

func (o serverOptionSuppressLogLines) Configure(s *Server) error {
	for _, p := range o.patterns {
		r, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid log filter pattern %q: %w", p, err)
		}
		s.logFilters = append(s.logFilters, r)
	}
	return nil
}

// SuppressLogLines adds regex patterns for lines that should be dropped from
// the server's error log, beyond the built-in ones for routine connection
// noise.
func SuppressLogLines(patterns ...string) ServerOption {
	return serverOptionSuppressLogLines{patterns}
}

type serverFixture struct {
	options []ServerOption
}

// Endpoints returns a fixture that runs a local HTTP server for mock
// endpoints. Setup starts the listener and waits until it is provably
// serving requests; teardown closes every endpoint and stops the server.
func Endpoints(options ...ServerOption) fixture.Fixture {
	return serverFixture{options: options}
}

func (f serverFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	s := &Server{
		logger:    binding.Logger,
		endpoints: make(map[string]*Endpoint),
		logFilters: []*regexp.Regexp{
			regexp.MustCompile("broken pipe"),
			regexp.MustCompile("connection reset by peer"),
			regexp.MustCompile("TLS handshake error"),
		},
	}
	if err := helpers.ApplyOptions(s, f.options...); err != nil {
		return nil, err
	}
	return s, nil
}

// Server hosts mock endpoints on a single HTTP listener.
type Server struct {
	port           int
	logger         logging.Logger
	logFilters     []*regexp.Regexp
	server         *http.Server
	baseURL        string
	endpoints      map[string]*Endpoint
	lastEndpointID int
	lock           sync.Mutex
}

func (s *Server) SetUp() error {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return err
	}
	s.baseURL = "http://" + listener.Addr().String()

	router := mux.NewRouter()
	router.PathPrefix(endpointPathPrefix + "{id}").HandlerFunc(s.serveEndpoint)
	router.NotFoundHandler = http.HandlerFunc(s.serveUnknown)

	s.server = &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "HEAD" {
				w.WriteHeader(200) // we use this to test whether our own listener is active yet
				return
			}
			router.ServeHTTP(w, r)
		}),
		ErrorLog:          log.New(newFilteredWriter(loggerWriter{s.logger}, s.logFilters), "", 0),
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		_ = s.server.Serve(listener)
	}()

	// Wait till the server is definitely listening for requests before we let any tests run
	deadline := time.NewTimer(httpListenerTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			_ = s.server.Close()
			return fmt.Errorf("could not detect own listener at %s", s.baseURL)
		case <-ticker.C:
			_, _, err := doRequest("HEAD", s.baseURL, nil)
			if err == nil {
				s.logger.Printf("listening at %s", s.baseURL)
				return nil
			}
		}
	}
}

func (s *Server) TearDown() error {
	s.lock.Lock()
	endpoints := make([]*Endpoint, 0, len(s.endpoints))
	for _, e := range s.endpoints {
		endpoints = append(endpoints, e)
	}
	s.lock.Unlock()
	for _, e := range endpoints {
		e.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

// BaseURL returns the external base URL of the server. It is only valid once
// the fixture has been set up.
func (s *Server) BaseURL() string { return s.baseURL }

// NewEndpoint adds a new endpoint that can receive requests.
//
// The specified handler will be called for all incoming requests to the
// endpoint's base URL or any subpath of it. For instance, if the generated
// base URL (as reported by Endpoint.BaseURL()) is
// http://localhost:8111/endpoints/3, then it can also receive requests to
// http://localhost:8111/endpoints/3/some/subpath.
//
// When the handler is called, the server rewrites the request URL first so
// that the handler sees only the subpath. It also attaches a Context to the
// request whose Done channel will be closed if Close is called on the
// endpoint.
func (s *Server) NewEndpoint(handler http.Handler, options ...EndpointOption) *Endpoint {
	e := &Endpoint{
		owner:    s,
		handler:  handler,
		newConns: make(chan IncomingRequestInfo, incomingConnectionChannelBufferSize),
		logger:   s.logger,
	}
	_ = helpers.ApplyOptions(e, options...)
	s.lock.Lock()
	s.lastEndpointID++
	e.id = strconv.Itoa(s.lastEndpointID)
	e.basePath = endpointPathPrefix + e.id
	s.endpoints[e.id] = e
	s.lock.Unlock()

	return e
}

func (s *Server) serveUnknown(w http.ResponseWriter, r *http.Request) {
	s.logger.Printf("Received request for unrecognized URL path %s", r.URL.Path)
	w.WriteHeader(404)
}

func (s *Server) serveEndpoint(w http.ResponseWriter, r *http.Request) {
	endpointID := mux.Vars(r)["id"]
	path := strings.TrimPrefix(r.URL.Path, endpointPathPrefix+endpointID)
	if path == "" {
		path = "/"
	}

	s.lock.Lock()
	e := s.endpoints[endpointID]
	s.lock.Unlock()
	if e == nil {
		s.logger.Printf("Received request for unrecognized endpoint %s", r.URL.Path)
		w.WriteHeader(404)
		return
	}

	e.serveHTTP(w, r, path)
}

// loggerWriter adapts a logging.Logger to io.Writer for use as the server's
// error log destination.
type loggerWriter struct {
	logger logging.Logger
}

func (lw loggerWriter) Write(data []byte) (int, error) {
	lw.logger.Printf("%s", strings.TrimRight(string(data), "\n"))
	return len(data), nil
}
