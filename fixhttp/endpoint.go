package fixhttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
)

// Somewhat arbitrary buffer size for the channel that we use as a queue for incoming connection
// information. If the channel is full, the HTTP request handler will *not* block; it will just
// discard the information.
const incomingConnectionChannelBufferSize = 10

// Endpoint represents an endpoint on the server that can receive requests.
type Endpoint struct {
	owner       *Server
	id          string
	description string
	basePath    string
	handler     http.Handler
	contextFn   func(context.Context) context.Context
	newConns    chan IncomingRequestInfo
	activeConn  *IncomingRequestInfo
	cancels     []*context.CancelFunc
	logger      logging.Logger
	lock        sync.Mutex
	closing     sync.Once
}

// EndpointOption is the interface for optional configuration parameters of
// NewEndpoint.
type EndpointOption helpers.ConfigOption[Endpoint]

type endpointOptionContextFn struct {
	contextFn func(context.Context) context.Context
}

func (o endpointOptionContextFn) Configure(e *Endpoint) error {
	e.contextFn = o.contextFn
	return nil
}

// EndpointContextFn sets a transformation to apply to the Context of each
// incoming request before the handler sees it.
func EndpointContextFn(fn func(context.Context) context.Context) EndpointOption {
	return endpointOptionContextFn{fn}
}

type endpointOptionDescription struct {
	description string
}

func (o endpointOptionDescription) Configure(e *Endpoint) error {
	e.description = o.description
	return nil
}

// EndpointDescription sets a human-readable name for the endpoint, used in
// log and failure messages.
func EndpointDescription(description string) EndpointOption {
	return endpointOptionDescription{description}
}

// IncomingRequestInfo contains information about an HTTP request that was
// received by a mock endpoint.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	URL     url.URL
	Body    []byte
	Context context.Context
	Cancel  context.CancelFunc
}

func (e *Endpoint) serveHTTP(w http.ResponseWriter, r *http.Request, path string) {
	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			e.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = data
	}

	ctx, canceller := context.WithCancel(r.Context())
	if e.contextFn != nil {
		ctx = e.contextFn(ctx)
	}
	transformedReq := r.WithContext(ctx)
	url := *r.URL
	url.Path = path
	transformedReq.URL = &url
	if body != nil {
		transformedReq.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	incoming := &IncomingRequestInfo{
		Headers: r.Header,
		Method:  r.Method,
		URL:     url,
		Body:    body,
		Context: ctx,
		Cancel:  canceller,
	}

	e.lock.Lock()
	e.activeConn = incoming
	cancellerPtr := &canceller
	e.cancels = append(e.cancels, cancellerPtr)
	newConns := e.newConns
	e.lock.Unlock()

	if newConns == nil {
		// the endpoint is already closed
		e.logger.Printf("Received request to already-closed endpoint %s", r.URL)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	select { // non-blocking push
	case newConns <- *incoming:
		break
	default:
		e.logger.Printf("Incoming connection channel was full for %s", r.URL)
	}

	wrappedWriter := wrappedResponseWriter{w: w}
	e.handler.ServeHTTP(&wrappedWriter, transformedReq)

	switch wrappedWriter.status {
	case http.StatusNotFound:
		e.logger.Printf("Endpoint %q (%s) received %s request for unrecognized path %s", e.description, e.basePath,
			r.Method, path)
	case http.StatusMethodNotAllowed:
		e.logger.Printf("Endpoint %q (%s) received request with unsupported %s method for path %s", e.description,
			e.basePath, r.Method, path)
	}

	e.lock.Lock()
	for i, c := range e.cancels {
		if c == cancellerPtr { // can't compare functions with ==, but can compare pointers
			e.cancels = append(e.cancels[:i], e.cancels[i+1:]...)
			break
		}
	}
	e.lock.Unlock()
}

// BaseURL returns the full external URL of the endpoint. It is only valid
// once the owning server has been set up.
func (e *Endpoint) BaseURL() string {
	return e.owner.baseURL + e.basePath
}

// AwaitConnection waits for an incoming request to the endpoint.
func (e *Endpoint) AwaitConnection(timeout time.Duration) (IncomingRequestInfo, error) {
	maybeCxn := helpers.TryReceive(e.newConns, timeout)
	if maybeCxn.IsDefined() {
		return maybeCxn.Value(), nil
	}
	return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for an incoming request to %q (%s)", e.description,
		e.basePath)
}

// RequireConnection waits for an incoming request to the endpoint, and causes the test to fail
// and terminate if it timed out.
func (e *Endpoint) RequireConnection(t helpers.TestContext, timeout time.Duration) IncomingRequestInfo {
	return helpers.RequireValueWithMessage(t, e.newConns, timeout, "timed out waiting for request to %q (%s)",
		e.description, e.basePath)
}

// RequireNoMoreConnections causes the test to fail and terminate if there is another incoming request
// within the timeout.
func (e *Endpoint) RequireNoMoreConnections(t helpers.TestContext, timeout time.Duration) {
	helpers.RequireNoMoreValuesWithMessage(t, e.newConns, timeout,
		"did not expect another request to %q (%s), but got one", e.description, e.basePath)
}

// ActiveConnection returns information about the most recent request, if any.
func (e *Endpoint) ActiveConnection() *IncomingRequestInfo {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.activeConn
}

// Close unregisters the endpoint. Any subsequent requests to it will receive 404 errors.
// It also cancels the Context for every active request to that endpoint.
func (e *Endpoint) Close() {
	e.closing.Do(func() {
		e.logger.Printf("Closing endpoint %q (%s)", e.description, e.basePath)
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancellers := e.cancels
		e.cancels = nil
		close(e.newConns)
		e.newConns = nil
		e.lock.Unlock()

		for _, cancel := range cancellers {
			(*cancel)()
		}
	})
}

// wrappedResponseWriter is a way for us to monitor the status that is written to a ResponseWriter,
// so we can add some debug logging for 404 and 405 statuses.
type wrappedResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.status = status
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) { return ww.w.Write(data) }

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}
