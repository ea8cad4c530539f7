package fixhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
)

// EntityOption is the interface for optional configuration parameters of
// Entity.
type EntityOption helpers.ConfigOption[ResourceEntity]

type entityOptionDescription struct {
	description string
}

func (o entityOptionDescription) Configure(e *ResourceEntity) error {
	e.description = o.description
	return nil
}

// EntityDescription sets a human-readable name for the entity, used in log
// messages.
func EntityDescription(description string) EntityOption {
	return entityOptionDescription{description}
}

type entityFixture struct {
	baseURL string
	params  interface{}
	options []EntityOption
}

// Entity returns a fixture for an entity that an external service creates on
// our behalf. Setup POSTs the parameters to the service's base URL and keeps
// the resource URL from the Location header of the response; teardown sends
// a DELETE to that URL so the service disposes of the entity.
//
// The format of params is defined by the service; this fixture simply calls
// json.Marshal to convert whatever it is to JSON.
func Entity(baseURL string, params interface{}, options ...EntityOption) fixture.Fixture {
	return entityFixture{baseURL: baseURL, params: params, options: options}
}

func (f entityFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	if f.baseURL == "" {
		return nil, errors.New("service base URL must not be empty")
	}
	e := &ResourceEntity{
		baseURL:     f.baseURL,
		params:      f.params,
		description: binding.Name,
		logger:      binding.Logger,
	}
	if err := helpers.ApplyOptions(e, f.options...); err != nil {
		return nil, err
	}
	return e, nil
}

// ResourceEntity represents an entity that we have asked an external service
// to create, and that tests will interact with.
type ResourceEntity struct {
	baseURL     string
	params      interface{}
	description string
	resourceURL string
	logger      logging.Logger
}

func (e *ResourceEntity) SetUp() error {
	data, err := json.Marshal(e.params)
	if err != nil {
		return err
	}

	e.logger.Printf("Creating entity (%s) with parameters: %s", e.description, string(data))
	_, headers, err := doRequest("POST", e.baseURL, data)
	if err != nil {
		return err
	}
	resourceURL := headers.Get("Location")
	if resourceURL == "" {
		return errors.New("service did not return a Location header with a resource URL")
	}
	if !strings.HasPrefix(resourceURL, "http:") {
		resourceURL = e.baseURL + resourceURL
	}
	e.resourceURL = resourceURL
	return nil
}

// TearDown tells the service to dispose of the entity.
func (e *ResourceEntity) TearDown() error {
	e.logger.Printf("Closing %s", e.resourceURL)
	_, _, err := doRequest("DELETE", e.resourceURL, nil)
	if err != nil {
		e.logger.Printf("DELETE request to service failed: %s", err)
	}
	return err
}

// URL returns the entity's resource URL. It is only valid once the fixture
// has been set up.
func (e *ResourceEntity) URL() string { return e.resourceURL }

// SendCommand sends a command with no parameters to the entity.
func (e *ResourceEntity) SendCommand(command string, responseOut interface{}) error {
	return e.SendCommandWithParams(map[string]interface{}{"command": command}, responseOut)
}

// SendCommandWithParams sends a command to the entity. If responseOut is
// non-nil, the response body is unmarshaled into it.
func (e *ResourceEntity) SendCommandWithParams(allParams interface{}, responseOut interface{}) error {
	data, _ := json.Marshal(allParams)
	e.logger.Printf("Sending command: %s", string(data))
	body, _, err := doRequest("POST", e.resourceURL, data)
	if err != nil {
		return err
	}
	if responseOut != nil {
		if body == nil {
			return errors.New("expected a response body but got none")
		}
		if err = json.Unmarshal(body, responseOut); err != nil {
			return err
		}
		e.logger.Printf("Response: %s", string(body))
	}
	return nil
}

func doRequest(method, url string, body []byte) ([]byte, http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	var respBody []byte
	if resp.Body != nil {
		respBody, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := ""
		if body != nil {
			message = " (" + string(body) + ")"
		}
		err = fmt.Errorf("service returned error %d for %s %s%s", resp.StatusCode, method, url, message)
	}
	return respBody, resp.Header, err
}
