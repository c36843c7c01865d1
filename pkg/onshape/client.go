package onshape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
)

// DefaultBaseURL is the Onshape REST API root used when no base URL is configured.
const DefaultBaseURL = "https://cad.onshape.com/api/v12"

// Client talks to the Onshape REST API with basic authentication.
// It has no request timeout and does not retry; every call is a single blocking request.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Onshape API client from a basic-auth token,
// see Credentials.Token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ParseDocumentURL extracts the document, workspace/version/microversion and element
// identifiers from an Onshape document URL of the form
// https://cad.onshape.com/documents/<did>/<wvm>/<wvmid>/e/<eid>.
// wvm is the literal expected in the workspace segment ("w", "v" or "m").
func ParseDocumentURL(documentURL, wvm string) (DocumentRef, error) {
	re := regexp.MustCompile(`/documents/([^/?#]+)/` + regexp.QuoteMeta(wvm) + `/([^/?#]+)/e/([^/?#]+)`)
	matches := re.FindStringSubmatch(documentURL)

	if len(matches) < 4 {
		return DocumentRef{}, &FormatError{
			URL:      documentURL,
			Expected: fmt.Sprintf("https://cad.onshape.com/documents/<document id>/%s/<%s id>/e/<element id>", wvm, wvm),
		}
	}

	return DocumentRef{
		DocumentID: matches[1],
		WVM:        wvm,
		WVMID:      matches[2],
		ElementID:  matches[3],
	}, nil
}

// GetParts lists the parts of the element.
func (c *Client) GetParts(ref DocumentRef) ([]Part, error) {
	u := fmt.Sprintf("%s/parts/d/%s/%s/%s/e/%s?withThumbnails=false&includePropertyDefaults=false",
		c.baseURL, ref.DocumentID, ref.WVM, ref.WVMID, ref.ElementID)

	var parts []Part
	if err := c.getJSON("parts", u, &parts); err != nil {
		return nil, err
	}

	return parts, nil
}

// GetConfiguration lists the configuration parameters of the element in API order.
func (c *Client) GetConfiguration(ref DocumentRef) ([]ConfigParameter, error) {
	u := fmt.Sprintf("%s/elements/d/%s/%s/%s/e/%s/configuration",
		c.baseURL, ref.DocumentID, ref.WVM, ref.WVMID, ref.ElementID)

	var configResp ConfigurationResponse
	if err := c.getJSON("configuration", u, &configResp); err != nil {
		return nil, err
	}

	return configResp.Parameters(), nil
}

// EncodeConfiguration asks the API for the encoded configuration id of the given assignments.
func (c *Client) EncodeConfiguration(ref DocumentRef, assignments []ParameterAssignment) (*EncodedConfiguration, error) {
	u := fmt.Sprintf("%s/elements/d/%s/e/%s/configurationencodings", c.baseURL, ref.DocumentID, ref.ElementID)

	payload, err := json.Marshal(struct {
		Parameters []ParameterAssignment `json:"parameters"`
	}{Parameters: assignments})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := c.newRequest(http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError("encode", resp, "")
	}

	var encoded EncodedConfiguration
	if err := json.NewDecoder(resp.Body).Decode(&encoded); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if encoded.EncodedID == "" {
		return nil, &RequestError{Op: "encode", Status: resp.StatusCode, URL: u, Message: "response has no encodedId"}
	}

	return &encoded, nil
}

// ExportSTL triggers a synchronous binary STL export of one part in the given configuration
// and returns the download location the API redirects to. Redirects are not followed.
func (c *Client) ExportSTL(ref DocumentRef, partID, configuration string) (string, error) {
	q := url.Values{}
	q.Set("partIds", partID)
	q.Set("mode", "binary")
	q.Set("grouping", "true")
	q.Set("units", "millimeter")
	q.Set("configuration", configuration)

	u := fmt.Sprintf("%s/partstudios/d/%s/%s/%s/e/%s/stl?%s",
		c.baseURL, ref.DocumentID, ref.WVM, ref.WVMID, ref.ElementID, q.Encode())

	req, err := c.newRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "*/*")

	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return "", newRequestError("export", resp, "bad response of STL exporting: expected a redirect")
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", newRequestError("export", resp, "bad response of STL exporting: no redirect location")
	}

	// Resolve relative locations against the request URL.
	loc, err := resp.Request.URL.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid redirect location %q: %w", location, err)
	}

	return loc.String(), nil
}

// Download fetches the file behind a download location returned by ExportSTL.
// The caller must close the returned body. A non-success status is reported as a
// *RequestError and no body is returned.
func (c *Client) Download(downloadURL string) (io.ReadCloser, error) {
	req, err := c.newRequest(http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newRequestError("download", resp, "")
	}

	return resp.Body, nil
}

func (c *Client) newRequest(method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+c.token)
	return req, nil
}

func (c *Client) getJSON(op, u string, v any) error {
	req, err := c.newRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newRequestError(op, resp, "")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

func newRequestError(op string, resp *http.Response, message string) *RequestError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	reqErr := &RequestError{
		Op:      op,
		Status:  resp.StatusCode,
		Body:    string(body),
		Message: message,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		reqErr.URL = resp.Request.URL.String()
	}
	return reqErr
}
