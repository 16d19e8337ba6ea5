package testutil

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const csrfCookieName = "studio_csrf"

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client drives a test server like a browser: it keeps cookies, does not
// follow redirects and adds the CSRF token to form posts.
type Client struct {
	t    testing.TB
	base *url.URL
	http *http.Client
}

// NewClient returns a Client bound to ts.
func NewClient(t testing.TB, ts *httptest.Server) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	base, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return &Client{
		t:    t,
		base: base,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get requests path.
func (c *Client) Get(path string) Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base.String()+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	return c.do(req)
}

// PostForm submits values to path with the session CSRF token.
func (c *Client) PostForm(path string, values url.Values) Response {
	c.t.Helper()
	return c.post(path, values, nil)
}

// PostHTMX submits values as an htmx request.
func (c *Client) PostHTMX(path string, values url.Values) Response {
	c.t.Helper()
	return c.post(path, values, http.Header{"HX-Request": {"true"}})
}

// Cookie returns the named cookie held for the server, if any.
func (c *Client) Cookie(name string) *http.Cookie {
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func (c *Client) post(path string, values url.Values, header http.Header) Response {
	c.t.Helper()
	form := url.Values{}
	for k, v := range values {
		form[k] = v
	}
	form.Set("csrf_token", c.csrfToken())
	req, err := http.NewRequest(http.MethodPost, c.base.String()+path, strings.NewReader(form.Encode()))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	return c.do(req)
}

func (c *Client) csrfToken() string {
	c.t.Helper()
	if cookie := c.Cookie(csrfCookieName); cookie != nil {
		return cookie.Value
	}
	c.Get("/")
	cookie := c.Cookie(csrfCookieName)
	if cookie == nil {
		c.t.Fatalf("no csrf cookie issued")
	}
	return cookie.Value
}

func (c *Client) do(req *http.Request) Response {
	c.t.Helper()
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: body}
}
