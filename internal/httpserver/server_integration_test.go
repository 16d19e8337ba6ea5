package httpserver_test

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useflyyer/studio/internal/httpserver/ui"
	"github.com/useflyyer/studio/internal/settings"
	"github.com/useflyyer/studio/internal/testutil"
)

const defaultFrameSrc = "http://localhost:7777/main.html?title=Hello%20World&_w=1200&_h=630"

func frameSources(doc *goquery.Document) []string {
	return testutil.AttrValues(doc, "iframe.frame", "src")
}

func hasSettingsCookie(resp testutil.Response) bool {
	for _, c := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(c, settings.CookieName+"=") {
			return true
		}
	}
	return false
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Get("/healthz")
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, "ok", string(resp.Body))
}

func TestStudioRendersDefaults(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Get("/")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "no-store, max-age=0", resp.Header.Get("Cache-Control"))

	doc := testutil.ParseHTML(t, resp.Body)
	assert.Equal(t, "Flayyer Studio", doc.Find("title").First().Text())

	base, _ := doc.Find("input#base").Attr("value")
	assert.Equal(t, "http://localhost:7777", base)
	tmpl, _ := doc.Find("input#template").Attr("value")
	assert.Equal(t, "main", tmpl)
	assert.Equal(t, settings.DefaultVariables, doc.Find("textarea#variables").Text())
	assert.Contains(t, doc.Find(".help-panel").Text(), "npm start")

	assert.Equal(t, []string{defaultFrameSrc}, frameSources(doc))
	assert.Equal(t, "1200px x 630px", doc.Find(".frame-size").First().Text())
	assert.True(t, doc.Find(`button[data-mode="banner"]`).HasClass("is-active"))
	assert.False(t, doc.Find(`button[data-mode="square"]`).HasClass("is-active"))
	assert.Equal(t, 4, doc.Find("button[data-mode]").Length())

	style, _ := doc.Find("iframe.frame").Attr("style")
	assert.Contains(t, style, "scale(0.5)")
	container, _ := doc.Find(".frame-container").Attr("style")
	assert.Equal(t, "width: 600px; height: 315px;", container)
}

func TestStudioReadsQueryParams(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	doc := testutil.ParseHTML(t, client.Get("/?template=hero&host=example.test&port=8080").Body)

	base, _ := doc.Find("input#base").Attr("value")
	assert.Equal(t, "http://example.test:8080", base)
	assert.Equal(t, []string{"http://example.test:8080/hero.html?title=Hello%20World&_w=1200&_h=630"}, frameSources(doc))
}

func TestStudioUsesConfiguredDefaults(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t, testutil.WithDefaults(ui.Defaults{Host: "127.0.0.1", Port: "9000", Template: "card"}))
	doc := testutil.ParseHTML(t, testutil.NewClient(t, ts).Get("/").Body)
	assert.Equal(t, []string{"http://127.0.0.1:9000/card.html?title=Hello%20World&_w=1200&_h=630"}, frameSources(doc))
}

func TestSubmitInvalidBaseKeepsSettings(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.PostForm("/", url.Values{
		"base":      {"not a url"},
		"template":  {"main"},
		"variables": {"{title: 'Changed'}"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.False(t, hasSettingsCookie(resp), "settings must not be saved on error")

	doc := testutil.ParseHTML(t, resp.Body)
	assert.Equal(t, 1, doc.Find(`[data-error="base"]`).Length())
	assert.True(t, doc.Find("input#base").HasClass("is-danger"))
	value, _ := doc.Find("input#base").Attr("value")
	assert.Equal(t, "not a url", value, "submitted value is shown back")
	assert.Equal(t, []string{defaultFrameSrc}, frameSources(doc), "frames keep the applied state")

	after := testutil.ParseHTML(t, client.Get("/").Body)
	assert.Equal(t, settings.DefaultVariables, after.Find("textarea#variables").Text())
}

func TestSubmitInvalidVariables(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.PostForm("/", url.Values{
		"base":      {"http://localhost:7777"},
		"template":  {"main"},
		"variables": {"{bad json"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.False(t, hasSettingsCookie(resp))

	doc := testutil.ParseHTML(t, resp.Body)
	msg := doc.Find(`[data-error="variables"]`).Text()
	assert.Contains(t, msg, "JSON5")
	assert.Zero(t, doc.Find(`[data-error="base"]`).Length())
}

func manyVariables(n int) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "  field%d: 'value number %d',\n", i, i)
	}
	b.WriteString("}")
	return b.String()
}

func TestSubmitOversizedVariables(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	form := func(vars string) url.Values {
		return url.Values{
			"base":      {"http://localhost:7777"},
			"template":  {"main"},
			"variables": {vars},
		}
	}

	resp := client.PostForm("/", form(manyVariables(60)))
	require.Equal(t, http.StatusSeeOther, resp.Status, "a couple of kilobytes still fits in the cookie")

	large := manyVariables(120)
	require.Greater(t, len(large), 3000)
	resp = client.PostForm("/", form(large))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.False(t, hasSettingsCookie(resp))

	doc := testutil.ParseHTML(t, resp.Body)
	assert.Contains(t, doc.Find(`[data-error="variables"]`).Text(), "too large to remember")
	assert.Contains(t, doc.Find("textarea#variables").Text(), "field119: 'value number 119'")

	doc = testutil.ParseHTML(t, client.Get("/").Body)
	assert.Contains(t, doc.Find("textarea#variables").Text(), "field59:", "previous settings are kept")
	assert.NotContains(t, doc.Find("textarea#variables").Text(), "field60:")
}

func TestSubmitSavesAndRedirects(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.PostForm("/", url.Values{
		"base":      {"http://localhost:7777"},
		"template":  {"main"},
		"variables": {"{title:'Hi'}"},
		"agent":     {"whatsapp"},
	})
	require.Equal(t, http.StatusSeeOther, resp.Status)
	assert.True(t, hasSettingsCookie(resp))

	location := resp.Header.Get("Location")
	require.Equal(t, "/?agent=whatsapp&base=http%3A%2F%2Flocalhost%3A7777&template=main", location)

	doc := testutil.ParseHTML(t, client.Get(location).Body)
	assert.Equal(t, []string{"http://localhost:7777/main.html?title=Hi&_w=1200&_h=630&_ua=whatsapp"}, frameSources(doc))
	assert.Equal(t, "{title:'Hi'}", doc.Find("textarea#variables").Text())
	agent, _ := doc.Find("input#agent").Attr("value")
	assert.Equal(t, "whatsapp", agent)
}

func TestSubmitWithModesAndRatio(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.PostForm("/", url.Values{
		"base":            {"http://localhost:7777"},
		"template":        {"main"},
		"variables":       {""},
		"ratio":           {"0.2"},
		"modes_submitted": {"1"},
		"modes":           {"story", "thumbnail"},
	})
	require.Equal(t, http.StatusSeeOther, resp.Status)

	doc := testutil.ParseHTML(t, client.Get(resp.Header.Get("Location")).Body)
	assert.Equal(t, []string{
		"http://localhost:7777/main.html?_w=400&_h=210",
		"http://localhost:7777/main.html?_w=1080&_h=1920",
	}, frameSources(doc))
	ratio, _ := doc.Find("input#ratio").Attr("value")
	assert.Equal(t, "0.2", ratio)
}

func TestToggleMode(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))

	resp := client.PostForm("/modes/square", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.True(t, hasSettingsCookie(resp))

	doc := testutil.ParseHTML(t, client.Get(resp.Header.Get("Location")).Body)
	assert.Equal(t, []string{
		defaultFrameSrc,
		"http://localhost:7777/main.html?title=Hello%20World&_w=1200&_h=1200",
	}, frameSources(doc))
	assert.True(t, doc.Find(`button[data-mode="square"]`).HasClass("is-active"))

	client.PostForm("/modes/square", nil)
	doc = testutil.ParseHTML(t, client.Get("/").Body)
	assert.Equal(t, []string{defaultFrameSrc}, frameSources(doc), "toggling twice restores the set")

	client.PostForm("/modes/banner", nil)
	doc = testutil.ParseHTML(t, client.Get("/").Body)
	assert.Empty(t, frameSources(doc))
	assert.Equal(t, 1, doc.Find(".frames-empty").Length())
}

func TestToggleModePreservesPageQuery(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.PostForm("/modes/story?template=hero&base=http%3A%2F%2Fexample.test", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, "/?base=http%3A%2F%2Fexample.test&template=hero", resp.Header.Get("Location"))
}

func TestToggleModeHTMXFragment(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.PostHTMX("/modes/story", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.NotContains(t, string(resp.Body), "<html")
	assert.Contains(t, resp.Header.Get("HX-Replace-Url"), "template=main")
	assert.Contains(t, resp.Header.Values("Vary"), "HX-Request")

	doc := testutil.ParseHTML(t, resp.Body)
	assert.Equal(t, 1, doc.Find("section#workspace").Length())
	assert.Len(t, frameSources(doc), 2)
	assert.True(t, doc.Find(`button[data-mode="story"]`).HasClass("is-active"))
}

func TestToggleUnknownMode(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.PostForm("/modes/poster", nil)
	require.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, hasSettingsCookie(resp))
}

func TestSetRatio(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))

	resp := client.PostForm("/ratio", url.Values{"ratio": {"0.25"}})
	require.Equal(t, http.StatusSeeOther, resp.Status)
	doc := testutil.ParseHTML(t, client.Get("/").Body)
	style, _ := doc.Find("iframe.frame").Attr("style")
	assert.Contains(t, style, "scale(0.25)")
	container, _ := doc.Find(".frame-container").Attr("style")
	assert.Equal(t, "width: 300px; height: 157.5px;", container)

	resp = client.PostHTMX("/ratio", url.Values{"ratio": {"5"}})
	require.Equal(t, http.StatusOK, resp.Status)
	ratio, _ := testutil.ParseHTML(t, resp.Body).Find("input#ratio").Attr("value")
	assert.Equal(t, "1", ratio)

	resp = client.PostForm("/ratio", url.Values{"ratio": {"wide"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, err := http.PostForm(ts.URL+"/modes/square", url.Values{})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAssetsServed(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Get("/assets/studio.css")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.NotEmpty(t, resp.Header.Get("ETag"))
	assert.Contains(t, string(resp.Body), ".frame-container")
}

func TestInvalidAppliedStateShowsErrors(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	doc := testutil.ParseHTML(t, client.Get("/?base=nope").Body)
	assert.Empty(t, frameSources(doc))
	assert.Contains(t, doc.Find(".frames-error").Text(), "invalid URL")
	assert.Equal(t, 1, doc.Find(`[data-error="base"]`).Length())
}
