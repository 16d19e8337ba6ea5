// Package help renders the markdown help panel shown above the studio form.
package help

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed help.md
var defaultSource []byte

// Panel is rendered, sanitised help content.
type Panel struct {
	Title string
	HTML  template.HTML
}

type frontMatter struct {
	Title string `yaml:"title"`
}

// Default renders the built-in help text.
func Default() (Panel, error) {
	return Render(defaultSource)
}

// Load renders the markdown file at path, or the built-in text when path is empty.
func Load(path string) (Panel, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Panel{}, fmt.Errorf("help: %s not found: %w", path, err)
	}
	if err != nil {
		return Panel{}, fmt.Errorf("help: read %s: %w", path, err)
	}
	return Render(data)
}

// Render converts markdown with optional YAML front matter into sanitised HTML.
func Render(source []byte) (Panel, error) {
	fm, body := splitFrontMatter(string(source))

	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Panel{}, fmt.Errorf("help: parse front matter: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return Panel{}, fmt.Errorf("help: render markdown: %w", err)
	}

	return Panel{
		Title: strings.TrimSpace(front.Title),
		HTML:  template.HTML(policy.SanitizeBytes(buf.Bytes())),
	}, nil
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = newHelpHTMLPolicy()
)

func newHelpHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return "", input
}
