// Package kb serves the embedded knowledge base of fair-competition
// regulation articles referenced by review findings.
package kb

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed articles.yaml
var articlesFS embed.FS

// Article is one regulation entry in the knowledge base.
type Article struct {
	ID       string   `yaml:"id" json:"id"`
	Source   string   `yaml:"source" json:"source"`
	Article  string   `yaml:"article" json:"article"`
	Title    string   `yaml:"title" json:"title"`
	Text     string   `yaml:"text" json:"text"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type corpus struct {
	Articles []Article `yaml:"articles"`
}

var (
	loadOnce sync.Once
	loaded   []Article
	loadErr  error
)

func load() ([]Article, error) {
	loadOnce.Do(func() {
		data, err := articlesFS.ReadFile("articles.yaml")
		if err != nil {
			loadErr = fmt.Errorf("read knowledge base: %w", err)
			return
		}
		var c corpus
		if err := yaml.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("parse knowledge base: %w", err)
			return
		}
		loaded = c.Articles
	})
	return loaded, loadErr
}

// List returns all articles in corpus order.
func List() ([]Article, error) {
	return load()
}

// Search returns articles whose title, text, citation, or keywords contain
// the query. An empty query returns the full corpus.
func Search(query string) ([]Article, error) {
	articles, err := load()
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return articles, nil
	}

	var matched []Article
	for _, a := range articles {
		if matches(a, query) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

func matches(a Article, query string) bool {
	if strings.Contains(a.Title, query) ||
		strings.Contains(a.Text, query) ||
		strings.Contains(a.Source+a.Article, query) {
		return true
	}
	for _, k := range a.Keywords {
		if strings.Contains(k, query) {
			return true
		}
	}
	return false
}
