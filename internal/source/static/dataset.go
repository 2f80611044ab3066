// Package static holds the bundled articles served when the remote store is
// unavailable or empty.
package static

import (
	"embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"masbate_today/internal/domain"
)

const (
	defaultAuthor      = "staff"
	defaultReadingTime = 3
)

//go:embed data/*.yaml
var files embed.FS

// record is a partial article as written in the bundled YAML.
type record struct {
	ID            string     `yaml:"id"`
	Title         string     `yaml:"title"`
	Excerpt       string     `yaml:"excerpt"`
	Content       string     `yaml:"content"`
	Author        string     `yaml:"author"`
	Tags          []string   `yaml:"tags"`
	Published     *bool      `yaml:"published"`
	Featured      bool       `yaml:"featured"`
	Sponsored     bool       `yaml:"sponsored"`
	Premium       bool       `yaml:"premium"`
	Views         int64      `yaml:"views"`
	ReadingTime   int        `yaml:"readingTime"`
	FeaturedImage string     `yaml:"featuredImage"`
	Images        []string   `yaml:"images"`
	VideoURL      string     `yaml:"videoUrl"`
	VideoEmbed    string     `yaml:"videoEmbed"`
	PublishedAt   *time.Time `yaml:"publishedAt"`
}

type Dataset struct {
	records map[domain.Category][]record
	now     func() time.Time
}

// Load parses the embedded per-category files.
func Load() (*Dataset, error) {
	d := &Dataset{
		records: make(map[domain.Category][]record, len(domain.Categories)),
		now:     time.Now,
	}

	for _, c := range domain.Categories {
		data, err := files.ReadFile("data/" + string(c) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read %s dataset: %w", c, err)
		}

		var recs []record
		if err := yaml.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("parse %s dataset: %w", c, err)
		}
		d.records[c] = recs
	}

	return d, nil
}

// MustLoad is Load for package-level initialization; the data is compiled in,
// so a failure is a build defect.
func MustLoad() *Dataset {
	d, err := Load()
	if err != nil {
		panic(err)
	}
	return d
}

// ForCategory returns the category's articles in bundled order.
func (d *Dataset) ForCategory(c domain.Category) []domain.Article {
	now := d.now()
	recs := d.records[c]
	out := make([]domain.Article, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.normalize(c, now))
	}
	return out
}

// All concatenates every category in display order. Ids may repeat across
// categories; callers dedupe.
func (d *Dataset) All() []domain.Article {
	var out []domain.Article
	for _, c := range domain.Categories {
		out = append(out, d.ForCategory(c)...)
	}
	return out
}

// Find returns the first bundled article with the given id.
func (d *Dataset) Find(id string) (domain.Article, bool) {
	now := d.now()
	for _, c := range domain.Categories {
		for _, r := range d.records[c] {
			if r.ID == id {
				return r.normalize(c, now), true
			}
		}
	}
	return domain.Article{}, false
}

func (r record) normalize(c domain.Category, now time.Time) domain.Article {
	a := domain.Article{
		ID:          r.ID,
		Category:    c,
		Title:       r.Title,
		Excerpt:     r.Excerpt,
		Content:     r.Content,
		Author:      r.Author,
		Tags:        append([]string(nil), r.Tags...),
		Published:   true,
		Featured:    r.Featured,
		Sponsored:   r.Sponsored,
		Premium:     r.Premium,
		Views:       r.Views,
		ReadingTime: r.ReadingTime,
		Images:      append([]string(nil), r.Images...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if a.Author == "" {
		a.Author = defaultAuthor
	}
	if r.Published != nil {
		a.Published = *r.Published
	}
	if a.ReadingTime == 0 {
		a.ReadingTime = defaultReadingTime
	}
	if r.FeaturedImage != "" {
		a.FeaturedImage = &r.FeaturedImage
	}
	if r.VideoURL != "" {
		a.VideoURL = &r.VideoURL
	}
	if r.VideoEmbed != "" {
		a.VideoEmbed = &r.VideoEmbed
	}

	publishedAt := now
	if r.PublishedAt != nil {
		publishedAt = *r.PublishedAt
	}
	if a.Published {
		a.PublishedAt = &publishedAt
	}

	return a
}
