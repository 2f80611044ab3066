package domain

import (
	"fmt"
	"time"
)

type Category string

const (
	CategoryMasbate  Category = "masbate"
	CategoryNational Category = "national"
	CategoryBlog     Category = "blog"
	CategoryVideo    Category = "video"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryMasbate, CategoryNational, CategoryBlog, CategoryVideo}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

type Article struct {
	ID            string     `json:"id"`
	Category      Category   `json:"category"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content"`
	Author        string     `json:"author"`
	Tags          []string   `json:"tags"`
	Published     bool       `json:"published"`
	Featured      bool       `json:"featured"`
	Sponsored     bool       `json:"sponsored"`
	Premium       bool       `json:"premium"`
	Views         int64      `json:"views"`
	ReadingTime   int        `json:"readingTime"`
	FeaturedImage *string    `json:"featuredImage,omitempty"`
	Images        []string   `json:"images,omitempty"`
	VideoURL      *string    `json:"videoUrl,omitempty"`
	VideoEmbed    *string    `json:"videoEmbed,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ArticleInput carries the author-supplied fields of a new article.
type ArticleInput struct {
	Category      Category
	Title         string
	Excerpt       string
	Content       string
	Author        string
	Tags          []string
	Published     bool
	Featured      bool
	Sponsored     bool
	Premium       bool
	FeaturedImage *string
	Images        []string
	VideoURL      *string
	VideoEmbed    *string
}

// ArticlePatch is a partial update; nil fields are left untouched.
type ArticlePatch struct {
	Category      *Category
	Title         *string
	Excerpt       *string
	Content       *string
	Author        *string
	Tags          *[]string
	Published     *bool
	Featured      *bool
	Sponsored     *bool
	Premium       *bool
	FeaturedImage *string
	Images        *[]string
	VideoURL      *string
	VideoEmbed    *string
	PublishedAt   *time.Time
}

// Apply copies every non-nil patch field onto a.
func (p ArticlePatch) Apply(a *Article) {
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Excerpt != nil {
		a.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Author != nil {
		a.Author = *p.Author
	}
	if p.Tags != nil {
		a.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Published != nil {
		a.Published = *p.Published
	}
	if p.Featured != nil {
		a.Featured = *p.Featured
	}
	if p.Sponsored != nil {
		a.Sponsored = *p.Sponsored
	}
	if p.Premium != nil {
		a.Premium = *p.Premium
	}
	if p.FeaturedImage != nil {
		a.FeaturedImage = p.FeaturedImage
	}
	if p.Images != nil {
		a.Images = append([]string(nil), (*p.Images)...)
	}
	if p.VideoURL != nil {
		a.VideoURL = p.VideoURL
	}
	if p.VideoEmbed != nil {
		a.VideoEmbed = p.VideoEmbed
	}
}

type Order int

const (
	OrderNewest Order = iota
	OrderMostViewed
)

// Cursor is an opaque continuation token. The empty cursor means "from the start".
type Cursor string

// ArticleQuery selects published articles. Zero values mean "no constraint";
// Limit 0 returns every match.
type ArticleQuery struct {
	Category       *Category
	Featured       *bool
	PublishedSince time.Time
	Order          Order
	Limit          int
	After          Cursor
}

type Page struct {
	Articles []Article
	Next     Cursor
}

type ArticleStats struct {
	Total              int   `json:"total"`
	TotalViews         int64 `json:"totalViews"`
	PublishedThisMonth int   `json:"publishedThisMonth"`
	AverageViews       int64 `json:"averageViews"`
}

// Dedupe drops later articles whose id was already seen, keeping order.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}
