package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"masbate_today/internal/domain"
)

const articleColumns = `
	id, category, title, excerpt, content, author, tags,
	published, featured, sponsored, premium, views, reading_time,
	featured_image, images, video_url, video_embed,
	published_at, created_at, updated_at`

type articleRow struct {
	ID            string         `db:"id"`
	Category      string         `db:"category"`
	Title         string         `db:"title"`
	Excerpt       string         `db:"excerpt"`
	Content       string         `db:"content"`
	Author        string         `db:"author"`
	Tags          pq.StringArray `db:"tags"`
	Published     bool           `db:"published"`
	Featured      bool           `db:"featured"`
	Sponsored     bool           `db:"sponsored"`
	Premium       bool           `db:"premium"`
	Views         int64          `db:"views"`
	ReadingTime   int            `db:"reading_time"`
	FeaturedImage *string        `db:"featured_image"`
	Images        pq.StringArray `db:"images"`
	VideoURL      *string        `db:"video_url"`
	VideoEmbed    *string        `db:"video_embed"`
	PublishedAt   *time.Time     `db:"published_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func newArticleRow(a *domain.Article) articleRow {
	tags := pq.StringArray(a.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}
	images := pq.StringArray(a.Images)
	if images == nil {
		images = pq.StringArray{}
	}

	return articleRow{
		ID:            a.ID,
		Category:      string(a.Category),
		Title:         a.Title,
		Excerpt:       a.Excerpt,
		Content:       a.Content,
		Author:        a.Author,
		Tags:          tags,
		Published:     a.Published,
		Featured:      a.Featured,
		Sponsored:     a.Sponsored,
		Premium:       a.Premium,
		Views:         a.Views,
		ReadingTime:   a.ReadingTime,
		FeaturedImage: a.FeaturedImage,
		Images:        images,
		VideoURL:      a.VideoURL,
		VideoEmbed:    a.VideoEmbed,
		PublishedAt:   a.PublishedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (r articleRow) toDomain() domain.Article {
	return domain.Article{
		ID:            r.ID,
		Category:      domain.Category(r.Category),
		Title:         r.Title,
		Excerpt:       r.Excerpt,
		Content:       r.Content,
		Author:        r.Author,
		Tags:          []string(r.Tags),
		Published:     r.Published,
		Featured:      r.Featured,
		Sponsored:     r.Sponsored,
		Premium:       r.Premium,
		Views:         r.Views,
		ReadingTime:   r.ReadingTime,
		FeaturedImage: r.FeaturedImage,
		Images:        []string(r.Images),
		VideoURL:      r.VideoURL,
		VideoEmbed:    r.VideoEmbed,
		PublishedAt:   r.PublishedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// List returns published articles matching q. Next is set whenever the page
// is full, so the final page of an exact multiple is followed by one empty
// page.
func (s *ArticleStore) List(ctx context.Context, q domain.ArticleQuery) (domain.Page, error) {
	where := []string{"published = TRUE", "published_at IS NOT NULL"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Category != nil {
		where = append(where, "category = "+arg(string(*q.Category)))
	}
	if q.Featured != nil {
		where = append(where, "featured = "+arg(*q.Featured))
	}
	if !q.PublishedSince.IsZero() {
		where = append(where, "published_at >= "+arg(q.PublishedSince))
	}

	if q.After != "" {
		c, err := decodeCursor(q.After)
		if err != nil {
			return domain.Page{}, err
		}
		switch q.Order {
		case domain.OrderMostViewed:
			where = append(where, fmt.Sprintf("(views, id) < (%s, %s)", arg(c.Views), arg(c.ID)))
		default:
			if c.PublishedAt == nil {
				return domain.Page{}, errors.New("decode cursor: missing published_at")
			}
			where = append(where, fmt.Sprintf("(published_at, id) < (%s, %s)", arg(*c.PublishedAt), arg(c.ID)))
		}
	}

	orderBy := "published_at DESC, id DESC"
	if q.Order == domain.OrderMostViewed {
		orderBy = "views DESC, id DESC"
	}

	query := "SELECT " + articleColumns + " FROM articles WHERE " +
		strings.Join(where, " AND ") + " ORDER BY " + orderBy
	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit)
	}

	var rows []articleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.Page{}, err
	}

	page := domain.Page{Articles: make([]domain.Article, 0, len(rows))}
	for _, r := range rows {
		page.Articles = append(page.Articles, r.toDomain())
	}

	if q.Limit > 0 && len(rows) == q.Limit {
		last := rows[len(rows)-1]
		page.Next = encodeCursor(cursor{PublishedAt: last.PublishedAt, Views: last.Views, ID: last.ID})
	}

	return page, nil
}

func (s *ArticleStore) Get(ctx context.Context, id string) (*domain.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, "SELECT "+articleColumns+" FROM articles WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a := row.toDomain()
	return &a, nil
}

func (s *ArticleStore) Create(ctx context.Context, article *domain.Article) (string, error) {
	row := newArticleRow(article)
	row.ID = uuid.NewString()

	query := `
		INSERT INTO articles (
			id, category, title, excerpt, content, author, tags,
			published, featured, sponsored, premium, views, reading_time,
			featured_image, images, video_url, video_embed,
			published_at, created_at, updated_at
		) VALUES (
			:id, :category, :title, :excerpt, :content, :author, :tags,
			:published, :featured, :sponsored, :premium, :views, :reading_time,
			:featured_image, :images, :video_url, :video_embed,
			:published_at, :created_at, :updated_at
		)`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return "", err
	}

	return row.ID, nil
}

// Update overwrites every mutable column. views is left alone so concurrent
// increments are not lost.
func (s *ArticleStore) Update(ctx context.Context, article *domain.Article) error {
	query := `
		UPDATE articles SET
			category = :category,
			title = :title,
			excerpt = :excerpt,
			content = :content,
			author = :author,
			tags = :tags,
			published = :published,
			featured = :featured,
			sponsored = :sponsored,
			premium = :premium,
			reading_time = :reading_time,
			featured_image = :featured_image,
			images = :images,
			video_url = :video_url,
			video_embed = :video_embed,
			published_at = :published_at,
			updated_at = :updated_at
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, newArticleRow(article))
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *ArticleStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	return err
}

func (s *ArticleStore) IncrementViews(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE articles SET views = views + 1 WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
