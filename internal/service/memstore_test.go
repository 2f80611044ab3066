package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"masbate_today/internal/domain"
)

// memStore is an in-memory ArticleStore for tests that need real state.
type memStore struct {
	mu       sync.Mutex
	articles map[string]domain.Article
	seq      int
}

func newMemStore() *memStore {
	return &memStore{articles: make(map[string]domain.Article)}
}

func (s *memStore) put(a domain.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.ID] = a
}

func (s *memStore) List(_ context.Context, q domain.ArticleQuery) (domain.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Article
	for _, a := range s.articles {
		if !a.Published || a.PublishedAt == nil {
			continue
		}
		if q.Category != nil && a.Category != *q.Category {
			continue
		}
		if q.Featured != nil && a.Featured != *q.Featured {
			continue
		}
		if !q.PublishedSince.IsZero() && a.PublishedAt.Before(q.PublishedSince) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		if q.Order == domain.OrderMostViewed && matched[i].Views != matched[j].Views {
			return matched[i].Views > matched[j].Views
		}
		if !matched[i].PublishedAt.Equal(*matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(*matched[j].PublishedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	offset := 0
	if q.After != "" {
		n, err := strconv.Atoi(string(q.After))
		if err != nil {
			return domain.Page{}, fmt.Errorf("bad cursor %q", q.After)
		}
		offset = n
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]

	if q.Limit == 0 || len(matched) < q.Limit {
		return domain.Page{Articles: matched}, nil
	}
	return domain.Page{
		Articles: matched[:q.Limit],
		Next:     domain.Cursor(strconv.Itoa(offset + q.Limit)),
	}, nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (s *memStore) Create(_ context.Context, article *domain.Article) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := fmt.Sprintf("mem-%04d", s.seq)
	a := *article
	a.ID = id
	s.articles[id] = a
	return id, nil
}

func (s *memStore) Update(_ context.Context, article *domain.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[article.ID]; !ok {
		return domain.ErrNotFound
	}
	s.articles[article.ID] = *article
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.articles, id)
	return nil
}

func (s *memStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Views++
	s.articles[id] = a
	return nil
}
