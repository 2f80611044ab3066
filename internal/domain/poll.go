package domain

import "time"

type Poll struct {
	ID        string       `json:"id" db:"id"`
	ArticleID string       `json:"articleId" db:"article_id"`
	Question  string       `json:"question" db:"question"`
	Options   []PollOption `json:"options"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

type PollOption struct {
	ID    string `json:"id" db:"id"`
	Text  string `json:"text" db:"text"`
	Votes int64  `json:"votes" db:"votes"`
}

// Open reports whether the poll still accepts votes at t.
func (p *Poll) Open(t time.Time) bool {
	return p.ExpiresAt == nil || t.Before(*p.ExpiresAt)
}

func (p *Poll) Option(id string) (*PollOption, bool) {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i], true
		}
	}
	return nil, false
}

type Subscriber struct {
	Email        string    `json:"email" db:"email"`
	SubscribedAt time.Time `json:"subscribedAt" db:"subscribed_at"`
}
