package domain

import "time"

type EventAction string

const (
	ActionCreate EventAction = "create"
	ActionUpdate EventAction = "update"
	ActionDelete EventAction = "delete"
)

// ArticleEvent describes a write to the articles collection. Article is nil
// for deletes.
type ArticleEvent struct {
	Action    EventAction
	ArticleID string
	Article   *Article
	Timestamp time.Time
}
