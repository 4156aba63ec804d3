package domain

import "time"

type DigestItem struct {
	Article     Article
	Title       string
	Description string
}

// Digest is the newsletter content assembled for one subscriber and slot.
type Digest struct {
	Subscriber Subscriber
	Slot       SendTime
	RunAt      time.Time
	Title      string
	Items      []DigestItem
}
