package domain

import "time"

type Topic struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title" validate:"notblank,max=200"`
	Content      string    `json:"content" validate:"notblank"`
	Author       string    `json:"author"`
	Subject      string    `json:"subject" validate:"notblank"`
	Tags         []string  `json:"tags"`
	Replies      []Reply   `json:"replies"`
	Views        int       `json:"views"`
	Likes        int       `json:"likes"`
	IsHot        bool      `json:"isHot"`
	IsPinned     bool      `json:"isPinned"`
	LastActivity time.Time `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Reply struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content" validate:"notblank"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}
