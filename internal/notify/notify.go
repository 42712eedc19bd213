// Package notify is the user-facing notification side channel. Repositories
// report every failure here fire-and-forget; a failed or dropped notice
// never masks the original error.
package notify

import (
	"log"
	"sync"
	"time"
)

// Sink receives user-facing notices.
type Sink interface {
	Success(message string)
	Error(message string)
}

// Notice is one entry in the feed, served to the back-office toast bar.
type Notice struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

const feedCapacity = 100

// Feed is a Sink that logs every notice and retains the most recent ones in
// a ring for GET /api/notices.
type Feed struct {
	mu      sync.Mutex
	entries []Notice
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Success records a success notice.
func (f *Feed) Success(message string) {
	f.append("success", message)
}

// Error records an error notice.
func (f *Feed) Error(message string) {
	f.append("error", message)
	log.Printf("notify: %s", message)
}

// Recent returns the retained notices, newest last.
func (f *Feed) Recent() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *Feed) append(level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, Notice{Level: level, Message: message, Timestamp: time.Now().UTC()})
	if len(f.entries) > feedCapacity {
		f.entries = f.entries[len(f.entries)-feedCapacity:]
	}
}
