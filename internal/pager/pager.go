// Package pager keeps pagination state behind short callback tokens and
// does the page arithmetic for result lists.
package pager

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"
)

// MaxCallbackBytes is the largest callback payload a chat button may carry.
const MaxCallbackBytes = 64

const (
	callbackPrefix = "page"
	callbackSep    = "#"

	defaultSessions = 10000
)

// Session is what a pagination token stands for.
type Session struct {
	Query   string `json:"query"`
	ChatID  int64  `json:"chat_id"`
	OwnerID int64  `json:"owner_id"`
}

// Registry maps tokens to sessions. Tokens expire after the TTL and the
// least recently used ones are dropped when the registry is full.
type Registry struct {
	mu       sync.Mutex
	entropy  io.Reader
	sessions *expirable.LRU[string, Session]
}

// NewRegistry creates a registry holding at most size sessions for ttl.
func NewRegistry(size int, ttl time.Duration) *Registry {
	if size <= 0 {
		size = defaultSessions
	}
	return &Registry{
		entropy:  ulid.Monotonic(rand.Reader, 0),
		sessions: expirable.NewLRU[string, Session](size, nil, ttl),
	}
}

// Register stores s and returns its token.
func (r *Registry) Register(s Session) string {
	r.mu.Lock()
	token := ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
	r.mu.Unlock()

	r.sessions.Add(token, s)
	return token
}

// Lookup returns the session for token, if it is still live.
func (r *Registry) Lookup(token string) (Session, bool) {
	return r.sessions.Get(token)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// CallbackData builds the button payload for a page: page#<token>#<offset>.
func CallbackData(token string, offset int) string {
	return callbackPrefix + callbackSep + token + callbackSep + strconv.Itoa(offset)
}

// ParseCallback splits a payload built by CallbackData.
func ParseCallback(data string) (token string, offset int, err error) {
	if len(data) > MaxCallbackBytes {
		return "", 0, fmt.Errorf("callback data exceeds %d bytes", MaxCallbackBytes)
	}
	parts := strings.Split(data, callbackSep)
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return "", 0, fmt.Errorf("malformed callback data: %q", data)
	}
	if _, err := ulid.ParseStrict(parts[1]); err != nil {
		return "", 0, fmt.Errorf("malformed callback token: %w", err)
	}
	offset, err = strconv.Atoi(parts[2])
	if err != nil || offset < 0 {
		return "", 0, fmt.Errorf("malformed callback offset: %q", parts[2])
	}
	return parts[1], offset, nil
}

// Nav describes where a page sits in a result list.
type Nav struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	PrevOffset int  `json:"prev_offset"`
	NextOffset int  `json:"next_offset"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// Navigate computes page navigation for the page starting at offset.
// Pages are numbered from 1; an empty list has one page.
func Navigate(offset, pageSize, total int) Nav {
	if pageSize <= 0 {
		pageSize = 1
	}
	if offset < 0 {
		offset = 0
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	nav := Nav{
		Page:       offset/pageSize + 1,
		TotalPages: totalPages,
		PrevOffset: max(offset-pageSize, 0),
		NextOffset: offset + pageSize,
		HasPrev:    offset > 0,
		HasNext:    offset+pageSize < total,
	}
	if !nav.HasNext {
		nav.NextOffset = offset
	}
	return nav
}
