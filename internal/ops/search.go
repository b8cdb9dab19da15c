package ops

import (
	"context"
	"strconv"
	"strings"

	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/media"
	"github.com/EightFlix/Error/internal/pager"
	"github.com/EightFlix/Error/internal/search"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query      string // required
	Offset     int    // default: 0
	MaxResults int    // default: configured page size
	ChatID     int64  // chat the results are shown in
	OwnerID    int64  // user allowed to page through them
}

// SearchOutput is one page of results plus navigation.
type SearchOutput struct {
	Files      []media.FileRecord `json:"files"`
	NextOffset string             `json:"next_offset"`
	Total      int                `json:"total"`
	Stage      search.Stage       `json:"stage"`
	Query      string             `json:"query"`
	// Suggestion is set when the original query found nothing and a
	// corrected spelling was searched instead.
	Suggestion   string    `json:"suggestion,omitempty"`
	NextCallback string    `json:"next_callback,omitempty"`
	PrevCallback string    `json:"prev_callback,omitempty"`
	Nav          pager.Nav `json:"nav"`
}

// Search runs the retrieval cascade. It never fails: store problems show up
// as an empty page.
func (c *Catalog) Search(ctx context.Context, input SearchInput) *SearchOutput {
	query := media.NormalizeSpace(input.Query)
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = c.engine.PageSize()
	}
	offset := max(input.Offset, 0)

	res := c.engine.Search(ctx, query, offset, maxResults)
	out := &SearchOutput{Query: query}

	if len(res.Files) == 0 && offset == 0 {
		if alt, ok := c.suggest.Suggest(query); ok && !strings.EqualFold(alt, query) {
			if retry := c.engine.Search(ctx, alt, 0, maxResults); len(retry.Files) > 0 {
				c.log.Debug("searched suggestion", "query", query, "suggestion", alt)
				res = retry
				query = alt
				out.Suggestion = alt
			}
		}
	}

	if res.Stage == search.StageText || res.Stage == search.StageRegex {
		c.suggest.Learn(query)
	}

	c.fill(out, res, input.ChatID, input.OwnerID, offset, maxResults, query, "")
	return out
}

// PageInput resolves a pagination callback.
type PageInput struct {
	Callback    string
	RequesterID int64
	MaxResults  int
}

// Page returns the page a callback points at. Unknown or expired tokens are
// NOT_FOUND; only the user who ran the search, or an admin, may page
// through it.
func (c *Catalog) Page(ctx context.Context, input PageInput) (*SearchOutput, error) {
	token, offset, err := pager.ParseCallback(strings.TrimSpace(input.Callback))
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	sess, ok := c.pages.Lookup(token)
	if !ok {
		return nil, errors.NewPageNotFound(token)
	}
	if sess.OwnerID != 0 && sess.OwnerID != input.RequesterID && !c.admins[input.RequesterID] {
		return nil, errors.NewForbidden("only the user who searched may page these results")
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = c.engine.PageSize()
	}

	res := c.engine.Search(ctx, sess.Query, offset, maxResults)
	out := &SearchOutput{Query: sess.Query}
	c.fill(out, res, sess.ChatID, sess.OwnerID, offset, maxResults, sess.Query, token)
	return out, nil
}

// fill copies res into out and attaches callbacks for the neighbouring
// pages. An existing token is reused so paging does not mint a new session
// per click.
func (c *Catalog) fill(out *SearchOutput, res search.Result, chatID, ownerID int64, offset, maxResults int, query, token string) {
	out.Files = res.Files
	out.NextOffset = res.NextOffset
	out.Total = res.Total
	out.Stage = res.Stage
	out.Nav = pager.Navigate(offset, maxResults, res.Total)

	next, err := strconv.Atoi(res.NextOffset)
	hasNext := res.NextOffset != "" && err == nil
	if !hasNext && offset == 0 {
		return
	}
	if token == "" {
		token = c.pages.Register(pager.Session{Query: query, ChatID: chatID, OwnerID: ownerID})
	}
	if hasNext {
		out.NextCallback = pager.CallbackData(token, next)
	}
	if offset > 0 {
		out.PrevCallback = pager.CallbackData(token, out.Nav.PrevOffset)
	}
}
