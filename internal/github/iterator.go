package github

import (
	"context"

	gh "github.com/google/go-github/v75/github"

	"github.com/prismdev/prism/internal/pr"
)

// ListOptions bounds and orders a repository PR listing.
type ListOptions struct {
	State     string // open, closed, all (default all)
	Sort      string // created, updated, popularity (default updated)
	Direction string // asc, desc (default desc)
	Limit     int    // 0 = no limit
}

func (o ListOptions) withDefaults() ListOptions {
	if o.State == "" {
		o.State = "all"
	}
	if o.Sort == "" {
		o.Sort = "updated"
	}
	if o.Direction == "" {
		o.Direction = "desc"
	}
	return o
}

// Iterator lazily walks a repository's pull requests in the order the API
// returns them. No network I/O happens until Next is called; abandoning the
// iterator mid-stream has no side effects. It is not resumable — restart by
// constructing a new one.
type Iterator struct {
	client   *Client
	owner    string
	name     string
	repoName string
	opts     ListOptions

	started bool
	page    int
	buf     []*gh.PullRequest
	idx     int
	yielded int

	cur  pr.PullRequest
	err  error
	done bool
}

// PullRequests returns a lazy iterator over the repository's PRs; pagination
// is handled internally.
func (c *Client) PullRequests(repoName string, opts ListOptions) *Iterator {
	it := &Iterator{
		client:   c,
		repoName: repoName,
		opts:     opts.withDefaults(),
	}
	it.owner, it.name, it.err = splitRepo(repoName)
	return it
}

// Next advances to the next record, fetching pages on demand. It returns
// false at exhaustion or on error; check Err afterwards.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil || it.done {
		return false
	}
	if it.opts.Limit > 0 && it.yielded >= it.opts.Limit {
		it.done = true
		return false
	}

	if !it.started {
		it.started = true
		it.page = 1
	}

	for it.idx >= len(it.buf) {
		if it.page == 0 {
			it.done = true
			return false
		}
		if !it.fetchPage(ctx) {
			return false
		}
	}

	raw := it.buf[it.idx]
	it.idx++

	comments, err := it.client.listComments(ctx, it.owner, it.name, raw.GetNumber())
	if err != nil {
		it.err = err
		return false
	}

	it.cur = convert(raw, it.repoName, comments)
	it.yielded++
	return true
}

func (it *Iterator) fetchPage(ctx context.Context) bool {
	opts := &gh.PullRequestListOptions{
		State:     it.opts.State,
		Sort:      it.opts.Sort,
		Direction: it.opts.Direction,
		ListOptions: gh.ListOptions{
			Page:    it.page,
			PerPage: 100,
		},
	}

	var (
		page []*gh.PullRequest
		next int
	)
	err := it.client.withRetry(ctx, func() (*gh.Response, error) {
		p, resp, err := it.client.gh.PullRequests.List(ctx, it.owner, it.name, opts)
		if resp != nil {
			next = resp.NextPage
		}
		page = p
		return resp, err
	})
	if err != nil {
		if isNotFound(err) {
			err = &NotFoundError{Repo: it.repoName}
		}
		it.err = err
		return false
	}

	it.buf = page
	it.idx = 0
	it.page = next
	return true
}

// PullRequest returns the record produced by the last successful Next.
func (it *Iterator) PullRequest() pr.PullRequest { return it.cur }

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }
