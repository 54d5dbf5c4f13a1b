// Package github fetches pull request data from the GitHub REST API under
// rate-limit and pagination constraints.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v75/github"

	"github.com/prismdev/prism/internal/pr"
)

// Client wraps the GitHub API client with retry and rate-limit handling.
// Rate-limit state lives inside the shared underlying client; concurrent
// fetches observe it through the typed errors the API returns.
type Client struct {
	gh      *gh.Client
	backoff BackoffPolicy
}

// NewClient creates an authenticated client. baseURL overrides the API
// endpoint for GitHub Enterprise or test servers; it must include a scheme.
func NewClient(token, baseURL string, policy BackoffPolicy) (*Client, error) {
	if token == "" {
		return nil, errors.New("github: token is required")
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultBackoff()
	}

	client := gh.NewClient(nil).WithAuthToken(token)
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("github: parsing base URL: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	return &Client{gh: client, backoff: policy}, nil
}

// PullRequest fetches a single PR with its comments.
func (c *Client) PullRequest(ctx context.Context, repoName string, number int) (pr.PullRequest, error) {
	owner, name, err := splitRepo(repoName)
	if err != nil {
		return pr.PullRequest{}, err
	}

	var pull *gh.PullRequest
	err = c.withRetry(ctx, func() (*gh.Response, error) {
		var resp *gh.Response
		pull, resp, err = c.gh.PullRequests.Get(ctx, owner, name, number)
		return resp, err
	})
	if err != nil {
		if isNotFound(err) {
			return pr.PullRequest{}, &NotFoundError{Repo: repoName, Number: number}
		}
		return pr.PullRequest{}, err
	}

	comments, err := c.listComments(ctx, owner, name, number)
	if err != nil {
		return pr.PullRequest{}, err
	}

	return convert(pull, repoName, comments), nil
}

// listComments pages through the issue comments of a PR.
func (c *Client) listComments(ctx context.Context, owner, name string, number int) ([]string, error) {
	comments := []string{}
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}

	for {
		var (
			page []*gh.IssueComment
			next int
		)
		err := c.withRetry(ctx, func() (*gh.Response, error) {
			p, resp, err := c.gh.Issues.ListComments(ctx, owner, name, number, opts)
			if resp != nil {
				next = resp.NextPage
			}
			page = p
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, comment := range page {
			comments = append(comments, comment.GetBody())
		}
		if next == 0 {
			return comments, nil
		}
		opts.Page = next
	}
}

// withRetry runs fn, classifying failures: rate-limit signals wait for the
// reset hint (or the backoff policy when absent), transient errors back off
// exponentially, and 404/401/403 surface immediately.
func (c *Client) withRetry(ctx context.Context, fn func() (*gh.Response, error)) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		_, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var (
			rateErr  *gh.RateLimitError
			abuseErr *gh.AbuseRateLimitError
			respErr  *gh.ErrorResponse
		)

		var wait time.Duration
		switch {
		case errors.As(err, &rateErr):
			if c.backoff.GiveUp(attempt + 1) {
				return &RateLimitError{ResetAt: rateErr.Rate.Reset.Time}
			}
			wait = time.Until(rateErr.Rate.Reset.Time)
			if wait <= 0 {
				wait = c.backoff.Delay(attempt + 1)
			}

		case errors.As(err, &abuseErr):
			if c.backoff.GiveUp(attempt + 1) {
				return &RateLimitError{}
			}
			wait = abuseErr.GetRetryAfter()
			if wait <= 0 {
				wait = c.backoff.Delay(attempt + 1)
			}

		case errors.As(err, &respErr):
			status := 0
			if respErr.Response != nil {
				status = respErr.Response.StatusCode
			}
			switch {
			case status == http.StatusNotFound:
				return err
			case status == http.StatusUnauthorized || status == http.StatusForbidden:
				return &AuthError{StatusCode: status}
			case status >= 500:
				if c.backoff.GiveUp(attempt + 1) {
					return fmt.Errorf("github: retries exhausted: %w", lastErr)
				}
				wait = c.backoff.Delay(attempt + 1)
			default:
				return err
			}

		default:
			// Network-level failure.
			if c.backoff.GiveUp(attempt + 1) {
				return fmt.Errorf("github: retries exhausted: %w", lastErr)
			}
			wait = c.backoff.Delay(attempt + 1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func isNotFound(err error) bool {
	var respErr *gh.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusNotFound
}

func splitRepo(repoName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repoName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("github: invalid repository name %q, want owner/repo", repoName)
	}
	return owner, name, nil
}

// convert maps an API pull request onto the pipeline record. The list API
// reports merged PRs as closed; a set merged_at promotes the state.
func convert(pull *gh.PullRequest, repoName string, comments []string) pr.PullRequest {
	state := pr.State(pull.GetState())
	if pull.MergedAt != nil || pull.GetMerged() {
		state = pr.StateMerged
	}

	labels := make([]string, 0, len(pull.Labels))
	for _, label := range pull.Labels {
		labels = append(labels, label.GetName())
	}

	if comments == nil {
		comments = []string{}
	}

	return pr.PullRequest{
		ID:        int64(pull.GetNumber()),
		RepoName:  repoName,
		Title:     pull.GetTitle(),
		Body:      pull.GetBody(),
		State:     state,
		CreatedAt: pull.GetCreatedAt().Time,
		UpdatedAt: pull.GetUpdatedAt().Time,
		Author:    pull.GetUser().GetLogin(),
		Labels:    labels,
		Comments:  comments,
	}
}
