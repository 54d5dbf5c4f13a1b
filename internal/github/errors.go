package github

import (
	"fmt"
	"time"
)

// NotFoundError reports a pull request or repository that does not exist.
type NotFoundError struct {
	Repo   string
	Number int
}

func (e *NotFoundError) Error() string {
	if e.Number > 0 {
		return fmt.Sprintf("github: %s#%d not found", e.Repo, e.Number)
	}
	return fmt.Sprintf("github: repository %s not found", e.Repo)
}

// AuthError reports invalid or expired credentials.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github: authentication failed (status %d)", e.StatusCode)
}

// RateLimitError reports an exhausted API quota after retries gave up.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "github: rate limit exhausted"
	}
	return fmt.Sprintf("github: rate limit exhausted, resets at %s", e.ResetAt.Format(time.RFC3339))
}
