// Package pr defines the pull request record that flows through the
// ingestion pipeline, and the validation rules applied before storage.
package pr

import (
	"time"
)

// State is the lifecycle state of a pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// PullRequest is the unit of work for the pipeline. ID and RepoName together
// form the stable external key; ID alone is the vector-store point id.
type PullRequest struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	RepoName string `json:"repo_name" validate:"required,reponame"`

	Title string `json:"title"`
	Body  string `json:"body"`
	State State  `json:"state" validate:"required,oneof=open closed merged"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author   string   `json:"author"`
	Labels   []string `json:"labels"`
	Comments []string `json:"comments"`

	// ProcessedAt is stamped by the pipeline's transform step, never by the
	// source.
	ProcessedAt time.Time `json:"processed_at"`
}

// EmbeddingText returns the text the embedding vector is computed from.
func (p PullRequest) EmbeddingText() string {
	return p.Title + " " + p.Body
}
