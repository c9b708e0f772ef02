package models

import (
	"time"
)

// RepositoryContext is the repository the user is currently working against.
// It is held in durable client state and read by every feature as ambient
// context; when it is absent no domain call may be issued.
type RepositoryContext struct {
	RepositoryID   int64  `json:"repositoryId"`
	RepositoryName string `json:"repositoryName"`
}

// Role identifies the author of a transcript message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation transcript
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Repository is a repository the user may select to work on
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Private  bool   `json:"private"`
}

// PullRequestSummary is a read-only projection of a pull request,
// fetched per repository and never mutated client-side.
type PullRequestSummary struct {
	ID         int64  `json:"id"`
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	HeadBranch string `json:"headBranch"`
	BaseBranch string `json:"baseBranch"`
	HTMLURL    string `json:"htmlUrl"`
}

// Severity classifies a review comment's importance. It only drives
// display tiering; no other logic branches on it.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityOther    Severity = "other"
)

// Rank orders severities for display, most important first
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// ReviewComment is a single finding from an AI review run
type ReviewComment struct {
	ID         int64    `json:"id"`
	FilePath   string   `json:"filePath"`
	LineNumber int      `json:"lineNumber"`
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	Body       string   `json:"body"`
	Rationale  string   `json:"rationale"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// ReviewResult is one completed AI review run for a pull request
type ReviewResult struct {
	ID           int64           `json:"id"`
	Summary      string          `json:"summary"`
	CommentCount int             `json:"commentCount"`
	Comments     []ReviewComment `json:"comments"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ChatRequest is the wire payload for one conversation turn
type ChatRequest struct {
	Message        string `json:"message"`
	RepoID         int64  `json:"repoId"`
	ConversationID string `json:"conversationId"`
}

// ChatResponse is the assistant's answer to one conversation turn
type ChatResponse struct {
	Answer string `json:"answer"`
}
