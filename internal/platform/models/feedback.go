package models

const (
	PostStatusOpen        = "open"
	PostStatusUnderReview = "under_review"
	PostStatusPlanned     = "planned"
	PostStatusInProgress  = "in_progress"
	PostStatusCompleted   = "completed"
	PostStatusClosed      = "closed"
)

var PostStatuses = []string{
	PostStatusOpen,
	PostStatusUnderReview,
	PostStatusPlanned,
	PostStatusInProgress,
	PostStatusCompleted,
	PostStatusClosed,
}

type Post struct {
	ID          string `json:"id"`
	OrgID       string `json:"org_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	AuthorID    string `json:"author_id,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
	VoteCount   int    `json:"vote_count"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type Vote struct {
	PostID    string `json:"post_id"`
	OrgID     string `json:"org_id"`
	VoterID   string `json:"voter_id"`
	CreatedAt int64  `json:"created_at"`
}

type Comment struct {
	ID        string `json:"id"`
	OrgID     string `json:"org_id"`
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at"`
}

type ChangelogEntry struct {
	ID          string `json:"id"`
	OrgID       string `json:"org_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Link        string `json:"link,omitempty"`
	PublishedAt *int64 `json:"published_at,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

func (e *ChangelogEntry) Published() bool {
	return e.PublishedAt != nil
}
