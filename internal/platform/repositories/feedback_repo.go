package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"boardly/internal/platform/models"
)

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `id, org_id, title, description, status, author_id, author_email, vote_count, created_at, updated_at`

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.ID = "post_" + uuid.New().String()
	post.CreatedAt = time.Now().Unix()
	post.UpdatedAt = post.CreatedAt
	if post.Status == "" {
		post.Status = models.PostStatusOpen
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, org_id, title, description, status, author_id, author_email, vote_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, post.ID, post.OrgID, post.Title, post.Description, post.Status, post.AuthorID, post.AuthorEmail, post.CreatedAt, post.UpdatedAt)
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, orgID, id string) (*models.Post, error) {
	var p models.Post
	err := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE org_id = ? AND id = ?`, orgID, id).
		Scan(&p.ID, &p.OrgID, &p.Title, &p.Description, &p.Status, &p.AuthorID, &p.AuthorEmail, &p.VoteCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns posts newest first, optionally narrowed to one status.
func (r *PostRepository) List(ctx context.Context, orgID, status string, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE org_id = ?`
	args := []interface{}{orgID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Title, &p.Description, &p.Status, &p.AuthorID, &p.AuthorEmail, &p.VoteCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) UpdateStatus(ctx context.Context, orgID, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET status = ?, updated_at = ? WHERE org_id = ? AND id = ?`,
		status, time.Now().Unix(), orgID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type VoteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Upsert records a vote, using (post_id, voter_id) as the conflict target.
// created reports whether a new vote row was inserted.
func (r *VoteRepository) Upsert(ctx context.Context, vote *models.Vote) (created bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	vote.CreatedAt = time.Now().Unix()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO votes (post_id, org_id, voter_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (post_id, voter_id) DO NOTHING
	`, vote.PostID, vote.OrgID, vote.VoterID, vote.CreatedAt)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET vote_count = vote_count + 1 WHERE org_id = ? AND id = ?`, vote.OrgID, vote.PostID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	c.ID = "cmt_" + uuid.New().String()
	c.CreatedAt = time.Now().Unix()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, org_id, post_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.OrgID, c.PostID, c.AuthorID, c.Body, c.CreatedAt)
	return err
}

func (r *CommentRepository) ListByPost(ctx context.Context, orgID, postID string) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, org_id, post_id, author_id, body, created_at
		FROM comments WHERE org_id = ? AND post_id = ? ORDER BY created_at ASC
	`, orgID, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.OrgID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}
