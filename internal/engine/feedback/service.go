// Package feedback owns posts, votes and comments, and announces changes to
// them as webhook events.
package feedback

import (
	"context"
	"errors"

	"boardly/internal/platform/models"
	"boardly/internal/platform/repositories"
)

var ErrInvalidStatus = errors.New("invalid post status")

// EventDispatcher is satisfied by *webhooks.Dispatcher.
type EventDispatcher interface {
	Dispatch(ctx context.Context, orgID string, event models.EventName, payload interface{})
}

type StatusChange struct {
	Post           *models.Post `json:"post"`
	PreviousStatus string       `json:"previous_status"`
}

type VoteCast struct {
	PostID    string `json:"post_id"`
	VoterID   string `json:"voter_id"`
	VoteCount int    `json:"vote_count"`
}

type Service struct {
	posts    *repositories.PostRepository
	votes    *repositories.VoteRepository
	comments *repositories.CommentRepository
	events   EventDispatcher
}

func NewService(posts *repositories.PostRepository, votes *repositories.VoteRepository, comments *repositories.CommentRepository, events EventDispatcher) *Service {
	return &Service{posts: posts, votes: votes, comments: comments, events: events}
}

func (s *Service) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.Status = models.PostStatusOpen
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.events.Dispatch(ctx, post.OrgID, models.EventPostCreated, post)
	return post, nil
}

func (s *Service) GetPost(ctx context.Context, orgID, id string) (*models.Post, error) {
	return s.posts.GetByID(ctx, orgID, id)
}

func (s *Service) ListPosts(ctx context.Context, orgID, status string, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.List(ctx, orgID, status, limit, offset)
}

// ChangeStatus moves a post to status. Setting the current status again is
// a no-op and fires nothing.
func (s *Service) ChangeStatus(ctx context.Context, orgID, postID, status string) (*models.Post, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	post, err := s.posts.GetByID(ctx, orgID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == status {
		return post, nil
	}

	previous := post.Status
	if err := s.posts.UpdateStatus(ctx, orgID, postID, status); err != nil {
		return nil, err
	}

	updated, err := s.posts.GetByID(ctx, orgID, postID)
	if err != nil {
		return nil, err
	}

	s.events.Dispatch(ctx, orgID, models.EventPostStatusChanged, StatusChange{Post: updated, PreviousStatus: previous})
	return updated, nil
}

// Vote records voterID's vote on the post. created is false when the voter
// had already voted, in which case no event fires.
func (s *Service) Vote(ctx context.Context, orgID, postID, voterID string) (post *models.Post, created bool, err error) {
	if _, err := s.posts.GetByID(ctx, orgID, postID); err != nil {
		return nil, false, err
	}

	created, err = s.votes.Upsert(ctx, &models.Vote{PostID: postID, OrgID: orgID, VoterID: voterID})
	if err != nil {
		return nil, false, err
	}

	post, err = s.posts.GetByID(ctx, orgID, postID)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.events.Dispatch(ctx, orgID, models.EventPostVoted, VoteCast{PostID: postID, VoterID: voterID, VoteCount: post.VoteCount})
	}
	return post, created, nil
}

func (s *Service) AddComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, c.OrgID, c.PostID); err != nil {
		return nil, err
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}

	s.events.Dispatch(ctx, c.OrgID, models.EventCommentCreated, c)
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, orgID, postID string) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, orgID, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, orgID, postID)
}

func validStatus(status string) bool {
	for _, s := range models.PostStatuses {
		if s == status {
			return true
		}
	}
	return false
}
