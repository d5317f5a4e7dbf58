// Package likes records which users liked which posts.
package likes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidPostID is returned for post ids that are not UUIDs, such as discoveries
// that were never posted.
var ErrInvalidPostID = errors.New("invalid post ID format")

// Like is one (post, user) pair.
type Like struct {
	PostID    string    `json:"post_id" firestore:"post_id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" firestore:"user_id" gorm:"primaryKey;size:191"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

func (Like) TableName() string { return "likes" }

// Status is the like state of a post from one user's point of view.
type Status struct {
	Liked bool   `json:"liked"`
	Count int    `json:"count"`
	Likes []Like `json:"likes,omitempty"`
}

// Repository is the likes data access layer.
type Repository interface {
	// Toggle removes the like if present, otherwise adds it, and reports the new state.
	Toggle(ctx context.Context, postID, userID string, now time.Time) (liked bool, err error)
	Count(ctx context.Context, postID string) (int, error)
	Exists(ctx context.Context, postID, userID string) (bool, error)
	List(ctx context.Context, postID string) ([]Like, error)
}

// Service validates post ids before touching the store.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ValidatePostID rejects anything that is not a UUID.
func ValidatePostID(postID string) error {
	if !isUUID(postID) {
		return fmt.Errorf("%w. Expected UUID, got: %s", ErrInvalidPostID, postID)
	}
	return nil
}

// isUUID accepts only the canonical hyphenated form of an RFC 4122 UUID, versions 1 to 8.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	v := id.Version()
	return id.Variant() == uuid.RFC4122 && v >= 1 && v <= 8
}

// Toggle flips the user's like and returns the resulting state.
func (s *Service) Toggle(ctx context.Context, postID, userID string) (Status, error) {
	if err := ValidatePostID(postID); err != nil {
		return Status{}, err
	}
	liked, err := s.repo.Toggle(ctx, postID, userID, s.now().UTC())
	if err != nil {
		return Status{}, fmt.Errorf("toggle like: %w", err)
	}
	count, err := s.repo.Count(ctx, postID)
	if err != nil {
		return Status{}, fmt.Errorf("count likes: %w", err)
	}
	return Status{Liked: liked, Count: count}, nil
}

func (s *Service) Count(ctx context.Context, postID string) (int, error) {
	if err := ValidatePostID(postID); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, postID)
}

func (s *Service) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	if err := ValidatePostID(postID); err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, postID, userID)
}

// Get loads the count, the user's membership and the like list concurrently.
func (s *Service) Get(ctx context.Context, postID, userID string) (Status, error) {
	if err := ValidatePostID(postID); err != nil {
		return Status{}, err
	}
	var st Status
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.Count(gctx, postID)
		st.Count = n
		return err
	})
	g.Go(func() error {
		ok, err := s.repo.Exists(gctx, postID, userID)
		st.Liked = ok
		return err
	})
	g.Go(func() error {
		list, err := s.repo.List(gctx, postID)
		st.Likes = list
		return err
	})
	if err := g.Wait(); err != nil {
		return Status{}, err
	}
	return st, nil
}
