package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wildnest/wildnest/internal/storage"
)

type service struct {
	repo  Repository
	store storage.Store
	now   func() time.Time
}

// NewService creates a profile service. store may be nil when avatar uploads are
// disabled.
func NewService(repo Repository, store storage.Store) Service {
	return &service{repo: repo, store: store, now: time.Now}
}

// Get returns the profile, creating it on first access.
func (s *service) Get(ctx context.Context, id, email string) (*Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.ensure(ctx, id, email)
}

func (s *service) Find(ctx context.Context, id string) (*Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Profile, error) {
	if strings.TrimSpace(id) == "" || input.Empty() {
		return nil, ErrInvalidInput
	}
	if input.DisplayName != nil {
		trimmed := strings.TrimSpace(*input.DisplayName)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: display name must not be empty", ErrInvalidInput)
		}
		input.DisplayName = &trimmed
	}
	if input.Bio != nil {
		trimmed := strings.TrimSpace(*input.Bio)
		input.Bio = &trimmed
	}

	if _, err := s.ensure(ctx, id, ""); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, input, s.now().UTC())
}

// UploadAvatar stores the image at profile/{id} and points the profile at it.
func (s *service) UploadAvatar(ctx context.Context, id string, image []byte) (*Profile, error) {
	if s.store == nil {
		return nil, errors.New("avatar storage not configured")
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	contentType, _, ok := storage.DetectImage(image)
	if !ok {
		return nil, fmt.Errorf("%w: not an image", ErrInvalidInput)
	}

	url, err := s.store.Put(ctx, "profile/"+id, bytes.NewReader(image), contentType)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	return s.Update(ctx, id, UpdateInput{ProfileImageURL: &url})
}

func (s *service) ensure(ctx context.Context, id, email string) (*Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, &Profile{
		ID:          id,
		Username:    defaultUsername(id),
		DisplayName: "New User",
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func defaultUsername(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "user_" + id
}
