package profile

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by repositories when no profile row exists.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidInput is returned for empty ids or empty patches.
	ErrInvalidInput = errors.New("invalid profile input")
)

// Profile is the remote profile record.
type Profile struct {
	ID              string    `json:"id" firestore:"id" gorm:"primaryKey;size:191"`
	Username        string    `json:"username" firestore:"username" gorm:"size:191"`
	DisplayName     string    `json:"display_name" firestore:"display_name"`
	Email           string    `json:"email,omitempty" firestore:"email"`
	ProfileImageURL string    `json:"profile_image_url,omitempty" firestore:"profile_image_url"`
	Points          int       `json:"points" firestore:"points"`
	Bio             string    `json:"bio,omitempty" firestore:"bio"`
	CreatedAt       time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updated_at"`
}

// UpdateInput describes the client-writable fields. Nil fields are left alone.
type UpdateInput struct {
	DisplayName     *string
	Username        *string
	Bio             *string
	ProfileImageURL *string
}

// Empty reports whether no field is set.
func (u UpdateInput) Empty() bool {
	return u.DisplayName == nil && u.Username == nil && u.Bio == nil && u.ProfileImageURL == nil
}

// Author is the public face of a profile attached to posts.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// DefaultAvatar is used for profiles without a picture.
const DefaultAvatar = "https://images.unsplash.com/photo-1535083783855-76ae62b2914e?q=80&w=200&auto=format&fit=crop"

// AuthorOf derives the public author view, falling back for missing fields.
func AuthorOf(p *Profile) Author {
	a := Author{Name: "Unknown User", Avatar: DefaultAvatar}
	if p == nil {
		return a
	}
	if p.DisplayName != "" {
		a.Name = p.DisplayName
	}
	if p.ProfileImageURL != "" {
		a.Avatar = p.ProfileImageURL
	}
	return a
}

// Repository is the profile data access layer.
type Repository interface {
	Get(ctx context.Context, id string) (*Profile, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Profile, error)
	// Create inserts p unless a row with the same id exists, and returns the stored row.
	Create(ctx context.Context, p *Profile) (*Profile, error)
	Update(ctx context.Context, id string, input UpdateInput, now time.Time) (*Profile, error)
}

// Service defines the profile operations exposed over HTTP.
type Service interface {
	Get(ctx context.Context, id, email string) (*Profile, error)
	// Find returns an existing profile without creating one.
	Find(ctx context.Context, id string) (*Profile, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Profile, error)
	UploadAvatar(ctx context.Context, id string, image []byte) (*Profile, error)
}
