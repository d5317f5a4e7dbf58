package posts

import (
	"context"
	"errors"
	"time"

	"github.com/wildnest/wildnest/internal/profile"
	"github.com/wildnest/wildnest/internal/rarity"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrForbidden    = errors.New("unauthorized to delete this post")
	ErrInvalidInput = errors.New("invalid post input")
)

// FeedSize is the number of posts returned by Latest.
const FeedSize = 4

// Animal is a catalog entry. Species is unique.
type Animal struct {
	ID          string    `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	Species     string    `json:"species" firestore:"species" gorm:"uniqueIndex;size:191;not null"`
	CommonNames []string  `json:"common_names" firestore:"common_names" gorm:"serializer:json"`
	Kingdom     string    `json:"kingdom,omitempty" firestore:"kingdom"`
	Class       string    `json:"class,omitempty" firestore:"class"`
	FunFacts    []string  `json:"fun_facts,omitempty" firestore:"fun_facts" gorm:"serializer:json"`
	RarityLevel int       `json:"rarity_level" firestore:"rarity_level"`
	CreatedAt   time.Time `json:"created_at" firestore:"created_at"`
}

func (Animal) TableName() string { return "animals" }

// Post is one shared discovery. (UserID, ImageURL) is unique.
type Post struct {
	ID        string    `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" firestore:"user_id" gorm:"size:191;not null;uniqueIndex:idx_posts_user_image,priority:1;index"`
	AnimalID  *string   `json:"animal_id" firestore:"animal_id" gorm:"size:36"`
	ImageURL  string    `json:"image_url" firestore:"image_url" gorm:"size:512;not null;uniqueIndex:idx_posts_user_image,priority:2"`
	Location  *string   `json:"location" firestore:"location"`
	Quality   float64   `json:"quality" firestore:"quality"`
	Caption   *string   `json:"caption" firestore:"caption"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at" gorm:"index"`
}

func (Post) TableName() string { return "posts" }

// CreateInput is the client payload for a new post.
type CreateInput struct {
	UserID   string
	AnimalID *string
	ImageURL string
	Location *string
	Quality  float64
	Caption  *string
}

// AnimalInput is an identified animal to record in the catalog.
type AnimalInput struct {
	Species     string
	CommonNames []string
	Kingdom     string
	Class       string
	FunFacts    []string
	RarityLevel int
}

// AnimalView is the catalog entry as shown alongside a post.
type AnimalView struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	ScientificName string      `json:"scientific_name"`
	Rarity         rarity.Tier `json:"rarity"`
	Kingdom        string      `json:"kingdom,omitempty"`
	Class          string      `json:"class,omitempty"`
	FunFacts       []string    `json:"fun_facts,omitempty"`
	RarityLevel    int         `json:"rarity_level"`
}

// View is a post joined with its author and animal.
type View struct {
	Post
	User   profile.Author `json:"user"`
	Animal *AnimalView    `json:"animal"`
}

// Repository is the posts and animals data access layer.
type Repository interface {
	// CreatePost inserts p unless the user already posted the same image, in which case
	// the existing post is returned with existed=true.
	CreatePost(ctx context.Context, p *Post) (stored *Post, existed bool, err error)
	GetPost(ctx context.Context, id string) (*Post, error)
	DeletePost(ctx context.Context, id string) error
	Latest(ctx context.Context, limit int) ([]Post, error)
	ByUser(ctx context.Context, userID string) ([]Post, error)
	All(ctx context.Context) ([]Post, error)

	UpsertAnimal(ctx context.Context, a *Animal) (*Animal, error)
	AnimalsByID(ctx context.Context, ids []string) (map[string]*Animal, error)
}

// ProfileLookup resolves post authors.
type ProfileLookup interface {
	GetMany(ctx context.Context, ids []string) (map[string]*profile.Profile, error)
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces new post and animal ids.
type IDGenerator interface {
	NewID() string
}
