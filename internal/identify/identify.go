// Package identify turns an uploaded photo into a catalogued animal and a post.
package identify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/posts"
	"github.com/wildnest/wildnest/internal/rarity"
	"github.com/wildnest/wildnest/internal/storage"
)

// MaxImageBytes caps the decoded upload size.
const MaxImageBytes = 10 << 20

var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = errors.New("image too large")
	ErrMissingUser   = errors.New("missing user id")
	ErrUnidentified  = errors.New("no animal could be identified")
)

// Result is what an Identifier recognised in a photo.
type Result struct {
	Species     string   `json:"species"`
	CommonNames []string `json:"common_names"`
	Kingdom     string   `json:"kingdom"`
	Class       string   `json:"class"`
	FunFacts    []string `json:"fun_facts"`
	RarityLevel int      `json:"rarity_level"`
	Quality     float64  `json:"quality"`
}

// Identifier recognises the animal in an image.
type Identifier interface {
	Identify(ctx context.Context, image []byte, contentType string) (Result, error)
}

// Posts is the slice of the posts service used here.
type Posts interface {
	UpsertAnimal(ctx context.Context, in posts.AnimalInput) (*posts.Animal, error)
	Create(ctx context.Context, in posts.CreateInput) (*posts.Post, bool, error)
}

// Service runs the identification pipeline.
type Service struct {
	store      storage.Store
	posts      Posts
	identifier Identifier
	logger     *slog.Logger
}

func NewService(store storage.Store, p Posts, identifier Identifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, posts: p, identifier: identifier, logger: logger}
}

// Identify decodes a base64 photo, identifies it, stores it under a content-addressed
// path and records the animal and post. Uploading the same photo twice yields the same
// post.
func (s *Service) Identify(ctx context.Context, userID, imageBase64 string) (discovery.Identification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return discovery.Identification{}, ErrMissingUser
	}
	data, err := DecodeImage(imageBase64)
	if err != nil {
		return discovery.Identification{}, err
	}
	contentType, ext, ok := storage.DetectImage(data)
	if !ok {
		return discovery.Identification{}, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, contentType)
	}

	res, err := s.identifier.Identify(ctx, data, contentType)
	if err != nil {
		return discovery.Identification{}, fmt.Errorf("identify image: %w", err)
	}
	res.Species = strings.TrimSpace(res.Species)
	if res.Species == "" {
		return discovery.Identification{}, ErrUnidentified
	}
	if res.Quality < 0 {
		res.Quality = 0
	}

	sum := sha256.Sum256(data)
	objectPath := path.Join("posts", userID, hex.EncodeToString(sum[:])+ext)
	imageURL, err := s.store.Put(ctx, objectPath, bytes.NewReader(data), contentType)
	if err != nil {
		return discovery.Identification{}, fmt.Errorf("store image: %w", err)
	}

	animal, err := s.posts.UpsertAnimal(ctx, posts.AnimalInput{
		Species:     res.Species,
		CommonNames: res.CommonNames,
		Kingdom:     res.Kingdom,
		Class:       res.Class,
		FunFacts:    res.FunFacts,
		RarityLevel: res.RarityLevel,
	})
	if err != nil {
		return discovery.Identification{}, fmt.Errorf("record animal: %w", err)
	}

	animalID := animal.ID
	post, created, err := s.posts.Create(ctx, posts.CreateInput{
		UserID:   userID,
		AnimalID: &animalID,
		ImageURL: imageURL,
		Quality:  res.Quality,
	})
	if err != nil {
		return discovery.Identification{}, fmt.Errorf("record post: %w", err)
	}
	s.logger.Info("image identified",
		"user_id", userID,
		"post_id", post.ID,
		"species", animal.Species,
		"created", created,
	)

	return discovery.Identification{
		PostID:   post.ID,
		ImageURL: imageURL,
		AnimalID: animal.ID,
		Identified: discovery.Identified{
			Species:     animal.Species,
			Rarity:      rarity.String(string(rarity.FromCatalogLevel(animal.RarityLevel))),
			Quality:     discovery.Quality(res.Quality),
			Kingdom:     animal.Kingdom,
			Class:       animal.Class,
			CommonNames: animal.CommonNames,
			FunFacts:    animal.FunFacts,
		},
	}, nil
}

// DecodeImage accepts raw base64 or a data URL and enforces MaxImageBytes.
func DecodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxImageBytes+2 {
		return nil, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: not base64", ErrInvalidImage)
		}
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}
