package posts

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/wildnest/wildnest/internal/profile"
	"github.com/wildnest/wildnest/internal/rarity"
)

const (
	feedCacheTTL = 30 * time.Second
	feedCacheKey = "feed:latest"
)

// Service exposes post and animal catalog operations.
type Service struct {
	repo     Repository
	profiles ProfileLookup
	clock    Clock
	ids      IDGenerator
	logger   *slog.Logger
	feed     *cache.Cache
}

// NewService wires a post service. logger may be nil.
func NewService(repo Repository, profiles ProfileLookup, clock Clock, ids IDGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:     repo,
		profiles: profiles,
		clock:    clock,
		ids:      ids,
		logger:   logger,
		feed:     cache.New(feedCacheTTL, 2*feedCacheTTL),
	}
}

// Create stores a post. When the user already posted the same image URL the existing
// post is returned and created is false.
func (s *Service) Create(ctx context.Context, in CreateInput) (post *Post, created bool, err error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.UserID == "" {
		return nil, false, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	if in.ImageURL == "" {
		return nil, false, fmt.Errorf("%w: image_url is required", ErrInvalidInput)
	}
	if in.Quality < 0 {
		return nil, false, fmt.Errorf("%w: quality must not be negative", ErrInvalidInput)
	}

	stored, existed, err := s.repo.CreatePost(ctx, &Post{
		ID:        s.ids.NewID(),
		UserID:    in.UserID,
		AnimalID:  in.AnimalID,
		ImageURL:  in.ImageURL,
		Location:  in.Location,
		Quality:   in.Quality,
		Caption:   in.Caption,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("create post: %w", err)
	}
	if existed {
		s.logger.Info("post already exists for image, returning existing", "post_id", stored.ID, "user_id", in.UserID)
		return stored, false, nil
	}
	s.feed.Delete(feedCacheKey)
	return stored, true, nil
}

// Latest returns the newest posts for the feed. Results are cached briefly and
// invalidated by Create and Delete.
func (s *Service) Latest(ctx context.Context) ([]View, error) {
	if cached, found := s.feed.Get(feedCacheKey); found {
		return slices.Clone(cached.([]View)), nil
	}
	rows, err := s.repo.Latest(ctx, FeedSize)
	if err != nil {
		return nil, fmt.Errorf("latest posts: %w", err)
	}
	views, err := s.join(ctx, rows)
	if err != nil {
		return nil, err
	}
	s.feed.Set(feedCacheKey, slices.Clone(views), cache.DefaultExpiration)
	return views, nil
}

// ByUser lists a user's posts, newest first.
func (s *Service) ByUser(ctx context.Context, userID string) ([]View, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	rows, err := s.repo.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user posts: %w", err)
	}
	return s.join(ctx, rows)
}

// Get returns one post with its author and animal.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.join(ctx, []Post{*p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes a post owned by userID together with its likes.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrForbidden
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.feed.Delete(feedCacheKey)
	return nil
}

// Duplicates groups posts sharing a (user, image URL) pair. A healthy store returns
// no groups.
func (s *Service) Duplicates(ctx context.Context) ([][]Post, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]Post)
	var order []string
	for _, p := range rows {
		key := p.UserID + "-" + p.ImageURL
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}
	var out [][]Post
	for _, key := range order {
		if len(groups[key]) > 1 {
			out = append(out, groups[key])
		}
	}
	if len(out) > 0 {
		s.logger.Warn("found duplicate posts", "groups", len(out))
	}
	return out, nil
}

// UpsertAnimal records an identified animal, reusing the catalog entry for the same
// species.
func (s *Service) UpsertAnimal(ctx context.Context, in AnimalInput) (*Animal, error) {
	species := strings.TrimSpace(in.Species)
	if species == "" {
		return nil, fmt.Errorf("%w: species is required", ErrInvalidInput)
	}
	level := in.RarityLevel
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	return s.repo.UpsertAnimal(ctx, &Animal{
		ID:          s.ids.NewID(),
		Species:     species,
		CommonNames: in.CommonNames,
		Kingdom:     in.Kingdom,
		Class:       in.Class,
		FunFacts:    in.FunFacts,
		RarityLevel: level,
		CreatedAt:   s.clock.Now().UTC(),
	})
}

func (s *Service) join(ctx context.Context, rows []Post) ([]View, error) {
	var (
		userIDs   []string
		animalIDs []string
		seenUser  = map[string]bool{}
		seenAnim  = map[string]bool{}
	)
	for _, p := range rows {
		if !seenUser[p.UserID] {
			seenUser[p.UserID] = true
			userIDs = append(userIDs, p.UserID)
		}
		if p.AnimalID != nil && *p.AnimalID != "" && !seenAnim[*p.AnimalID] {
			seenAnim[*p.AnimalID] = true
			animalIDs = append(animalIDs, *p.AnimalID)
		}
	}

	var (
		authors map[string]*profile.Profile
		animals map[string]*Animal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.profiles == nil {
			return nil
		}
		m, err := s.profiles.GetMany(gctx, userIDs)
		if err != nil {
			return fmt.Errorf("load authors: %w", err)
		}
		authors = m
		return nil
	})
	g.Go(func() error {
		m, err := s.repo.AnimalsByID(gctx, animalIDs)
		if err != nil {
			return fmt.Errorf("load animals: %w", err)
		}
		animals = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]View, 0, len(rows))
	for _, p := range rows {
		v := View{Post: p, User: profile.AuthorOf(authors[p.UserID])}
		if p.AnimalID != nil {
			if a, ok := animals[*p.AnimalID]; ok {
				v.Animal = animalView(a)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func animalView(a *Animal) *AnimalView {
	name := a.Species
	if len(a.CommonNames) > 0 && a.CommonNames[0] != "" {
		name = a.CommonNames[0]
	}
	if name == "" {
		name = "Unknown Species"
	}
	scientific := a.Species
	if scientific == "" {
		scientific = "Unknown"
	}
	return &AnimalView{
		ID:             a.ID,
		Name:           name,
		ScientificName: scientific,
		Rarity:         rarity.FromCatalogLevel(a.RarityLevel),
		Kingdom:        a.Kingdom,
		Class:          a.Class,
		FunFacts:       a.FunFacts,
		RarityLevel:    a.RarityLevel,
	}
}

// sortNewestFirst orders posts by creation time, newest first, with id as tiebreaker.
func sortNewestFirst(rows []Post) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}
