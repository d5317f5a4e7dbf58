package posts

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/profile"
	"github.com/wildnest/wildnest/internal/rarity"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", s.n)
}

type fixture struct {
	svc      *Service
	repo     Repository
	profiles profile.Repository
	db       *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "posts.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&profile.Profile{}, &Animal{}, &Post{}, &likes.Like{}))

	repo := NewGormRepository(db)
	profiles := profile.NewGormRepository(db)
	clock := &stepClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	return fixture{
		svc:      NewService(repo, profiles, clock, &seqIDs{}, nil),
		repo:     repo,
		profiles: profiles,
		db:       db,
	}
}

func strPtr(s string) *string { return &s }

func TestCreate_SuppressesDuplicateImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: "https://cdn/x.jpg", Quality: 7})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: "https://cdn/x.jpg", Quality: 9})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 7.0, second.Quality)

	other, created, err := f.svc.Create(ctx, CreateInput{UserID: "u2", ImageURL: "https://cdn/x.jpg"})
	require.NoError(t, err)
	assert.True(t, created, "another user may post the same image")
	assert.NotEqual(t, first.ID, other.ID)

	dups, err := f.svc.Duplicates(ctx)
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Create(context.Background(), CreateInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = f.svc.Create(context.Background(), CreateInput{ImageURL: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = f.svc.Create(context.Background(), CreateInput{UserID: "u", ImageURL: "x", Quality: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLatest_JoinsAndLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.profiles.Create(ctx, &profile.Profile{ID: "u1", DisplayName: "Ada", ProfileImageURL: "https://cdn/ada.png"})
	require.NoError(t, err)

	fox, err := f.svc.UpsertAnimal(ctx, AnimalInput{Species: "Vulpes vulpes", CommonNames: []string{"Red Fox"}, RarityLevel: 8})
	require.NoError(t, err)
	bare, err := f.svc.UpsertAnimal(ctx, AnimalInput{Species: "Lynx rufus", RarityLevel: 5})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: fmt.Sprintf("https://cdn/%d.jpg", i), AnimalID: &fox.ID})
		require.NoError(t, err)
	}
	_, _, err = f.svc.Create(ctx, CreateInput{UserID: "ghost", ImageURL: "https://cdn/g.jpg", AnimalID: &bare.ID})
	require.NoError(t, err)

	feed, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, feed, FeedSize)

	newest := feed[0]
	assert.Equal(t, "https://cdn/g.jpg", newest.ImageURL)
	assert.Equal(t, profile.Author{Name: "Unknown User", Avatar: profile.DefaultAvatar}, newest.User)
	require.NotNil(t, newest.Animal)
	assert.Equal(t, "Lynx rufus", newest.Animal.Name)
	assert.Equal(t, rarity.Uncommon, newest.Animal.Rarity)

	assert.Equal(t, "Ada", feed[1].User.Name)
	assert.Equal(t, "Red Fox", feed[1].Animal.Name)
	assert.Equal(t, rarity.Legendary, feed[1].Animal.Rarity)
	assert.Equal(t, "https://cdn/4.jpg", feed[1].ImageURL)
}

func TestLatest_CacheInvalidatedOnCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, _, err := f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: "a"})
	require.NoError(t, err)
	feed, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	// A write behind the service's back is not visible until the cache is invalidated.
	require.NoError(t, f.db.Create(&Post{ID: "side", UserID: "u9", ImageURL: "side", CreatedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}).Error)
	feed, err = f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	_, _, err = f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: "b"})
	require.NoError(t, err)
	feed, err = f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, 3)

	require.NoError(t, f.svc.Delete(ctx, p.ID, "u1"))
	feed, err = f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, _, err := f.svc.Create(ctx, CreateInput{UserID: "owner", ImageURL: "a"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, p.ID, "intruder"), ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, "missing", "owner"), ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, p.ID, "owner"))

	_, err = f.svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_RemovesLikes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kept, _, err := f.svc.Create(ctx, CreateInput{UserID: "owner", ImageURL: "kept"})
	require.NoError(t, err)
	gone, _, err := f.svc.Create(ctx, CreateInput{UserID: "owner", ImageURL: "gone"})
	require.NoError(t, err)

	likeRepo := likes.NewGormRepository(f.db)
	now := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	for _, user := range []string{"u1", "u2"} {
		_, err := likeRepo.Toggle(ctx, gone.ID, user, now)
		require.NoError(t, err)
	}
	_, err = likeRepo.Toggle(ctx, kept.ID, "u1", now)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, gone.ID, "owner"))

	n, err := likeRepo.Count(ctx, gone.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = likeRepo.Count(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDelete_ForbiddenKeepsLikes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, _, err := f.svc.Create(ctx, CreateInput{UserID: "owner", ImageURL: "a"})
	require.NoError(t, err)
	likeRepo := likes.NewGormRepository(f.db)
	_, err = likeRepo.Toggle(ctx, p.ID, "u1", time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, p.ID, "intruder"), ErrForbidden)

	n, err := likeRepo.Count(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLatest_CallerMutationDoesNotReachCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, err := f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: "a"})
	require.NoError(t, err)
	_, _, err = f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: "b"})
	require.NoError(t, err)

	first, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	first[0].ImageURL = "tampered"

	cached, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, "b", cached[0].ImageURL)
	cached[1].Caption = strPtr("tampered")

	again, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", again[0].ImageURL)
	assert.Nil(t, again[1].Caption)
}

func TestByUserAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, img := range []string{"1", "2", "3"} {
		_, _, err := f.svc.Create(ctx, CreateInput{UserID: "u1", ImageURL: img, Caption: strPtr("cap " + img)})
		require.NoError(t, err)
	}
	_, _, err := f.svc.Create(ctx, CreateInput{UserID: "u2", ImageURL: "9"})
	require.NoError(t, err)

	mine, err := f.svc.ByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "3", mine[0].ImageURL)
	assert.Nil(t, mine[0].Animal)

	one, err := f.svc.Get(ctx, mine[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "cap 2", *one.Caption)
}

func TestUpsertAnimal_UniqueBySpecies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.svc.UpsertAnimal(ctx, AnimalInput{Species: "Tyto alba", CommonNames: []string{"Barn Owl"}, RarityLevel: 3})
	require.NoError(t, err)
	b, err := f.svc.UpsertAnimal(ctx, AnimalInput{Species: "Tyto alba", CommonNames: []string{"Barn Owl", "Church Owl"}, RarityLevel: 12})
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, 10, b.RarityLevel)
	assert.Equal(t, []string{"Barn Owl", "Church Owl"}, b.CommonNames)

	_, err = f.svc.UpsertAnimal(ctx, AnimalInput{Species: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
