package discovery

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildnest/wildnest/internal/rarity"
)

func sample(id, name string, tier rarity.Tier) Discovery {
	return Discovery{ID: id, Name: name, Rarity: tier, Points: rarity.Points(tier)}
}

func TestAppend_InsertsAtFrontWithoutDedupe(t *testing.T) {
	var c Collection
	c = c.Append(sample("1", "Red Fox", rarity.Common))
	c = c.Append(sample("2", "Barn Owl", rarity.Rare))
	c = c.Append(sample("2", "Barn Owl", rarity.Rare))

	require.Len(t, c, 3)
	assert.Equal(t, "2", c[0].ID)
	assert.Equal(t, "1", c[2].ID)
}

func TestAppend_DoesNotMutateReceiver(t *testing.T) {
	base := Collection{sample("1", "Red Fox", rarity.Common)}
	_ = base.Append(sample("2", "Bobcat", rarity.Uncommon))
	assert.Len(t, base, 1)
}

func TestToggleFavorite(t *testing.T) {
	c := Collection{sample("1", "Red Fox", rarity.Common), sample("2", "Bobcat", rarity.Uncommon)}

	toggled := c.ToggleFavorite("2")
	assert.True(t, toggled[1].IsFavorite)
	assert.False(t, c[1].IsFavorite, "receiver must stay untouched")

	assert.False(t, toggled.ToggleFavorite("2")[1].IsFavorite)
	assert.Equal(t, c, c.ToggleFavorite("missing"))
	assert.Len(t, toggled.Favorites(), 1)
}

func TestQueries(t *testing.T) {
	c := Collection{
		sample("1", "Red Fox", rarity.Common),
		sample("2", "Snowy Owl", rarity.Rare),
		sample("3", "Barn Owl", rarity.Legendary),
		sample("4", "Red Fox", rarity.Common),
	}

	assert.Len(t, c.Search("owl"), 2)
	assert.Len(t, c.Search("RED"), 2)
	assert.Len(t, c.Search(""), 4)
	assert.Len(t, c.FilterRarity(rarity.Common), 2)
	assert.Empty(t, c.FilterRarity(rarity.Uncommon))
	assert.Equal(t, 2, c.RareCount())
	assert.Equal(t, 3, c.UniqueSpecies())
	assert.True(t, c.Contains("3"))
	assert.False(t, c.Contains("9"))
	assert.True(t, c.HasRarity(rarity.Legendary))
}

func TestFilterCategory(t *testing.T) {
	fox := sample("1", "Red Fox", rarity.Common)
	fox.Category = "Mammal"
	jay := sample("2", "Blue Jay", rarity.Common)
	jay.Category = "Bird"
	c := Collection{fox, jay}

	got := c.FilterCategory(" bird ")
	require.Len(t, got, 1)
	assert.Equal(t, "Blue Jay", got[0].Name)
	assert.Empty(t, c.FilterCategory("Reptile"))
}

func TestUniqueSpeciesProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("unique species equals the number of distinct names", prop.ForAll(
		func(names []string) bool {
			var c Collection
			distinct := map[string]bool{}
			for i, n := range names {
				c = c.Append(sample(fmt.Sprint(i), n, rarity.Common))
				distinct[n] = true
			}
			return c.UniqueSpecies() == len(distinct)
		},
		gen.SliceOf(gen.OneConstOf("Red Fox", "Bobcat", "Barn Owl", "Raccoon", "Bullfrog", "Snowy Owl")),
	))

	properties.TestingRun(t)
}

func TestFromIdentification(t *testing.T) {
	raw := `{
		"post_id": "0190d1c4-8f7b-7c3e-9a55-2c1d5e7f8a90",
		"image_url": "https://cdn.example/posts/u1/a.jpg",
		"animal_id": "a-1",
		"identified": {
			"species": "Vulpes vulpes",
			"rarity": "legendary",
			"quality": "8.5",
			"common_names": ["Red Fox", "Fox"],
			"fun_facts": ["Hunts at dusk"]
		}
	}`
	var res Identification
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	assert.Equal(t, Quality(8.5), res.Identified.Quality)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := FromIdentification(res, now)

	assert.Equal(t, res.PostID, d.ID)
	assert.Equal(t, res.PostID, d.PostID)
	assert.Equal(t, "Red Fox", d.Name)
	assert.Equal(t, "Vulpes vulpes", d.ScientificName)
	assert.Equal(t, "Unknown", d.Category)
	assert.Equal(t, "Unknown", d.Habitat)
	assert.Equal(t, rarity.Legendary, d.Rarity)
	assert.Equal(t, 100, d.Points)
	assert.Equal(t, now, d.DiscoveredAt)
	assert.False(t, d.IsFavorite)
}

func TestFromIdentification_NumericRarityAndSpeciesFallback(t *testing.T) {
	res := Identification{
		PostID: "p",
		Identified: Identified{
			Species: "Lynx rufus",
			Rarity:  rarity.Number(3),
			Class:   "Mammalia",
			Kingdom: "Animalia",
		},
	}
	d := FromIdentification(res, time.Now())
	assert.Equal(t, "Lynx rufus", d.Name)
	assert.Equal(t, rarity.Rare, d.Rarity)
	assert.Equal(t, 50, d.Points)
	assert.Equal(t, "Mammalia", d.Category)
	assert.Equal(t, "Animalia", d.Habitat)
}

func TestGenerate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 50; i++ {
		d := Generate(rng, "file:///tmp/cat.jpg", now)
		assert.Equal(t, "1700000000000", d.ID)
		assert.True(t, d.Rarity.Valid())
		assert.Equal(t, rarity.Points(d.Rarity), d.Points)
		assert.GreaterOrEqual(t, len(d.FunFacts), 2)
		assert.LessOrEqual(t, len(d.FunFacts), 4)
		assert.NotEmpty(t, d.Name)
		assert.Equal(t, "file:///tmp/cat.jpg", d.ImageURI)
	}
}
