package discovery

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/wildnest/wildnest/internal/rarity"
)

type fieldGuideEntry struct {
	name       string
	scientific string
	category   string
	habitat    string
}

var fieldGuide = []fieldGuideEntry{
	{"Red Fox", "Vulpes vulpes", "Mammal", "Forest"},
	{"Bald Eagle", "Haliaeetus leucocephalus", "Bird", "Mountains"},
	{"Gray Wolf", "Canis lupus", "Mammal", "Forest"},
	{"American Bison", "Bison bison", "Mammal", "Plains"},
	{"Grizzly Bear", "Ursus arctos horribilis", "Mammal", "Mountains"},
	{"Monarch Butterfly", "Danaus plexippus", "Insect", "Meadows"},
	{"Blue Jay", "Cyanocitta cristata", "Bird", "Forest"},
	{"Eastern Box Turtle", "Terrapene carolina", "Reptile", "Woodland"},
	{"American Alligator", "Alligator mississippiensis", "Reptile", "Wetlands"},
	{"White-tailed Deer", "Odocoileus virginianus", "Mammal", "Forest"},
	{"Great Blue Heron", "Ardea herodias", "Bird", "Wetlands"},
	{"Raccoon", "Procyon lotor", "Mammal", "Forest"},
	{"Bobcat", "Lynx rufus", "Mammal", "Forest"},
	{"Barn Owl", "Tyto alba", "Bird", "Grasslands"},
	{"Bullfrog", "Lithobates catesbeianus", "Amphibian", "Wetlands"},
	{"Pileated Woodpecker", "Dryocopus pileatus", "Bird", "Forest"},
	{"River Otter", "Lontra canadensis", "Mammal", "Rivers"},
	{"Snowy Owl", "Bubo scandiacus", "Bird", "Tundra"},
	{"Mountain Lion", "Puma concolor", "Mammal", "Mountains"},
	{"Spotted Salamander", "Ambystoma maculatum", "Amphibian", "Forest"},
}

// Commons are three times as likely as rare or legendary finds.
var rarityPool = []rarity.Tier{
	rarity.Common, rarity.Common, rarity.Common,
	rarity.Uncommon, rarity.Uncommon,
	rarity.Rare,
	rarity.Legendary,
}

var descriptions = []string{
	"This fascinating animal is known for its adaptability and resourcefulness. It has a distinctive appearance and plays an important role in its ecosystem.",
	"A remarkable species that has evolved unique traits to thrive in its habitat. Scientists continue to study its behavior and ecological significance.",
	"This animal exhibits complex social behaviors and has developed specialized adaptations for survival in challenging environments.",
	"An iconic species that represents the biodiversity of its native region. Conservation efforts are crucial for ensuring its continued existence.",
	"Known for its distinctive features and behaviors, this animal has cultural significance in many indigenous traditions.",
}

var funFactPool = []string{
	"Can live up to 20 years in the wild",
	"Has specialized adaptations for hunting at night",
	"Can travel at speeds of up to 35 miles per hour",
	"Uses complex vocalizations to communicate with others of its species",
	"Changes its coat/plumage color seasonally for camouflage",
	"Can remember the locations of hundreds of food caches",
	"Has a highly developed sense of smell that's 100 times more sensitive than humans",
	"Forms lifelong pair bonds with its mate",
	"Can survive months without food by entering a state of torpor",
	"Has been featured in indigenous folklore for centuries",
	"Plays a crucial role in seed dispersal in its ecosystem",
	"Can detect prey from over a mile away",
	"Uses tools to obtain food in the wild",
	"Has specialized teeth/claws that continuously grow throughout its life",
	"Can regulate its body temperature to adapt to extreme conditions",
	"Migrates thousands of miles each year",
	"Has a complex system of underground tunnels and chambers",
	"Can regenerate lost limbs or appendages",
	"Produces venom that has potential medical applications",
	"Has evolved specialized camouflage that makes it nearly invisible in its habitat",
}

// Generate produces an offline field-guide identification for imageRef. The id is
// derived from now, so repeated calls may produce repeated species.
func Generate(rng *rand.Rand, imageRef string, now time.Time) Discovery {
	entry := fieldGuide[rng.IntN(len(fieldGuide))]
	tier := rarityPool[rng.IntN(len(rarityPool))]

	facts := make([]string, len(funFactPool))
	copy(facts, funFactPool)
	rng.Shuffle(len(facts), func(i, j int) { facts[i], facts[j] = facts[j], facts[i] })
	facts = facts[:2+rng.IntN(3)]

	return Discovery{
		ID:             strconv.FormatInt(now.UnixMilli(), 10),
		Name:           entry.name,
		ScientificName: entry.scientific,
		Description:    descriptions[rng.IntN(len(descriptions))],
		Category:       entry.category,
		Habitat:        entry.habitat,
		Rarity:         tier,
		FunFacts:       facts,
		Points:         rarity.Points(tier),
		ImageURI:       imageRef,
		DiscoveredAt:   now.UTC(),
	}
}
