package identify

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

var mockCatalog = []Result{
	{Species: "Vulpes vulpes", CommonNames: []string{"Red Fox"}, Kingdom: "Animalia", Class: "Mammalia", RarityLevel: 3,
		FunFacts: []string{"Uses the Earth's magnetic field to pounce on prey", "Has whiskers on its legs as well as its face"}},
	{Species: "Cyanocitta cristata", CommonNames: []string{"Blue Jay"}, Kingdom: "Animalia", Class: "Aves", RarityLevel: 2,
		FunFacts: []string{"Can mimic the calls of hawks", "Buries thousands of acorns every autumn"}},
	{Species: "Procyon lotor", CommonNames: []string{"Raccoon", "Common Raccoon"}, Kingdom: "Animalia", Class: "Mammalia", RarityLevel: 1,
		FunFacts: []string{"Its front paws have four to five times more sensory cells than most mammals"}},
	{Species: "Ardea herodias", CommonNames: []string{"Great Blue Heron"}, Kingdom: "Animalia", Class: "Aves", RarityLevel: 5,
		FunFacts: []string{"Can swallow fish many times wider than its neck", "Nests in colonies called heronries"}},
	{Species: "Lontra canadensis", CommonNames: []string{"North American River Otter"}, Kingdom: "Animalia", Class: "Mammalia", RarityLevel: 6,
		FunFacts: []string{"Can hold its breath for up to eight minutes", "Slides down muddy banks for fun"}},
	{Species: "Lynx rufus", CommonNames: []string{"Bobcat"}, Kingdom: "Animalia", Class: "Mammalia", RarityLevel: 7,
		FunFacts: []string{"Named for its short, bobbed tail"}},
	{Species: "Bubo scandiacus", CommonNames: []string{"Snowy Owl"}, Kingdom: "Animalia", Class: "Aves", RarityLevel: 8,
		FunFacts: []string{"Hunts by day during the Arctic summer", "Males grow whiter as they age"}},
	{Species: "Puma concolor", CommonNames: []string{"Mountain Lion", "Cougar"}, Kingdom: "Animalia", Class: "Mammalia", RarityLevel: 9,
		FunFacts: []string{"Holds the record for the animal with the most common names", "Can leap about 40 feet horizontally"}},
}

// Mock is an offline Identifier. The same image always gets the same animal.
type Mock struct{}

func NewMock() Mock { return Mock{} }

func (Mock) Identify(ctx context.Context, image []byte, _ string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	sum := sha256.Sum256(image)
	n := binary.BigEndian.Uint64(sum[:8])
	res := mockCatalog[n%uint64(len(mockCatalog))]
	res.CommonNames = append([]string(nil), res.CommonNames...)
	res.FunFacts = append([]string(nil), res.FunFacts...)
	res.Quality = float64(5 + sum[8]%6)
	return res, nil
}
