package discovery

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/wildnest/wildnest/internal/rarity"
)

// Identification is the result returned by the identification endpoint.
type Identification struct {
	PostID     string     `json:"post_id"`
	ImageURL   string     `json:"image_url"`
	AnimalID   string     `json:"animal_id"`
	Identified Identified `json:"identified"`
}

// Identified describes the matched animal.
type Identified struct {
	Species     string        `json:"species"`
	Rarity      rarity.Signal `json:"rarity"`
	Quality     Quality       `json:"quality"`
	Kingdom     string        `json:"kingdom,omitempty"`
	Class       string        `json:"class,omitempty"`
	CommonNames []string      `json:"common_names,omitempty"`
	FunFacts    []string      `json:"fun_facts,omitempty"`
}

// Quality is an image quality score that may arrive as a number or a numeric string.
type Quality float64

// UnmarshalJSON accepts 7, 7.5, "7" and "7.5". Unparseable strings decode as zero.
func (q *Quality) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*q = 0
			return nil
		}
		*q = Quality(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*q = Quality(f)
	return nil
}

// FromIdentification builds a Discovery from a remote identification. The post id
// doubles as the discovery id so the same result is never collected twice.
func FromIdentification(res Identification, now time.Time) Discovery {
	id := res.Identified
	name := id.Species
	if len(id.CommonNames) > 0 && id.CommonNames[0] != "" {
		name = id.CommonNames[0]
	}
	tier := rarity.Parse(id.Rarity)

	return Discovery{
		ID:             res.PostID,
		PostID:         res.PostID,
		Name:           name,
		ScientificName: id.Species,
		Category:       orUnknown(id.Class),
		Habitat:        orUnknown(id.Kingdom),
		Rarity:         tier,
		FunFacts:       append([]string(nil), id.FunFacts...),
		Points:         rarity.Points(tier),
		ImageURI:       res.ImageURL,
		DiscoveredAt:   now.UTC(),
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
