package models

import (
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/timex"
)

// Summary is the listing projection of a Character. It is derived, never
// edited by hand, and can always be rebuilt from the record.
type Summary struct {
	ID            string `json:"id"`
	CharacterName string `json:"characterName"`
	PlayerName    string `json:"playerName"`
	Species       string `json:"species"`
	Style         string `json:"style"`
	Element       string `json:"element"`
	UpdatedAt     string `json:"updatedAt"`
	HP            int    `json:"hp"`
	MP            int    `json:"mp"`
	WP            int    `json:"wp"`
}

const (
	DefaultCharacterName = "(unnamed)"
	DefaultSpecies       = "human"
	DefaultStyle         = "enchanter"
)

// StyleBase holds the starting resource pools granted by a style.
type StyleBase struct {
	HP int
	MP int
}

// Styles maps style keys to their base HP/MP.
var Styles = map[string]StyleBase{
	"enchanter":    {HP: 30, MP: 15},
	"caster":       {HP: 28, MP: 17},
	"shooter":      {HP: 30, MP: 15},
	"shapeshifter": {HP: 30, MP: 15},
	"sacrifa":      {HP: 28, MP: 17},
	"mystic":       {HP: 29, MP: 16},
}

// Summarize derives the listing entry for c. Totals are computed from the
// record's style and abilities as they are now; an unknown style
// contributes no base pool.
func Summarize(c *Character, now time.Time) Summary {
	base := Styles[c.Style]

	s := Summary{
		ID:            c.ID,
		CharacterName: c.CharacterName,
		PlayerName:    c.PlayerName,
		Species:       c.Species,
		Style:         c.Style,
		Element:       c.Element,
		UpdatedAt:     c.UpdatedAt,
		HP:            base.HP + c.HP.Modifier,
		MP:            base.MP + c.MP.Modifier,
		WP:            c.Abilities.Passion.Total + c.Abilities.Affection.Total + c.WP.Modifier,
	}

	if s.CharacterName == "" {
		s.CharacterName = DefaultCharacterName
	}
	if s.Species == "" {
		s.Species = DefaultSpecies
	}
	if s.Style == "" {
		s.Style = DefaultStyle
	}
	if s.UpdatedAt == "" {
		s.UpdatedAt = timex.FormatISO(now)
	}
	return s
}

// IsSample reports whether id belongs to a bundled sample character.
func IsSample(id string) bool {
	return strings.HasPrefix(id, common.SampleIDPrefix)
}

// SortSummaries orders the index in place: user records first, most
// recently updated first; sample records last, by id. Equal timestamps
// fall back to id so the order is total.
func SortSummaries(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		as, bs := IsSample(a.ID), IsSample(b.ID)
		switch {
		case as != bs:
			return !as
		case as:
			return a.ID < b.ID
		case a.UpdatedAt != b.UpdatedAt:
			return a.UpdatedAt > b.UpdatedAt
		default:
			return a.ID < b.ID
		}
	})
}
