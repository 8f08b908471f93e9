package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_ComputesTotals(t *testing.T) {
	c := &Character{
		ID:            "c1",
		CharacterName: "Aria",
		PlayerName:    "Mika",
		Species:       "elf",
		Style:         "caster",
		Element:       "water",
		UpdatedAt:     "2025-01-02T03:04:05.000Z",
		HP:            ResourceModifier{Modifier: 2},
		MP:            ResourceModifier{Modifier: -1},
		WP:            ResourceModifier{Modifier: 3},
		Abilities: Abilities{
			Passion:   AbilityScore{Total: 9},
			Affection: AbilityScore{Total: 8},
		},
	}

	s := Summarize(c, time.Now())

	assert.Equal(t, Summary{
		ID:            "c1",
		CharacterName: "Aria",
		PlayerName:    "Mika",
		Species:       "elf",
		Style:         "caster",
		Element:       "water",
		UpdatedAt:     "2025-01-02T03:04:05.000Z",
		HP:            30,
		MP:            16,
		WP:            20,
	}, s)
}

func TestSummarize_Defaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := Summarize(&Character{ID: "c2", Style: "no-such-style"}, now)

	assert.Equal(t, DefaultCharacterName, s.CharacterName)
	assert.Equal(t, DefaultSpecies, s.Species)
	assert.Equal(t, "no-such-style", s.Style)
	assert.Equal(t, 0, s.HP)
	assert.Equal(t, 0, s.MP)
	assert.Equal(t, "2025-06-01T12:00:00.000Z", s.UpdatedAt)

	empty := Summarize(&Character{ID: "c3"}, now)
	assert.Equal(t, DefaultStyle, empty.Style)
	assert.Equal(t, 0, empty.HP, "pools come from the stored style, not the display default")
}

func TestSortSummaries_TwoTierOrder(t *testing.T) {
	list := []Summary{
		{ID: "sample02", UpdatedAt: "2030-01-01T00:00:00.000Z"},
		{ID: "old", UpdatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "sample01", UpdatedAt: "2020-01-01T00:00:00.000Z"},
		{ID: "new", UpdatedAt: "2025-01-01T00:00:00.000Z"},
		{ID: "b-tie", UpdatedAt: "2024-06-01T00:00:00.000Z"},
		{ID: "a-tie", UpdatedAt: "2024-06-01T00:00:00.000Z"},
	}

	SortSummaries(list)

	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"new", "a-tie", "b-tie", "old", "sample01", "sample02"}, ids)
}

func TestIsSample(t *testing.T) {
	assert.True(t, IsSample("sample01"))
	assert.True(t, IsSample("sample"))
	assert.False(t, IsSample("Sample01"))
	assert.False(t, IsSample("my-sample"))
}

func TestCharacter_LegacyPayloadDecodes(t *testing.T) {
	legacy := `{"id":"old1","characterName":"Rin","hp":{"modifier":1},"unknownField":42}`

	var c Character
	require.NoError(t, json.Unmarshal([]byte(legacy), &c))
	assert.Equal(t, "old1", c.ID)
	assert.Equal(t, 1, c.HP.Modifier)
	assert.Empty(t, c.Skills)
	assert.False(t, c.IsCopyProhibited)
	assert.False(t, c.HasPassword())
}

func TestCharacter_Redacted(t *testing.T) {
	c := &Character{ID: "c1", Password: "secret", CharacterName: "Aria"}

	r := c.Redacted()

	assert.Empty(t, r.Password)
	assert.Equal(t, "Aria", r.CharacterName)
	assert.Equal(t, "secret", c.Password, "original must be untouched")
}
