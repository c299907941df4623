package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckSizeAndIDs(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)
	for i, c := range deck {
		assert.Equal(t, i+1, c.ID, "ids must be dense from 1")
	}
}

func TestDeckComposition(t *testing.T) {
	counts := map[CardName]int{}
	for _, c := range NewDeck() {
		counts[c.Name]++
	}
	assert.Equal(t, 25, counts[CardBang])
	assert.Equal(t, 12, counts[CardMancato])
	assert.Equal(t, 6, counts[CardBirra])
	assert.Equal(t, 4, counts[CardPanico])
	assert.Equal(t, 1, counts[CardGatling])
	assert.Equal(t, 1, counts[CardDynamite])
	assert.Equal(t, 3, counts[CardPrigione])
	assert.Equal(t, 2, counts[CardVolcanic])
	assert.Equal(t, 1, counts[CardWinchester])
}

func TestWeaponRanges(t *testing.T) {
	want := map[CardName]int{
		CardVolcanic:    1,
		CardSchofield:   2,
		CardRemington:   3,
		CardRevCarabine: 4,
		CardWinchester:  5,
	}
	for _, c := range NewDeck() {
		if c.Category == CategoryWeapon {
			assert.Equal(t, want[c.Name], c.Range, "range of %s", c.Name)
		} else {
			assert.Zero(t, c.Range, "%s should have no gun range", c.Name)
		}
	}
}

func TestNewDeckReturnsFreshCards(t *testing.T) {
	a, b := NewDeck(), NewDeck()
	require.NotSame(t, a[0], b[0], "decks must not share card pointers")
}

func TestRankBetween(t *testing.T) {
	assert.True(t, Rank("2").Between("2", "9"))
	assert.True(t, Rank("9").Between("2", "9"))
	assert.False(t, Rank("10").Between("2", "9"))
	assert.False(t, Rank("J").Between("2", "9"))
	assert.True(t, Rank("Q").Between("10", "A"))
}

func TestCharacterRoster(t *testing.T) {
	chars := Characters()
	require.Len(t, chars, 16)
	seen := map[string]bool{}
	for _, c := range chars {
		assert.False(t, seen[c.Name], "duplicate character %s", c.Name)
		seen[c.Name] = true
		assert.NotEmpty(t, c.Ability)
	}

	gringo, ok := CharacterByName("El Gringo")
	require.True(t, ok)
	assert.Equal(t, 3, gringo.Lives)
	paul, ok := CharacterByName("Paul Regret")
	require.True(t, ok)
	assert.Equal(t, 3, paul.Lives)
	bart, ok := CharacterByName("Bart Cassidy")
	require.True(t, ok)
	assert.Equal(t, 4, bart.Lives)

	_, ok = CharacterByName("Nobody")
	assert.False(t, ok)
}
