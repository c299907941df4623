package catalog

import "fmt"

// Suit is a French playing-card suit.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// IsRed reports whether the suit is hearts or diamonds.
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank is a playing-card rank, "2" through "10" plus "J", "Q", "K", "A".
type Rank string

// rankOrder gives a total ordering over ranks so that "between 2 and 9"
// style checks work for face cards too.
var rankOrder = map[Rank]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 11, "Q": 12, "K": 13, "A": 14,
}

// Between reports whether the rank falls in the inclusive range [lo, hi].
func (r Rank) Between(lo, hi Rank) bool {
	return rankOrder[r] >= rankOrder[lo] && rankOrder[r] <= rankOrder[hi]
}

// Category partitions the deck by how a card behaves when played.
type Category string

const (
	// CategoryRegular cards resolve immediately and go to the discard pile.
	CategoryRegular Category = "regular"
	// CategoryEquippable cards stay in front of the player once played.
	CategoryEquippable Category = "equippable"
	// CategoryWeapon cards replace the default gun and set attack range.
	CategoryWeapon Category = "weapon"
	// CategoryStatus cards sit in a player's status area (jail, dynamite).
	CategoryStatus Category = "status"
)

// CardName enumerates every card in the base deck.
type CardName string

const (
	CardBang        CardName = "bang"
	CardMancato     CardName = "mancato"
	CardPanico      CardName = "panico"
	CardBirra       CardName = "birra"
	CardEmporio     CardName = "emporio"
	CardCatBalou    CardName = "cat_balou"
	CardGatling     CardName = "gatling"
	CardDuello      CardName = "duello"
	CardIndians     CardName = "indians"
	CardSaloon      CardName = "saloon"
	CardDiligenza   CardName = "diligenza"
	CardWellsFargo  CardName = "wells_fargo"
	CardBarile      CardName = "barile"
	CardScope       CardName = "scope"
	CardMustang     CardName = "mustang"
	CardPrigione    CardName = "prigione"
	CardDynamite    CardName = "dynamite"
	CardVolcanic    CardName = "volcanic"
	CardSchofield   CardName = "schofield"
	CardRemington   CardName = "remington"
	CardRevCarabine CardName = "rev_carabine"
	CardWinchester  CardName = "winchester"
)

// Card is an immutable deck card. Cards are created once at catalog load and
// move between containers (draw pile, hands, in-play areas) by reference;
// identity is the dense ID, stable for the whole session.
type Card struct {
	ID             int
	Name           CardName
	Category       Category
	Suit           Suit
	Rank           Rank
	RequiresTarget bool
	Range          int // weapons only; zero otherwise
}

// String renders the card the way it appears in prompts and logs,
// e.g. "bang (A of spades)".
func (c *Card) String() string {
	return fmt.Sprintf("%s (%s of %s)", c.Name, c.Rank, c.Suit)
}

type suitRank struct {
	suit Suit
	rank Rank
}

type cardSpec struct {
	name           CardName
	category       Category
	requiresTarget bool
	gunRange       int
	copies         []suitRank
}

// deckSpecs lists the base deck in ID order. IDs are assigned densely from 1
// in the order the specs appear, so bang occupies 1-25, mancato 26-37, and so
// on through winchester at 80.
var deckSpecs = []cardSpec{
	{name: CardBang, category: CategoryRegular, requiresTarget: true, copies: []suitRank{
		{Spades, "A"},
		{Diamonds, "2"}, {Diamonds, "3"}, {Diamonds, "4"}, {Diamonds, "5"}, {Diamonds, "6"}, {Diamonds, "7"},
		{Diamonds, "8"}, {Diamonds, "9"}, {Diamonds, "10"}, {Diamonds, "J"}, {Diamonds, "Q"}, {Diamonds, "K"}, {Diamonds, "A"},
		{Clubs, "2"}, {Clubs, "3"}, {Clubs, "4"}, {Clubs, "5"}, {Clubs, "6"}, {Clubs, "7"}, {Clubs, "8"}, {Clubs, "9"},
		{Hearts, "Q"}, {Hearts, "K"}, {Hearts, "A"},
	}},
	{name: CardMancato, category: CategoryRegular, copies: []suitRank{
		{Spades, "2"}, {Spades, "3"}, {Spades, "4"}, {Spades, "5"}, {Spades, "6"}, {Spades, "7"}, {Spades, "8"},
		{Clubs, "10"}, {Clubs, "J"}, {Clubs, "Q"}, {Clubs, "K"}, {Clubs, "A"},
	}},
	{name: CardPanico, category: CategoryRegular, requiresTarget: true, copies: []suitRank{
		{Hearts, "J"}, {Hearts, "Q"}, {Hearts, "A"}, {Diamonds, "8"},
	}},
	{name: CardBirra, category: CategoryRegular, copies: []suitRank{
		{Hearts, "6"}, {Hearts, "7"}, {Hearts, "8"}, {Hearts, "9"}, {Hearts, "10"}, {Hearts, "J"},
	}},
	{name: CardEmporio, category: CategoryRegular, copies: []suitRank{
		{Clubs, "9"}, {Spades, "Q"},
	}},
	{name: CardCatBalou, category: CategoryRegular, requiresTarget: true, copies: []suitRank{
		{Hearts, "K"}, {Diamonds, "9"}, {Diamonds, "10"}, {Diamonds, "J"},
	}},
	{name: CardGatling, category: CategoryRegular, copies: []suitRank{
		{Hearts, "10"},
	}},
	{name: CardDuello, category: CategoryRegular, requiresTarget: true, copies: []suitRank{
		{Diamonds, "Q"}, {Spades, "J"}, {Clubs, "8"},
	}},
	{name: CardIndians, category: CategoryRegular, copies: []suitRank{
		{Diamonds, "K"}, {Diamonds, "A"},
	}},
	{name: CardSaloon, category: CategoryRegular, copies: []suitRank{
		{Hearts, "5"},
	}},
	{name: CardDiligenza, category: CategoryRegular, copies: []suitRank{
		{Spades, "9"}, {Spades, "9"},
	}},
	{name: CardWellsFargo, category: CategoryRegular, copies: []suitRank{
		{Hearts, "3"},
	}},
	{name: CardBarile, category: CategoryEquippable, copies: []suitRank{
		{Spades, "Q"}, {Spades, "K"},
	}},
	{name: CardScope, category: CategoryEquippable, copies: []suitRank{
		{Spades, "A"},
	}},
	{name: CardMustang, category: CategoryEquippable, copies: []suitRank{
		{Hearts, "8"}, {Hearts, "9"},
	}},
	{name: CardPrigione, category: CategoryStatus, requiresTarget: true, copies: []suitRank{
		{Spades, "J"}, {Spades, "10"}, {Hearts, "4"},
	}},
	{name: CardDynamite, category: CategoryStatus, copies: []suitRank{
		{Hearts, "2"},
	}},
	{name: CardVolcanic, category: CategoryWeapon, gunRange: 1, copies: []suitRank{
		{Spades, "10"}, {Clubs, "10"},
	}},
	{name: CardSchofield, category: CategoryWeapon, gunRange: 2, copies: []suitRank{
		{Clubs, "K"}, {Clubs, "J"}, {Clubs, "Q"},
	}},
	{name: CardRemington, category: CategoryWeapon, gunRange: 3, copies: []suitRank{
		{Clubs, "K"},
	}},
	{name: CardRevCarabine, category: CategoryWeapon, gunRange: 4, copies: []suitRank{
		{Clubs, "A"},
	}},
	{name: CardWinchester, category: CategoryWeapon, gunRange: 5, copies: []suitRank{
		{Spades, "8"},
	}},
}

// DeckSize is the number of cards in the base deck.
const DeckSize = 80

// NewDeck builds a fresh copy of the base deck in ID order. Each call returns
// newly allocated cards so independent games never share card pointers.
func NewDeck() []*Card {
	deck := make([]*Card, 0, DeckSize)
	id := 1
	for _, spec := range deckSpecs {
		for _, sr := range spec.copies {
			deck = append(deck, &Card{
				ID:             id,
				Name:           spec.name,
				Category:       spec.category,
				Suit:           sr.suit,
				Rank:           sr.rank,
				RequiresTarget: spec.requiresTarget,
				Range:          spec.gunRange,
			})
			id++
		}
	}
	return deck
}
