package catalog

// AbilityTag names a character's innate ability. The game engine keeps a
// dispatch table keyed by tag, so adding a character never touches the
// resolution code paths.
type AbilityTag string

const (
	// AbilityDrawExtraOnRed draws a third card when the second drawn card is
	// a heart or diamond (Black Jack).
	AbilityDrawExtraOnRed AbilityTag = "draw_extra_on_red"
	// AbilityChooseThree draws three cards and returns one to the draw pile
	// (Kit Carlson).
	AbilityChooseThree AbilityTag = "choose_three"
	// AbilityDrawFromPlayer may take the first drawn card from an opponent's
	// hand (Jesse Jones).
	AbilityDrawFromPlayer AbilityTag = "draw_from_player"
	// AbilityDrawFromDiscard may take the first drawn card from the discard
	// pile (Pedro Ramirez).
	AbilityDrawFromDiscard AbilityTag = "draw_from_discard"
	// AbilityPickDrawCheck flips two cards on every "draw!" and picks the one
	// to use (Lucky Duke).
	AbilityPickDrawCheck AbilityTag = "pick_draw_check"
	// AbilityInnateBarrel counts as having a barrel in play (Jourdonnais).
	AbilityInnateBarrel AbilityTag = "innate_barrel"
	// AbilityRangeBonus sees all other players at distance -1 (Rose Doolan).
	AbilityRangeBonus AbilityTag = "range_bonus"
	// AbilityRangePenalty is seen by all other players at distance +1
	// (Paul Regret).
	AbilityRangePenalty AbilityTag = "range_penalty"
	// AbilityNoBangLimit may play any number of bangs per turn (Willy the Kid).
	AbilityNoBangLimit AbilityTag = "no_bang_limit"
	// AbilityDoubleMiss forces targets to play two miss cards to dodge a bang
	// (Slab the Killer).
	AbilityDoubleMiss AbilityTag = "double_miss"
	// AbilitySubstitute plays bangs as misses and misses as bangs
	// (Calamity Janet).
	AbilitySubstitute AbilityTag = "substitute"
	// AbilityDrawOnDamage draws one card per life point lost (Bart Cassidy).
	AbilityDrawOnDamage AbilityTag = "draw_on_damage"
	// AbilityStealOnDamage steals a hand card from whoever dealt the damage
	// (El Gringo).
	AbilityStealOnDamage AbilityTag = "steal_on_damage"
	// AbilityScavenge takes all cards of any eliminated player (Vulture Sam).
	AbilityScavenge AbilityTag = "scavenge"
	// AbilityEmptyHandDraw draws a card whenever the hand empties
	// (Suzy Lafayette).
	AbilityEmptyHandDraw AbilityTag = "empty_hand_draw"
	// AbilityTradeLife discards two cards to regain one life, invoked by the
	// player (Sid Ketchum).
	AbilityTradeLife AbilityTag = "trade_life"
)

// Character is an immutable character definition. Exactly one character is
// assigned to each player for the duration of a game.
type Character struct {
	Name    string
	Lives   int
	Ability AbilityTag
}

var characters = []Character{
	{Name: "Bart Cassidy", Lives: 4, Ability: AbilityDrawOnDamage},
	{Name: "Black Jack", Lives: 4, Ability: AbilityDrawExtraOnRed},
	{Name: "Calamity Janet", Lives: 4, Ability: AbilitySubstitute},
	{Name: "El Gringo", Lives: 3, Ability: AbilityStealOnDamage},
	{Name: "Jesse Jones", Lives: 4, Ability: AbilityDrawFromPlayer},
	{Name: "Jourdonnais", Lives: 4, Ability: AbilityInnateBarrel},
	{Name: "Kit Carlson", Lives: 4, Ability: AbilityChooseThree},
	{Name: "Lucky Duke", Lives: 4, Ability: AbilityPickDrawCheck},
	{Name: "Paul Regret", Lives: 3, Ability: AbilityRangePenalty},
	{Name: "Pedro Ramirez", Lives: 4, Ability: AbilityDrawFromDiscard},
	{Name: "Rose Doolan", Lives: 4, Ability: AbilityRangeBonus},
	{Name: "Sid Ketchum", Lives: 4, Ability: AbilityTradeLife},
	{Name: "Slab the Killer", Lives: 4, Ability: AbilityDoubleMiss},
	{Name: "Suzy Lafayette", Lives: 4, Ability: AbilityEmptyHandDraw},
	{Name: "Vulture Sam", Lives: 4, Ability: AbilityScavenge},
	{Name: "Willy the Kid", Lives: 4, Ability: AbilityNoBangLimit},
}

// Characters returns a fresh copy of the base character roster.
func Characters() []Character {
	out := make([]Character, len(characters))
	copy(out, characters)
	return out
}

// CharacterByName looks up a character definition by display name.
func CharacterByName(name string) (Character, bool) {
	for _, c := range characters {
		if c.Name == name {
			return c, true
		}
	}
	return Character{}, false
}
