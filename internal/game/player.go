package game

import (
	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// Role is a player's hidden win-condition role.
type Role string

const (
	RoleSheriff  Role = "sheriff"
	RoleDeputy   Role = "deputy"
	RoleOutlaw   Role = "outlaw"
	RoleRenegade Role = "renegade"
)

// rolesFor gives the role mix for a seat count. Seat counts outside 4..7 have
// no mix and cannot start a game.
func rolesFor(n int) []Role {
	switch n {
	case 4:
		return []Role{RoleSheriff, RoleOutlaw, RoleOutlaw, RoleRenegade}
	case 5:
		return []Role{RoleSheriff, RoleDeputy, RoleOutlaw, RoleOutlaw, RoleRenegade}
	case 6:
		return []Role{RoleSheriff, RoleDeputy, RoleOutlaw, RoleOutlaw, RoleOutlaw, RoleRenegade}
	case 7:
		return []Role{RoleSheriff, RoleDeputy, RoleDeputy, RoleOutlaw, RoleOutlaw, RoleOutlaw, RoleRenegade}
	}
	return nil
}

// Player is one seat in a game. All card slices hold pointers into the game's
// single card pool; a card is always in exactly one container.
type Player struct {
	Name      string
	Role      Role
	Character catalog.Character
	Life      int
	LifeLimit int
	Hand      []*catalog.Card
	InPlay    []*catalog.Card
	Status    []*catalog.Card
}

func (p *Player) Alive() bool { return p.Life > 0 }

func (p *Player) is(tag catalog.AbilityTag) bool { return p.Character.Ability == tag }

// gun returns the weapon in play, or nil when the player holds the default
// colt.
func (p *Player) gun() *catalog.Card {
	for _, c := range p.InPlay {
		if c.Category == catalog.CategoryWeapon {
			return c
		}
	}
	return nil
}

// gunRange is the player's attack range; the default colt reaches 1.
func (p *Player) gunRange() int {
	if g := p.gun(); g != nil {
		return g.Range
	}
	return 1
}

func (p *Player) hasInPlay(name catalog.CardName) bool {
	for _, c := range p.InPlay {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (p *Player) hasStatus(name catalog.CardName) bool {
	for _, c := range p.Status {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (p *Player) handCard(id int) *catalog.Card {
	for _, c := range p.Hand {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// countInHand counts literal copies of name, without substitution.
func (p *Player) countInHand(name catalog.CardName) int {
	n := 0
	for _, c := range p.Hand {
		if c.Name == name {
			n++
		}
	}
	return n
}

func removeCard(cs []*catalog.Card, c *catalog.Card) []*catalog.Card {
	for i, x := range cs {
		if x == c {
			return append(cs[:i], cs[i+1:]...)
		}
	}
	return cs
}

func (p *Player) removeFromHand(c *catalog.Card)   { p.Hand = removeCard(p.Hand, c) }
func (p *Player) removeFromPlay(c *catalog.Card)   { p.InPlay = removeCard(p.InPlay, c) }
func (p *Player) removeFromStatus(c *catalog.Card) { p.Status = removeCard(p.Status, c) }

// handLimit is the number of cards the player may keep at end of turn.
func (p *Player) handLimit() int {
	if p.Life < 0 {
		return 0
	}
	return p.Life
}

// excess is how many cards must be discarded before the turn can pass.
func (p *Player) excess() int {
	n := len(p.Hand) - p.handLimit()
	if n < 0 {
		return 0
	}
	return n
}
