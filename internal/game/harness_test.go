package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

var testNames = []string{"amy", "bill", "cass", "drew", "eve", "finn", "gil"}

// newStartedGame seats n players, runs setup with the first offered character
// for everyone, and leaves the sheriff in the action phase of turn one.
func newStartedGame(t *testing.T, n int) *Game {
	t.Helper()
	g := New("TEST", zap.NewNop(), WithSeed(7))
	for _, name := range testNames[:n] {
		_, err := g.AddPlayer(name)
		require.NoError(t, err)
	}
	_, err := g.PrepareSetup()
	require.NoError(t, err)
	// Pin every offer to Sid Ketchum so no draw-phase ability fires during
	// setup and every scenario starts from the same neutral footing.
	sid, _ := catalog.CharacterByName("Sid Ketchum")
	rose, _ := catalog.CharacterByName("Rose Doolan")
	names := make([]string, 0, len(g.offers))
	for name := range g.offers {
		g.offers[name] = []catalog.Character{sid, rose}
		names = append(names, name)
	}
	for _, name := range names {
		_, err := g.AssignCharacter(name, sid.Name)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseAction, g.phase)
	return g
}

// neutralize gives every seat Sid Ketchum, whose ability only fires when
// invoked, so combat flows run without character interference.
func neutralize(g *Game) {
	sid, _ := catalog.CharacterByName("Sid Ketchum")
	for _, p := range g.players {
		p.Character = sid
	}
}

func setCharacter(t *testing.T, p *Player, name string) {
	t.Helper()
	c, ok := catalog.CharacterByName(name)
	require.True(t, ok, "unknown character %s", name)
	p.Character = c
}

// giveCard moves a card with the given name from anywhere else in the game
// into p's hand. The draw pile is searched bottom-up so cards stacked on top
// for a scenario stay put.
func giveCard(t *testing.T, g *Game, p *Player, name catalog.CardName) *catalog.Card {
	t.Helper()
	take := func(cs []*catalog.Card) *catalog.Card {
		for _, c := range cs {
			if c.Name == name {
				return c
			}
		}
		return nil
	}
	takeLast := func(cs []*catalog.Card) *catalog.Card {
		for i := len(cs) - 1; i >= 0; i-- {
			if cs[i].Name == name {
				return cs[i]
			}
		}
		return nil
	}
	if c := takeLast(g.drawPile); c != nil {
		g.drawPile = removeCard(g.drawPile, c)
		p.Hand = append(p.Hand, c)
		return c
	}
	if c := take(g.discardPile); c != nil {
		g.discardPile = removeCard(g.discardPile, c)
		p.Hand = append(p.Hand, c)
		return c
	}
	for _, o := range g.players {
		if o == p {
			continue
		}
		if c := take(o.Hand); c != nil {
			o.removeFromHand(c)
			p.Hand = append(p.Hand, c)
			return c
		}
	}
	t.Fatalf("no %s available anywhere", name)
	return nil
}

// equip moves a card of the given name into p's in-play area.
func equip(t *testing.T, g *Game, p *Player, name catalog.CardName) *catalog.Card {
	t.Helper()
	c := giveCard(t, g, p, name)
	p.removeFromHand(c)
	p.InPlay = append(p.InPlay, c)
	return c
}

func clearHand(g *Game, p *Player) {
	for _, c := range p.Hand {
		g.discard(c)
	}
	p.Hand = nil
}

func clearTable(g *Game, p *Player) {
	for _, c := range p.InPlay {
		g.discard(c)
	}
	p.InPlay = nil
}

// stackTop moves the first card matching pred to the top of the draw pile so
// the next flip or draw is deterministic. Piles are searched first, then
// hands, since a card with few copies may have been dealt out.
func stackTop(t *testing.T, g *Game, pred func(*catalog.Card) bool) *catalog.Card {
	t.Helper()
	for _, c := range g.drawPile {
		if pred(c) {
			g.drawPile = removeCard(g.drawPile, c)
			g.drawPile = append([]*catalog.Card{c}, g.drawPile...)
			return c
		}
	}
	for _, c := range g.discardPile {
		if pred(c) {
			g.discardPile = removeCard(g.discardPile, c)
			g.drawPile = append([]*catalog.Card{c}, g.drawPile...)
			return c
		}
	}
	for _, name := range g.order {
		o := g.players[name]
		for _, c := range o.Hand {
			if pred(c) {
				o.removeFromHand(c)
				g.drawPile = append([]*catalog.Card{c}, g.drawPile...)
				return c
			}
		}
	}
	t.Fatal("no card matches predicate")
	return nil
}

func bySuit(s catalog.Suit) func(*catalog.Card) bool {
	return func(c *catalog.Card) bool { return c.Suit == s }
}

// answer resolves the open question for name with the given option.
func answer(t *testing.T, g *Game, name, option string) []Notification {
	t.Helper()
	q, ok := g.questions[name]
	require.True(t, ok, "no question open for %s", name)
	ns, err := g.AnswerQuestion(name, q.ID.String(), option)
	require.NoError(t, err)
	return ns
}

// endTurnDiscarding ends name's turn, discarding down to the hand limit when
// the discard phase intervenes.
func endTurnDiscarding(t *testing.T, g *Game, name string) {
	t.Helper()
	p := g.players[name]
	_, err := g.EndTurn(name)
	require.NoError(t, err)
	for g.phase == PhaseDiscard {
		_, err := g.DiscardCard(name, p.Hand[0].ID)
		require.NoError(t, err)
	}
}

// requireConserved asserts every card is in exactly one container.
func requireConserved(t *testing.T, g *Game) {
	t.Helper()
	require.NoError(t, g.CheckConservation())
}

func playerWithRole(t *testing.T, g *Game, role Role) *Player {
	t.Helper()
	for _, name := range g.order {
		if p := g.players[name]; p.Role == role && p.Alive() {
			return p
		}
	}
	t.Fatalf("no living player with role %s", role)
	return nil
}
