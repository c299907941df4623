package game

import (
	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// abilityHooks are the extension points a character ability can plug into.
// Abilities that only gate existing checks (barrel, range, bang limit, the
// two-miss rule, the draw pick) are consulted where the check happens and
// need no hook here.
type abilityHooks struct {
	// startOfTurnDraw replaces the plain two-card draw. Returning handled =
	// false falls back to the default draw; the hook may instead suspend on a
	// question and finish the draw from its answer handler.
	startOfTurnDraw func(g *Game, p *Player, em *emitter) (handled bool, err error)
	// postDamage runs after p survived losing n life to source (source may be
	// nil for dynamite).
	postDamage func(g *Game, p, source *Player, n int, em *emitter) error
	// postElimination runs on every living holder when dead leaves the game,
	// before the dead player's cards hit the discard pile. Returning looted =
	// true claims the hand and table cards.
	postElimination func(g *Game, holder, dead *Player, em *emitter) (looted bool, err error)
	// substitute maps a demanded card name to the alternative the holder may
	// pay with, or "" when there is none.
	substitute func(want catalog.CardName) catalog.CardName
}

var abilityTable = map[catalog.AbilityTag]abilityHooks{
	catalog.AbilityChooseThree: {
		startOfTurnDraw: func(g *Game, p *Player, em *emitter) (bool, error) {
			drawn := make([]*catalog.Card, 0, 3)
			for i := 0; i < 3; i++ {
				c, err := g.drawTop()
				if err != nil {
					return false, err
				}
				drawn = append(drawn, c)
			}
			return true, g.raiseQuestion(p, &pendingQuestion{
				Kind:    qKitReturn,
				Prompt:  "Which card goes back on top of the deck?",
				Options: cardOptions(drawn),
				Drawn:   drawn,
			}, em)
		},
	},
	catalog.AbilityDrawFromPlayer: {
		startOfTurnDraw: func(g *Game, p *Player, em *emitter) (bool, error) {
			if !g.anyOpponentHand(p) {
				return false, nil
			}
			return true, g.raiseQuestion(p, &pendingQuestion{
				Kind:    qJesseSource,
				Prompt:  "Where does your first card come from?",
				Options: []string{OptionFromDeck, OptionFromPlayer},
			}, em)
		},
	},
	catalog.AbilityDrawFromDiscard: {
		startOfTurnDraw: func(g *Game, p *Player, em *emitter) (bool, error) {
			if len(g.discardPile) == 0 {
				return false, nil
			}
			return true, g.raiseQuestion(p, &pendingQuestion{
				Kind:    qPedroSource,
				Prompt:  "Where does your first card come from?",
				Options: []string{OptionFromDeck, OptionFromDiscard},
			}, em)
		},
	},
	catalog.AbilityDrawExtraOnRed: {
		startOfTurnDraw: func(g *Game, p *Player, em *emitter) (bool, error) {
			first, err := g.drawTop()
			if err != nil {
				return false, err
			}
			second, err := g.drawTop()
			if err != nil {
				return false, err
			}
			p.Hand = append(p.Hand, first, second)
			g.note(em, "%s shows the second draw: %s", p.Name, second)
			n := 2
			if second.Suit.IsRed() {
				if err := g.drawCards(p, 1); err != nil {
					return false, err
				}
				n = 3
			}
			return true, g.finishDrawPhase(p, n, em)
		},
	},
	catalog.AbilityDrawOnDamage: {
		postDamage: func(g *Game, p, source *Player, n int, em *emitter) error {
			if err := g.drawCards(p, n); err != nil {
				return err
			}
			g.note(em, "%s draws %d for the pain", p.Name, n)
			em.hand(p)
			return nil
		},
	},
	catalog.AbilityStealOnDamage: {
		postDamage: func(g *Game, p, source *Player, n int, em *emitter) error {
			if source == nil || !source.Alive() {
				return nil
			}
			took := 0
			for i := 0; i < n && len(source.Hand) > 0; i++ {
				c := source.Hand[g.rng.Intn(len(source.Hand))]
				source.removeFromHand(c)
				p.Hand = append(p.Hand, c)
				took++
			}
			if took == 0 {
				return nil
			}
			g.note(em, "%s takes %d cards from %s's hand", p.Name, took, source.Name)
			em.hand(p)
			em.hand(source)
			return g.afterHandChange(source, em)
		},
	},
	catalog.AbilityScavenge: {
		postElimination: func(g *Game, holder, dead *Player, em *emitter) (bool, error) {
			loot := append(append([]*catalog.Card{}, dead.Hand...), dead.InPlay...)
			if len(loot) == 0 {
				return true, nil
			}
			holder.Hand = append(holder.Hand, loot...)
			dead.Hand, dead.InPlay = nil, nil
			g.note(em, "%s picks the body clean of %d cards", holder.Name, len(loot))
			em.hand(holder)
			return true, nil
		},
	},
	catalog.AbilitySubstitute: {
		substitute: func(want catalog.CardName) catalog.CardName {
			switch want {
			case catalog.CardMancato:
				return catalog.CardBang
			case catalog.CardBang:
				return catalog.CardMancato
			}
			return ""
		},
	},
}

func (p *Player) hooks() abilityHooks {
	return abilityTable[p.Character.Ability]
}

// substituteFor returns the card name p may pay instead of want, or "".
func substituteFor(p *Player, want catalog.CardName) catalog.CardName {
	if sub := p.hooks().substitute; sub != nil {
		return sub(want)
	}
	return ""
}

// UseInnateAbility invokes a player-triggered ability. Only Sid Ketchum has
// one in the base set: trade two hand cards for one life.
func (g *Game) UseInnateAbility(name string) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	if !p.is(catalog.AbilityTradeLife) {
		return nil, rejectf("%s has no ability to invoke", p.Character.Name)
	}
	if g.phase != PhaseDraw && g.phase != PhaseAction && g.phase != PhaseDiscard {
		return nil, rejectf("the game is not running")
	}
	if !p.Alive() {
		return nil, rejectf("you are out of the game")
	}
	if _, open := g.questions[name]; open || g.current != nil {
		return nil, rejectf("finish the current card first")
	}
	if p.Life >= p.LifeLimit {
		return nil, rejectf("you are already at full life")
	}
	if len(p.Hand) < 2 {
		return nil, rejectf("you need two cards to trade")
	}
	ids := make([]int, len(p.Hand))
	for i, c := range p.Hand {
		ids[i] = c.ID
	}
	if err := g.raiseQuestion(p, &pendingQuestion{
		Kind:    qTradeFirst,
		Prompt:  "Discard which card first?",
		Options: cardOptions(p.Hand),
		CardIDs: ids,
	}, em); err != nil {
		return nil, err
	}
	return em.ns, nil
}

func (g *Game) answerTradeFirst(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	i := optionIndex(q.Options, answer)
	if i < 0 || i >= len(q.CardIDs) {
		return rejectf("that card is not in your hand")
	}
	first := q.CardIDs[i]
	rest := make([]*catalog.Card, 0, len(p.Hand)-1)
	for _, c := range p.Hand {
		if c.ID != first {
			rest = append(rest, c)
		}
	}
	ids := make([]int, len(rest))
	for j, c := range rest {
		ids[j] = c.ID
	}
	return g.raiseQuestion(p, &pendingQuestion{
		Kind:     qTradeSecond,
		Prompt:   "And the second?",
		Options:  cardOptions(rest),
		CardIDs:  ids,
		PickedID: first,
	}, em)
}

func (g *Game) answerTradeSecond(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	i := optionIndex(q.Options, answer)
	if i < 0 || i >= len(q.CardIDs) {
		return rejectf("that card is not in your hand")
	}
	for _, id := range []int{q.PickedID, q.CardIDs[i]} {
		c := p.handCard(id)
		if c == nil {
			return invariantf("trade card %d left %s's hand mid-question", id, p.Name)
		}
		p.removeFromHand(c)
		g.discard(c)
	}
	p.Life++
	g.note(em, "%s trades two cards for a life", p.Name)
	g.log.Debug("innate ability used", zap.String("player", p.Name))
	em.hand(p)
	g.board(em)
	return g.afterHandChange(p, em)
}

// answerKitReturn puts the chosen card back on top and keeps the other two.
func (g *Game) answerKitReturn(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	i := optionIndex(q.Options, answer)
	if i < 0 || i >= len(q.Drawn) {
		return rejectf("pick one of the drawn cards")
	}
	back := q.Drawn[i]
	g.drawPile = append([]*catalog.Card{back}, g.drawPile...)
	for j, c := range q.Drawn {
		if j != i {
			p.Hand = append(p.Hand, c)
		}
	}
	return g.finishDrawPhase(p, 2, em)
}

// answerJesseSource picks deck or a victim for the first card of the draw.
func (g *Game) answerJesseSource(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	if answer == OptionFromDeck {
		if err := g.drawCards(p, 2); err != nil {
			return err
		}
		return g.finishDrawPhase(p, 2, em)
	}
	var victims []string
	for _, o := range g.alivePlayers() {
		if o != p && len(o.Hand) > 0 {
			victims = append(victims, o.Name)
		}
	}
	if len(victims) == 0 {
		if err := g.drawCards(p, 2); err != nil {
			return err
		}
		return g.finishDrawPhase(p, 2, em)
	}
	if len(victims) == 1 {
		return g.jesseTake(p, victims[0], em)
	}
	return g.raiseQuestion(p, &pendingQuestion{
		Kind:    qJesseVictim,
		Prompt:  "Whose hand do you draw from?",
		Options: victims,
	}, em)
}

func (g *Game) answerJesseVictim(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	return g.jesseTake(p, answer, em)
}

// jesseTake pulls a random card from the victim's hand, then the second card
// from the deck.
func (g *Game) jesseTake(p *Player, victimName string, em *emitter) error {
	victim, ok := g.players[victimName]
	if !ok || len(victim.Hand) == 0 {
		return rejectf("%s has no cards to take", victimName)
	}
	c := victim.Hand[g.rng.Intn(len(victim.Hand))]
	victim.removeFromHand(c)
	p.Hand = append(p.Hand, c)
	g.note(em, "%s draws the first card from %s's hand", p.Name, victim.Name)
	em.hand(victim)
	if err := g.afterHandChange(victim, em); err != nil {
		return err
	}
	if err := g.drawCards(p, 1); err != nil {
		return err
	}
	return g.finishDrawPhase(p, 2, em)
}

// answerPedroSource takes the first card from the discard pile or the deck.
func (g *Game) answerPedroSource(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	if answer == OptionFromDiscard && len(g.discardPile) > 0 {
		c := g.discardPile[len(g.discardPile)-1]
		g.discardPile = g.discardPile[:len(g.discardPile)-1]
		p.Hand = append(p.Hand, c)
		g.note(em, "%s fishes %s out of the discard pile", p.Name, c)
		if err := g.drawCards(p, 1); err != nil {
			return err
		}
		return g.finishDrawPhase(p, 2, em)
	}
	if err := g.drawCards(p, 2); err != nil {
		return err
	}
	return g.finishDrawPhase(p, 2, em)
}
