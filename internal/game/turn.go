package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// turnStage is the fine-grained step inside PhaseDraw. Pre-draw checks
// (dynamite, then jail) run before the player draws; any of them can suspend
// on a Lucky Duke pick and resume where it left off.
type turnStage int

const (
	stageIdle turnStage = iota
	stageDynamite
	stageJail
	stageDrawing
)

// beginTurn opens the current seat's turn and runs the pre-draw steps.
func (g *Game) beginTurn(em *emitter) error {
	g.phase = PhaseDraw
	g.stage = stageDynamite
	g.bangsPlayed = 0
	g.board(em)
	return g.resumeTurnStart(em)
}

// resumeTurnStart advances through the pre-draw steps until one suspends on a
// question or the draw completes and the action phase opens.
func (g *Game) resumeTurnStart(em *emitter) error {
	for {
		p := g.currentPlayer()
		switch g.stage {
		case stageDynamite:
			if p.hasStatus(catalog.CardDynamite) {
				flip, pending, err := g.startCheck(p, checkDynamite, "", 0, 0, em)
				if err != nil {
					return err
				}
				if pending {
					return nil
				}
				dead, err := g.applyDynamite(p, flip, em)
				if err != nil {
					return err
				}
				if g.phase == PhaseGameOver {
					return nil
				}
				if dead {
					return g.advanceTurn(em)
				}
			}
			g.stage = stageJail
		case stageJail:
			if p.hasStatus(catalog.CardPrigione) {
				flip, pending, err := g.startCheck(p, checkJail, "", 0, 0, em)
				if err != nil {
					return err
				}
				if pending {
					return nil
				}
				if !g.applyJail(p, flip, em) {
					g.stage = stageIdle
					return g.advanceTurn(em)
				}
			}
			g.stage = stageDrawing
		case stageDrawing:
			return g.startDrawPhase(p, em)
		default:
			return invariantf("turn start resumed in stage %d", g.stage)
		}
	}
}

// applyDynamite resolves the dynamite flip for p: spades 2 through 9 explodes
// for three damage, anything else passes the stick to the next living seat.
// It reports whether p died.
func (g *Game) applyDynamite(p *Player, flip *catalog.Card, em *emitter) (bool, error) {
	var dyn *catalog.Card
	for _, c := range p.Status {
		if c.Name == catalog.CardDynamite {
			dyn = c
		}
	}
	if dyn == nil {
		return false, invariantf("dynamite resolution without the card in %s's status", p.Name)
	}
	p.removeFromStatus(dyn)
	if flip.Suit == catalog.Spades && flip.Rank.Between("2", "9") {
		g.discard(dyn)
		g.note(em, "the dynamite explodes in %s's face", p.Name)
		if err := g.damage(p, nil, 3, em); err != nil {
			return false, err
		}
		return !p.Alive(), nil
	}
	alive := g.alivePlayers()
	next := alive[1%len(alive)]
	next.Status = append(next.Status, dyn)
	g.note(em, "the dynamite passes to %s", next.Name)
	return false, nil
}

// applyJail resolves the jail flip for p, discarding the jail card either
// way, and reports whether p gets to play the turn.
func (g *Game) applyJail(p *Player, flip *catalog.Card, em *emitter) bool {
	var jail *catalog.Card
	for _, c := range p.Status {
		if c.Name == catalog.CardPrigione {
			jail = c
		}
	}
	if jail == nil {
		return true
	}
	p.removeFromStatus(jail)
	g.discard(jail)
	if flip.Suit == catalog.Hearts {
		g.note(em, "%s breaks out of jail", p.Name)
		return true
	}
	g.note(em, "%s sits the turn out in jail", p.Name)
	return false
}

// startDrawPhase runs p's draw step: the character's draw hook when it takes
// over, otherwise the plain two-card draw.
func (g *Game) startDrawPhase(p *Player, em *emitter) error {
	if hook := p.hooks().startOfTurnDraw; hook != nil {
		handled, err := hook(g, p, em)
		if err != nil || handled {
			return err
		}
	}
	if err := g.drawCards(p, 2); err != nil {
		return err
	}
	return g.finishDrawPhase(p, 2, em)
}

// finishDrawPhase closes the draw step and opens the action phase.
func (g *Game) finishDrawPhase(p *Player, drew int, em *emitter) error {
	g.stage = stageIdle
	g.phase = PhaseAction
	g.note(em, "%s draws %d cards", p.Name, drew)
	em.hand(p)
	g.board(em)
	return nil
}

func (g *Game) anyOpponentHand(p *Player) bool {
	for _, o := range g.players {
		if o != p && o.Alive() && len(o.Hand) > 0 {
			return true
		}
	}
	return false
}

// EndTurn closes the action phase. With too many cards in hand the turn stops
// in the discard phase first.
func (g *Game) EndTurn(name string) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	if g.currentPlayer() != p {
		return nil, rejectf("it is not your turn")
	}
	if g.phase != PhaseAction {
		return nil, rejectf("you cannot end the turn right now")
	}
	if g.current != nil || len(g.questions) > 0 {
		return nil, rejectf("finish the current card first")
	}
	if n := p.excess(); n > 0 {
		g.phase = PhaseDiscard
		em.info(fmt.Sprintf("Discard %d cards to end your turn", n), name)
		return em.ns, nil
	}
	if err := g.advanceTurn(em); err != nil {
		return nil, err
	}
	return em.ns, nil
}

// DiscardCard discards one hand card during the discard phase. The turn
// passes as soon as the hand fits the limit.
func (g *Game) DiscardCard(name string, cardID int) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	if g.currentPlayer() != p || g.phase != PhaseDiscard {
		return nil, rejectf("you have nothing to discard right now")
	}
	c := p.handCard(cardID)
	if c == nil {
		return nil, rejectf("that card is not in your hand")
	}
	p.removeFromHand(c)
	g.discard(c)
	g.note(em, "%s discards %s", name, c)
	em.hand(p)
	if err := g.afterHandChange(p, em); err != nil {
		return nil, err
	}
	if p.excess() == 0 {
		if err := g.advanceTurn(em); err != nil {
			return nil, err
		}
	}
	return em.ns, nil
}

// advanceTurn moves the turn marker to the next living seat and opens its
// turn.
func (g *Game) advanceTurn(em *emitter) error {
	if g.phase == PhaseGameOver {
		return nil
	}
	if g.aliveCount() == 0 {
		return invariantf("advancing turn with nobody alive")
	}
	for {
		g.turnIdx = (g.turnIdx + 1) % len(g.order)
		if g.currentPlayer().Alive() {
			break
		}
	}
	g.turn++
	em.delay(turnDelay)
	g.note(em, "it is %s's turn", g.currentPlayer().Name)
	g.log.Debug("turn advanced", zap.Int("turn", g.turn), zap.String("player", g.currentPlayer().Name))
	return g.beginTurn(em)
}

// afterHandChange runs the empty-hand hook: Suzy Lafayette immediately draws
// a replacement card whenever her hand runs out.
func (g *Game) afterHandChange(p *Player, em *emitter) error {
	if g.phase == PhaseGameOver || !p.Alive() {
		return nil
	}
	if !p.is(catalog.AbilityEmptyHandDraw) || len(p.Hand) > 0 {
		return nil
	}
	if err := g.drawCards(p, 1); err != nil {
		return err
	}
	g.note(em, "%s draws a card with an empty hand", p.Name)
	em.hand(p)
	return nil
}

// startCheck performs a "draw!" flip for p. Lucky Duke flips two cards and
// picks one, which suspends the resolution on a question; everyone else gets
// the top card immediately, already moved to the discard pile.
func (g *Game) startCheck(p *Player, purpose checkPurpose, attacker string, hits, attempts int, em *emitter) (*catalog.Card, bool, error) {
	if p.is(catalog.AbilityPickDrawCheck) {
		a, err := g.drawTop()
		if err != nil {
			return nil, false, err
		}
		b, err := g.drawTop()
		if err != nil {
			return nil, false, err
		}
		drawn := []*catalog.Card{a, b}
		err = g.raiseQuestion(p, &pendingQuestion{
			Kind:     qLuckyPick,
			Prompt:   fmt.Sprintf("Pick the card for the %s draw", purpose),
			Options:  cardOptions(drawn),
			Drawn:    drawn,
			Purpose:  purpose,
			Attacker: attacker,
			Hits:     hits,
			Attempts: attempts,
		}, em)
		if err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	c, err := g.drawTop()
	if err != nil {
		return nil, false, err
	}
	g.discard(c)
	g.note(em, "%s flips %s", p.Name, c)
	return c, false, nil
}

func cardOptions(cs []*catalog.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
