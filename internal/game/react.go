package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// resolveShot runs a bang-like hit on target: barrel draws first, then the
// dodge-or-take-it choice. A shot with no possible dodge lands immediately
// without a question.
func (g *Game) resolveShot(attacker, target *Player, hits int, allowBarrel bool, em *emitter) error {
	if g.phase == PhaseGameOver || !target.Alive() {
		return nil
	}
	attempts := 0
	if allowBarrel {
		if target.hasInPlay(catalog.CardBarile) {
			attempts++
		}
		if target.is(catalog.AbilityInnateBarrel) {
			attempts++
		}
	}
	return g.tryBarrel(attacker, target, hits, attempts, em)
}

// tryBarrel burns through target's barrel draws. Hearts dodges the shot; a
// Lucky Duke pick suspends here and resumes from the answer handler.
func (g *Game) tryBarrel(attacker, target *Player, hits, attempts int, em *emitter) error {
	for attempts > 0 {
		attempts--
		flip, pending, err := g.startCheck(target, checkBarrel, attacker.Name, hits, attempts, em)
		if err != nil {
			return err
		}
		if pending {
			return nil
		}
		if flip.Suit == catalog.Hearts {
			g.note(em, "%s ducks behind the barrel", target.Name)
			return nil
		}
	}
	return g.askShotReaction(attacker, target, hits, em)
}

// askShotReaction offers the dodge when target can actually pay for it,
// otherwise applies the hit.
func (g *Game) askShotReaction(attacker, target *Player, hits int, em *emitter) error {
	if g.responsesAvailable(target, catalog.CardMancato) < hits {
		return g.damage(target, attacker, 1, em)
	}
	dodge := OptionMancato
	if hits > 1 {
		dodge = OptionTwoMancatos
	}
	em.delay(reactionDelay)
	return g.raiseQuestion(target, &pendingQuestion{
		Kind:     qBangReaction,
		Prompt:   fmt.Sprintf("%s shoots at you. What do you do?", attacker.Name),
		Options:  []string{dodge, OptionLoseLife},
		Attacker: attacker.Name,
		Hits:     hits,
	}, em)
}

// responsesAvailable counts cards p can discard as want, including the
// holder's substitution hook (Calamity Janet).
func (g *Game) responsesAvailable(p *Player, want catalog.CardName) int {
	n := p.countInHand(want)
	if sub := substituteFor(p, want); sub != "" {
		n += p.countInHand(sub)
	}
	return n
}

// discardResponses discards n cards playable as want, literal copies first.
func (g *Game) discardResponses(p *Player, want catalog.CardName, n int, em *emitter) error {
	substitute := want
	if sub := substituteFor(p, want); sub != "" {
		substitute = sub
	}
	for i := 0; i < n; i++ {
		var pick *catalog.Card
		for _, c := range p.Hand {
			if c.Name == want {
				pick = c
				break
			}
		}
		if pick == nil {
			for _, c := range p.Hand {
				if c.Name == substitute {
					pick = c
					break
				}
			}
		}
		if pick == nil {
			return invariantf("%s owes a %s but has none", p.Name, want)
		}
		p.removeFromHand(pick)
		g.discard(pick)
		em.cardPlayed(p.Name, pick)
	}
	em.hand(p)
	return g.afterHandChange(p, em)
}

// answerBangReaction resolves the dodge-or-take-it choice.
func (g *Game) answerBangReaction(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	attacker := g.players[q.Attacker]
	if answer == OptionLoseLife {
		return g.damage(p, attacker, 1, em)
	}
	if err := g.discardResponses(p, catalog.CardMancato, q.Hits, em); err != nil {
		return err
	}
	g.note(em, "%s dodges the shot", p.Name)
	return nil
}

// askIndians offers target the pay-a-bang-or-bleed choice, or applies the hit
// when there is nothing to pay with.
func (g *Game) askIndians(attacker, target *Player, em *emitter) error {
	if g.phase == PhaseGameOver || !target.Alive() {
		return nil
	}
	if g.responsesAvailable(target, catalog.CardBang) == 0 {
		return g.damage(target, attacker, 1, em)
	}
	em.delay(reactionDelay)
	return g.raiseQuestion(target, &pendingQuestion{
		Kind:     qIndiansReact,
		Prompt:   fmt.Sprintf("%s sends the Indians. What do you do?", attacker.Name),
		Options:  []string{OptionBang, OptionLoseLife},
		Attacker: attacker.Name,
	}, em)
}

func (g *Game) answerIndians(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	attacker := g.players[q.Attacker]
	if answer == OptionLoseLife {
		return g.damage(p, attacker, 1, em)
	}
	if err := g.discardResponses(p, catalog.CardBang, 1, em); err != nil {
		return err
	}
	g.note(em, "%s throws a bang to the Indians", p.Name)
	return nil
}

// startDuel opens a duel; the challenged side answers first.
func (g *Game) startDuel(challenger, opponent *Player, em *emitter) error {
	g.duel = &duelState{challenger: challenger.Name, opponent: opponent.Name, next: opponent.Name}
	return g.duelStep(em)
}

// duelStep asks the side on the hook for a bang, or ends the duel with a hit.
func (g *Game) duelStep(em *emitter) error {
	d := g.duel
	if d == nil {
		return invariantf("duel step without a duel")
	}
	p := g.players[d.next]
	other := g.players[d.challenger]
	if d.next == d.challenger {
		other = g.players[d.opponent]
	}
	if g.responsesAvailable(p, catalog.CardBang) == 0 {
		g.duel = nil
		return g.damage(p, other, 1, em)
	}
	em.delay(reactionDelay)
	return g.raiseQuestion(p, &pendingQuestion{
		Kind:     qDuelReaction,
		Prompt:   fmt.Sprintf("Duel against %s. What do you do?", other.Name),
		Options:  []string{OptionBang, OptionLoseLife},
		Attacker: other.Name,
	}, em)
}

func (g *Game) answerDuel(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	other := g.players[q.Attacker]
	if answer == OptionLoseLife {
		g.duel = nil
		return g.damage(p, other, 1, em)
	}
	if err := g.discardResponses(p, catalog.CardBang, 1, em); err != nil {
		return err
	}
	g.note(em, "%s returns fire", p.Name)
	if g.duel == nil {
		return invariantf("duel answer from %s with no duel running", p.Name)
	}
	g.duel.next = other.Name
	return g.duelStep(em)
}

// answerLuckyPick applies the chosen flip to whatever rule was waiting on it.
// Both flipped cards go to the discard pile either way.
func (g *Game) answerLuckyPick(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	i := optionIndex(q.Options, answer)
	if i < 0 || i >= len(q.Drawn) {
		return rejectf("pick one of the flipped cards")
	}
	chosen := q.Drawn[i]
	for _, c := range q.Drawn {
		g.discard(c)
	}
	g.note(em, "%s picks %s for the draw", p.Name, chosen)

	switch q.Purpose {
	case checkBarrel:
		attacker := g.players[q.Attacker]
		if chosen.Suit == catalog.Hearts {
			g.note(em, "%s ducks behind the barrel", p.Name)
			return nil
		}
		if q.Attempts > 0 {
			return g.tryBarrel(attacker, p, q.Hits, q.Attempts, em)
		}
		return g.askShotReaction(attacker, p, q.Hits, em)
	case checkDynamite:
		dead, err := g.applyDynamite(p, chosen, em)
		if err != nil {
			return err
		}
		if g.phase == PhaseGameOver {
			return nil
		}
		if dead {
			return g.advanceTurn(em)
		}
		g.stage = stageJail
		return g.resumeTurnStart(em)
	case checkJail:
		if !g.applyJail(p, chosen, em) {
			g.stage = stageIdle
			return g.advanceTurn(em)
		}
		g.stage = stageDrawing
		return g.resumeTurnStart(em)
	}
	return invariantf("lucky pick with unknown purpose %q", q.Purpose)
}

// damage takes n life from target, applying the beer save at zero and the
// post-damage character hooks.
func (g *Game) damage(target, source *Player, n int, em *emitter) error {
	target.Life -= n
	if source != nil {
		g.note(em, "%s hits %s for %d", source.Name, target.Name, n)
	} else {
		g.note(em, "%s takes %d damage", target.Name, n)
	}
	if target.Life <= 0 {
		needed := 1 - target.Life
		if g.aliveCount() >= 2 && target.countInHand(catalog.CardBirra) >= needed {
			for i := 0; i < needed; i++ {
				for _, c := range target.Hand {
					if c.Name == catalog.CardBirra {
						target.removeFromHand(c)
						g.discard(c)
						break
					}
				}
			}
			target.Life = 1
			g.note(em, "%s stays on their feet with %d beers", target.Name, needed)
			em.hand(target)
			if err := g.afterHandChange(target, em); err != nil {
				return err
			}
		} else {
			return g.eliminate(target, source, em)
		}
	}
	if target.Alive() {
		if hook := target.hooks().postDamage; hook != nil {
			if err := hook(g, target, source, n, em); err != nil {
				return err
			}
		}
	}
	g.board(em)
	return nil
}

// eliminate removes target from play: role reveal, card transfer or discard,
// kill rewards and penalties, then the win check.
func (g *Game) eliminate(p *Player, killer *Player, em *emitter) error {
	g.note(em, "%s is eliminated and was the %s", p.Name, p.Role)
	g.log.Info("player eliminated",
		zap.String("player", p.Name),
		zap.String("role", string(p.Role)))
	if q, ok := g.questions[p.Name]; ok {
		// A dead player answers nothing; cards held by the prompt go to the
		// discard pile so none leak.
		for _, c := range q.Drawn {
			g.discard(c)
		}
		delete(g.questions, p.Name)
	}
	if g.duel != nil && (g.duel.challenger == p.Name || g.duel.opponent == p.Name) {
		g.duel = nil
	}
	if g.draftPicker == p.Name {
		g.advanceDraftPicker()
	}

	looted := false
	for _, name := range g.order {
		o := g.players[name]
		if o == p || !o.Alive() {
			continue
		}
		hook := o.hooks().postElimination
		if hook == nil {
			continue
		}
		took, err := hook(g, o, p, em)
		if err != nil {
			return err
		}
		if took {
			looted = true
			break
		}
	}
	if !looted {
		for _, c := range append(append([]*catalog.Card{}, p.Hand...), p.InPlay...) {
			g.discard(c)
		}
	}
	for _, c := range p.Status {
		g.discard(c)
	}
	p.Hand, p.InPlay, p.Status = nil, nil, nil

	if killer != nil && killer != p && killer.Alive() {
		if p.Role == RoleOutlaw {
			if err := g.drawCards(killer, 3); err != nil {
				return err
			}
			g.note(em, "%s collects the bounty: three cards", killer.Name)
			em.hand(killer)
		}
		if p.Role == RoleDeputy && killer.Role == RoleSheriff {
			for _, c := range append(append([]*catalog.Card{}, killer.Hand...), killer.InPlay...) {
				g.discard(c)
			}
			killer.Hand, killer.InPlay = nil, nil
			g.note(em, "the sheriff shot a deputy and forfeits every card")
			em.hand(killer)
			if err := g.afterHandChange(killer, em); err != nil {
				return err
			}
		}
	}
	g.board(em)
	return g.checkGameOver(em)
}

// checkGameOver evaluates the win conditions and, when one holds, freezes the
// game and announces the outcome.
func (g *Game) checkGameOver(em *emitter) error {
	sheriff := g.players[g.sheriff]
	var outcome string
	var winners []string
	if sheriff != nil && !sheriff.Alive() {
		if g.aliveCount() == 1 {
			for _, p := range g.players {
				if p.Alive() && p.Role == RoleRenegade {
					outcome = "the renegade wins"
					winners = []string{p.Name}
				}
			}
		}
		if outcome == "" {
			outcome = "the outlaws win"
			for _, name := range g.order {
				if g.players[name].Role == RoleOutlaw {
					winners = append(winners, name)
				}
			}
		}
	} else if sheriff != nil {
		hostile := false
		for _, p := range g.players {
			if p.Alive() && (p.Role == RoleOutlaw || p.Role == RoleRenegade) {
				hostile = true
			}
		}
		if !hostile {
			outcome = "the law wins"
			for _, name := range g.order {
				if r := g.players[name].Role; r == RoleSheriff || r == RoleDeputy {
					winners = append(winners, name)
				}
			}
		}
	}
	if outcome == "" {
		return nil
	}

	g.outcome, g.winners = outcome, winners
	g.phase = PhaseGameOver
	g.stage = stageIdle
	g.current = nil
	g.duel = nil
	for name, q := range g.questions {
		for _, c := range q.Drawn {
			g.discard(c)
		}
		delete(g.questions, name)
	}
	for _, c := range g.draft {
		g.discard(c)
	}
	g.draft = nil
	g.draftPicker = ""
	g.note(em, "game over: %s", outcome)
	em.gameOver(outcome, winners)
	g.log.Info("game over", zap.String("outcome", outcome), zap.Strings("winners", winners))
	return nil
}
