package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// maxInPlay caps the face-up cards in front of a player, the weapon included.
const maxInPlay = 2

// RequestPlay starts resolving a card from the current player's hand. The
// call either resolves the card completely, suspends it on a question, or
// rejects it without touching state.
func (g *Game) RequestPlay(name string, cardID int) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	if g.phase != PhaseAction || g.currentPlayer() != p {
		return nil, rejectf("you cannot play a card right now")
	}
	if g.current != nil || len(g.questions) > 0 {
		return nil, rejectf("finish the current card first")
	}
	card := p.handCard(cardID)
	if card == nil {
		return nil, rejectf("that card is not in your hand")
	}

	playedAs := card.Name
	if card.Name == catalog.CardMancato {
		if substituteFor(p, catalog.CardBang) != catalog.CardMancato {
			return nil, rejectf("a mancato does nothing on its own")
		}
		playedAs = catalog.CardBang
	}
	if playedAs == catalog.CardBang && g.bangsPlayed >= 1 &&
		!p.is(catalog.AbilityNoBangLimit) && !p.hasInPlay(catalog.CardVolcanic) {
		return nil, rejectf("only one bang per turn")
	}

	switch {
	case requiresTarget(card, playedAs):
		if err := g.beginTargeted(p, card, playedAs, em); err != nil {
			return nil, err
		}
	case playedAs == catalog.CardBirra:
		if g.aliveCount() <= 2 {
			return nil, rejectf("beer has no effect with two players left")
		}
		if p.Life >= p.LifeLimit {
			return nil, rejectf("you are already at full life")
		}
		if err := g.commitPlay(p, card, playedAs, nil, em); err != nil {
			return nil, err
		}
	case playedAs == catalog.CardSaloon:
		if !g.anyoneHurt() {
			return nil, rejectf("no one would gain a life from the saloon")
		}
		if err := g.commitPlay(p, card, playedAs, nil, em); err != nil {
			return nil, err
		}
	case card.Category == catalog.CategoryEquippable:
		if p.hasInPlay(card.Name) {
			return nil, rejectf("you already have a %s in play", card.Name)
		}
		if len(p.InPlay) >= maxInPlay {
			if err := g.askReplaceInPlay(p, card, playedAs, em); err != nil {
				return nil, err
			}
			break
		}
		if err := g.commitPlay(p, card, playedAs, nil, em); err != nil {
			return nil, err
		}
	case card.Category == catalog.CategoryWeapon:
		// A gun swap keeps the count; only a weapon joining a full table of
		// other cards needs room made for it.
		if p.gun() == nil && len(p.InPlay) >= maxInPlay {
			if err := g.askReplaceInPlay(p, card, playedAs, em); err != nil {
				return nil, err
			}
			break
		}
		if err := g.commitPlay(p, card, playedAs, nil, em); err != nil {
			return nil, err
		}
	default:
		if err := g.commitPlay(p, card, playedAs, nil, em); err != nil {
			return nil, err
		}
	}
	g.clearInFlightIfIdle()
	return em.ns, nil
}

// requiresTarget reports whether the play needs a target pick. A substituted
// card targets as what it is played as, not as what it is.
func requiresTarget(card *catalog.Card, playedAs catalog.CardName) bool {
	if playedAs != card.Name {
		return playedAs == catalog.CardBang
	}
	return card.RequiresTarget
}

func (g *Game) anyoneHurt() bool {
	for _, p := range g.alivePlayers() {
		if p.Life < p.LifeLimit {
			return true
		}
	}
	return false
}

// askReplaceInPlay parks the card in flight and asks which face-up card makes
// room for it.
func (g *Game) askReplaceInPlay(p *Player, card *catalog.Card, playedAs catalog.CardName, em *emitter) error {
	g.current = &inFlight{card: card, player: p.Name}
	ids := make([]int, len(p.InPlay))
	for i, c := range p.InPlay {
		ids[i] = c.ID
	}
	return g.raiseQuestion(p, &pendingQuestion{
		Kind:     qReplaceInPlay,
		Prompt:   fmt.Sprintf("Replace which card with the %s?", card.Name),
		Options:  cardOptions(p.InPlay),
		CardName: playedAs,
		CardIDs:  ids,
	}, em)
}

// answerReplaceInPlay discards the chosen face-up card and commits the play
// that was waiting for the room.
func (g *Game) answerReplaceInPlay(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	if g.current == nil || g.current.player != p.Name {
		return invariantf("replace answer from %s with no card in flight", p.Name)
	}
	i := optionIndex(q.Options, answer)
	if i < 0 || i >= len(q.CardIDs) {
		return rejectf("that card is not in play anymore")
	}
	old := g.allCards[q.CardIDs[i]]
	p.removeFromPlay(old)
	g.discard(old)
	g.note(em, "%s trades in the %s", p.Name, old.Name)
	return g.commitPlay(p, g.current.card, q.CardName, nil, em)
}

// legalTargets lists the players card may legally hit from p's seat.
func (g *Game) legalTargets(p *Player, playedAs catalog.CardName) []*Player {
	var out []*Player
	for _, o := range g.alivePlayers() {
		if o == p {
			continue
		}
		switch playedAs {
		case catalog.CardBang:
			if g.distance(p, o) <= p.gunRange() {
				out = append(out, o)
			}
		case catalog.CardPanico:
			if g.distance(p, o) <= 1 && (len(o.Hand) > 0 || len(o.InPlay) > 0 || len(o.Status) > 0) {
				out = append(out, o)
			}
		case catalog.CardCatBalou:
			if len(o.Hand) > 0 || len(o.InPlay) > 0 || len(o.Status) > 0 {
				out = append(out, o)
			}
		case catalog.CardDuello:
			out = append(out, o)
		case catalog.CardPrigione:
			if o.Role != RoleSheriff && !o.hasStatus(catalog.CardPrigione) {
				out = append(out, o)
			}
		}
	}
	return out
}

// beginTargeted resolves a targeted card: with one legal target it commits
// immediately, with several it parks the card in flight and asks.
func (g *Game) beginTargeted(p *Player, card *catalog.Card, playedAs catalog.CardName, em *emitter) error {
	targets := g.legalTargets(p, playedAs)
	if len(targets) == 0 {
		switch playedAs {
		case catalog.CardBang:
			return rejectf("no one is in range")
		case catalog.CardPrigione:
			return rejectf("no one can be jailed")
		default:
			return rejectf("no valid target for %s", playedAs)
		}
	}
	if len(targets) == 1 {
		return g.commitPlay(p, card, playedAs, targets[0], em)
	}
	g.current = &inFlight{card: card, player: p.Name}
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	prompt := "Who do you target?"
	switch playedAs {
	case catalog.CardBang:
		prompt = "Who do you shoot?"
	case catalog.CardDuello:
		prompt = "Who do you challenge?"
	case catalog.CardPrigione:
		prompt = "Who goes to jail?"
	}
	return g.raiseQuestion(p, &pendingQuestion{
		Kind:     qTargetPlayer,
		Prompt:   prompt,
		Options:  names,
		CardName: playedAs,
	}, em)
}

// commitPlay moves the card out of the hand and applies its effect. From here
// on the play can no longer be cancelled.
func (g *Game) commitPlay(p *Player, card *catalog.Card, playedAs catalog.CardName, target *Player, em *emitter) error {
	p.removeFromHand(card)
	targetName := ""
	if target != nil {
		targetName = target.Name
	}
	g.current = &inFlight{card: card, player: p.Name, target: targetName, committed: true}
	em.cardPlayed(p.Name, card)
	if target != nil {
		g.note(em, "%s plays %s against %s", p.Name, card, target.Name)
	} else {
		g.note(em, "%s plays %s", p.Name, card)
	}
	g.log.Debug("card played",
		zap.String("player", p.Name),
		zap.String("card", string(card.Name)),
		zap.String("as", string(playedAs)),
		zap.String("target", targetName))

	var err error
	switch card.Category {
	case catalog.CategoryWeapon:
		if old := p.gun(); old != nil {
			p.removeFromPlay(old)
			g.discard(old)
			g.note(em, "%s trades in the %s", p.Name, old.Name)
		}
		p.InPlay = append(p.InPlay, card)
	case catalog.CategoryEquippable:
		p.InPlay = append(p.InPlay, card)
	case catalog.CategoryStatus:
		if card.Name == catalog.CardPrigione {
			target.Status = append(target.Status, card)
		} else {
			p.Status = append(p.Status, card)
		}
	default:
		g.discard(card)
		err = g.applyRegular(p, playedAs, target, em)
	}
	if err != nil {
		return err
	}
	em.hand(p)
	if err := g.afterHandChange(p, em); err != nil {
		return err
	}
	g.board(em)
	return nil
}

// applyRegular runs the effect of a one-shot card after it hit the discard
// pile.
func (g *Game) applyRegular(p *Player, playedAs catalog.CardName, target *Player, em *emitter) error {
	switch playedAs {
	case catalog.CardBang:
		g.bangsPlayed++
		return g.resolveShot(p, target, g.requiredMisses(p), true, em)
	case catalog.CardGatling:
		for _, t := range g.alivePlayers() {
			if t == p {
				continue
			}
			if err := g.resolveShot(p, t, 1, true, em); err != nil {
				return err
			}
		}
		return nil
	case catalog.CardIndians:
		for _, t := range g.alivePlayers() {
			if t == p {
				continue
			}
			if err := g.askIndians(p, t, em); err != nil {
				return err
			}
		}
		return nil
	case catalog.CardDuello:
		return g.startDuel(p, target, em)
	case catalog.CardPanico, catalog.CardCatBalou:
		return g.beginSteal(p, playedAs, target, em)
	case catalog.CardBirra:
		p.Life++
		g.note(em, "%s drinks a beer", p.Name)
		return nil
	case catalog.CardSaloon:
		for _, t := range g.alivePlayers() {
			if t.Life < t.LifeLimit {
				t.Life++
			}
		}
		g.note(em, "%s opens the saloon, everyone heals", p.Name)
		return nil
	case catalog.CardDiligenza:
		if err := g.drawCards(p, 2); err != nil {
			return err
		}
		g.note(em, "%s draws two cards from the stagecoach", p.Name)
		return nil
	case catalog.CardWellsFargo:
		if err := g.drawCards(p, 3); err != nil {
			return err
		}
		g.note(em, "%s draws three cards from Wells Fargo", p.Name)
		return nil
	case catalog.CardEmporio:
		return g.startDraft(p, em)
	}
	return invariantf("no handler for %s", playedAs)
}

// requiredMisses is how many mancatos a bang from p takes to dodge.
func (g *Game) requiredMisses(p *Player) int {
	if p.is(catalog.AbilityDoubleMiss) {
		return 2
	}
	return 1
}

// beginSteal runs panico and cat balou against target: pick the source area
// if both hold cards, then the exact table card if needed.
func (g *Game) beginSteal(p *Player, playedAs catalog.CardName, target *Player, em *emitter) error {
	table := append(append([]*catalog.Card{}, target.InPlay...), target.Status...)
	switch {
	case len(target.Hand) > 0 && len(table) > 0:
		return g.raiseQuestion(p, &pendingQuestion{
			Kind:     qStealSource,
			Prompt:   "From their hand or from the table?",
			Options:  []string{OptionFromHand, OptionFromTable},
			Attacker: target.Name,
			CardName: playedAs,
		}, em)
	case len(table) > 0:
		return g.askTableCard(p, playedAs, target, em)
	case len(target.Hand) > 0:
		return g.stealFromHand(p, playedAs, target, em)
	}
	return invariantf("steal against %s with no cards", target.Name)
}

// stealFromHand takes a random hand card: into p's hand for panico, onto the
// discard pile for cat balou.
func (g *Game) stealFromHand(p *Player, playedAs catalog.CardName, target *Player, em *emitter) error {
	c := target.Hand[g.rng.Intn(len(target.Hand))]
	target.removeFromHand(c)
	if playedAs == catalog.CardPanico {
		p.Hand = append(p.Hand, c)
		g.note(em, "%s steals a card from %s's hand", p.Name, target.Name)
		em.hand(p)
	} else {
		g.discard(c)
		g.note(em, "%s makes %s discard %s", p.Name, target.Name, c)
	}
	em.hand(target)
	return g.afterHandChange(target, em)
}

// askTableCard asks which of target's face-up cards to take or discard. A
// lone card is taken without a question.
func (g *Game) askTableCard(p *Player, playedAs catalog.CardName, target *Player, em *emitter) error {
	table := append(append([]*catalog.Card{}, target.InPlay...), target.Status...)
	if len(table) == 1 {
		return g.takeTableCard(p, playedAs, target, table[0], em)
	}
	ids := make([]int, len(table))
	for i, c := range table {
		ids[i] = c.ID
	}
	return g.raiseQuestion(p, &pendingQuestion{
		Kind:     qStealTableCard,
		Prompt:   "Which card?",
		Options:  cardOptions(table),
		Attacker: target.Name,
		CardName: playedAs,
		CardIDs:  ids,
	}, em)
}

// takeTableCard resolves the table pick for panico and cat balou.
func (g *Game) takeTableCard(p *Player, playedAs catalog.CardName, target *Player, c *catalog.Card, em *emitter) error {
	target.removeFromPlay(c)
	target.removeFromStatus(c)
	if playedAs == catalog.CardPanico {
		p.Hand = append(p.Hand, c)
		g.note(em, "%s takes %s from %s", p.Name, c, target.Name)
		em.hand(p)
	} else {
		g.discard(c)
		g.note(em, "%s discards %s's %s", p.Name, target.Name, c)
	}
	g.board(em)
	return nil
}

// answerTargetPlayer commits the in-flight card against the chosen target.
func (g *Game) answerTargetPlayer(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	if g.current == nil || g.current.player != p.Name {
		return invariantf("target answer from %s with no card in flight", p.Name)
	}
	target, ok := g.players[answer]
	if !ok || !target.Alive() {
		return rejectf("%s cannot be targeted anymore", answer)
	}
	return g.commitPlay(p, g.current.card, q.CardName, target, em)
}

// answerStealSource routes the hand-or-table choice for panico and cat balou.
func (g *Game) answerStealSource(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	target, ok := g.players[q.Attacker]
	if !ok {
		return invariantf("steal target %s disappeared", q.Attacker)
	}
	if answer == OptionFromHand {
		if len(target.Hand) == 0 {
			return rejectf("%s has no hand cards left", target.Name)
		}
		return g.stealFromHand(p, q.CardName, target, em)
	}
	return g.askTableCard(p, q.CardName, target, em)
}

// answerStealTableCard resolves the exact card choice.
func (g *Game) answerStealTableCard(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	target, ok := g.players[q.Attacker]
	if !ok {
		return invariantf("steal target %s disappeared", q.Attacker)
	}
	i := optionIndex(q.Options, answer)
	if i < 0 || i >= len(q.CardIDs) {
		return rejectf("that card is no longer there")
	}
	c := g.allCards[q.CardIDs[i]]
	return g.takeTableCard(p, q.CardName, target, c, em)
}

// startDraft flips one card per living player for the general store. Picks go
// clockwise from the player; choices that cannot matter are made silently.
func (g *Game) startDraft(p *Player, em *emitter) error {
	n := g.aliveCount()
	for i := 0; i < n; i++ {
		c, err := g.drawTop()
		if err != nil {
			return err
		}
		g.draft = append(g.draft, c)
	}
	g.note(em, "%s opens the general store: %s", p.Name, cardList(g.draft))
	g.draftPicker = p.Name
	return g.continueDraft(em)
}

func cardList(cs []*catalog.Card) string {
	s := ""
	for i, c := range cs {
		if i > 0 {
			s += ", "
		}
		s += c.String()
	}
	return s
}

// continueDraft hands out draft cards until a real choice comes up, then asks
// the current picker.
func (g *Game) continueDraft(em *emitter) error {
	for len(g.draft) > 0 {
		picker := g.players[g.draftPicker]
		if picker == nil || !picker.Alive() {
			g.advanceDraftPicker()
			continue
		}
		if len(g.draft) == 1 || allSameName(g.draft) {
			c := g.draft[0]
			g.draft = g.draft[1:]
			picker.Hand = append(picker.Hand, c)
			g.note(em, "%s takes %s from the store", picker.Name, c)
			em.hand(picker)
			g.advanceDraftPicker()
			continue
		}
		return g.raiseQuestion(picker, &pendingQuestion{
			Kind:    qDraftPick,
			Prompt:  "Which card do you take?",
			Options: cardOptions(g.draft),
		}, em)
	}
	g.draftPicker = ""
	return nil
}

func allSameName(cs []*catalog.Card) bool {
	for _, c := range cs[1:] {
		if c.Name != cs[0].Name {
			return false
		}
	}
	return true
}

// advanceDraftPicker moves the pick to the next living seat after the
// current picker.
func (g *Game) advanceDraftPicker() {
	idx := 0
	for i, name := range g.order {
		if name == g.draftPicker {
			idx = i
			break
		}
	}
	for i := 1; i <= len(g.order); i++ {
		next := g.players[g.order[(idx+i)%len(g.order)]]
		if next.Alive() {
			g.draftPicker = next.Name
			return
		}
	}
}

// answerDraftPick resolves a general store pick and moves the draft along.
func (g *Game) answerDraftPick(p *Player, q *pendingQuestion, answer string, em *emitter) error {
	if p.Name != g.draftPicker {
		return invariantf("draft answer from %s out of turn", p.Name)
	}
	i := optionIndex(q.Options, answer)
	if i < 0 || i >= len(g.draft) {
		return rejectf("that card is already gone")
	}
	c := g.draft[i]
	g.draft = append(g.draft[:i], g.draft[i+1:]...)
	p.Hand = append(p.Hand, c)
	g.note(em, "%s takes %s from the store", p.Name, c)
	em.hand(p)
	g.advanceDraftPicker()
	return g.continueDraft(em)
}

// CancelInFlight lets the player take back a card whose side effects have not
// started, closing the open choice that came with it.
func (g *Game) CancelInFlight(name string) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	if g.current == nil || g.current.player != name {
		return nil, rejectf("you have no card to take back")
	}
	if g.current.committed {
		return nil, rejectf("%s is already resolving", g.current.card.Name)
	}
	g.dropQuestion(name)
	g.current = nil
	em.info("You take the card back", name)
	em.hand(p)
	return em.ns, nil
}
