package game

import (
	"github.com/google/uuid"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// questionKind routes a pending question's answer to its handler.
type questionKind string

const (
	qTargetPlayer   questionKind = "target_player"
	qStealSource    questionKind = "steal_source"
	qStealTableCard questionKind = "steal_table_card"
	qBangReaction   questionKind = "bang_reaction"
	qIndiansReact   questionKind = "indians_reaction"
	qDuelReaction   questionKind = "duel_reaction"
	qLuckyPick      questionKind = "lucky_pick"
	qDraftPick      questionKind = "draft_pick"
	qKitReturn      questionKind = "kit_return"
	qJesseSource    questionKind = "jesse_source"
	qJesseVictim    questionKind = "jesse_victim"
	qPedroSource    questionKind = "pedro_source"
	qTradeFirst     questionKind = "trade_first"
	qTradeSecond    questionKind = "trade_second"
	qReplaceInPlay  questionKind = "replace_in_play"
)

// Answer options reused across prompts. Option strings double as the wire
// protocol, so they never change once shipped.
const (
	OptionLoseLife    = "Lose a life"
	OptionMancato     = "Play a Mancato"
	OptionTwoMancatos = "Play two Mancatos"
	OptionBang        = "Play a Bang"
	OptionFromDeck    = "From the deck"
	OptionFromDiscard = "From the discard pile"
	OptionFromPlayer  = "From another player"
	OptionFromHand    = "From their hand"
	OptionFromTable   = "From the table"
)

// checkPurpose says which rule a "draw!" flip is deciding, so a deferred
// Lucky Duke pick can resume the right resolution.
type checkPurpose string

const (
	checkBarrel   checkPurpose = "barrel"
	checkDynamite checkPurpose = "dynamite"
	checkJail     checkPurpose = "jail"
)

// pendingQuestion is an open prompt addressed to exactly one player. A player
// can hold at most one at a time; raising a second is an engine bug.
type pendingQuestion struct {
	ID      uuid.UUID
	Kind    questionKind
	Prompt  string
	Options []string

	// Context for the handler. Which fields are meaningful depends on Kind.
	Attacker string          // bang/indians/duel: who the reaction answers to
	CardName catalog.CardName
	Purpose  checkPurpose    // lucky_pick: the rule being decided
	Drawn    []*catalog.Card // lucky_pick: the two flipped cards; kit_return: the three drawn
	Attempts int             // lucky_pick barrel: barrel draws still owed after this one
	Hits     int             // bang_reaction: misses required (2 against Slab the Killer)
	PickedID int             // trade_second: card chosen at the first step
	CardIDs  []int           // steal_table_card / trade picks: option index -> card id
}

// raiseQuestion registers and emits a prompt for p. The one-question-per-player
// rule is enforced here; a violation aborts the operation and rolls back.
func (g *Game) raiseQuestion(p *Player, q *pendingQuestion, em *emitter) error {
	if _, ok := g.questions[p.Name]; ok {
		return invariantf("second question raised for %s (kind %s)", p.Name, q.Kind)
	}
	if len(q.Options) == 0 {
		return invariantf("question for %s has no options (kind %s)", p.Name, q.Kind)
	}
	q.ID = uuid.New()
	g.questions[p.Name] = q
	em.question(p, q)
	return nil
}

func (g *Game) dropQuestion(name string) {
	delete(g.questions, name)
}

func contains(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}

// optionIndex maps an option string back to its position, for prompts whose
// options are rendered cards.
func optionIndex(options []string, answer string) int {
	for i, o := range options {
		if o == answer {
			return i
		}
	}
	return -1
}

// AnswerQuestion validates an answer against the player's open prompt and
// routes it to the handler for the question's kind.
func (g *Game) AnswerQuestion(name, questionID, answer string) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	q, ok := g.questions[name]
	if !ok {
		return nil, rejectf("no question is waiting on you")
	}
	if q.ID.String() != questionID {
		return nil, rejectf("that question is no longer open")
	}
	if !contains(q.Options, answer) {
		return nil, rejectf("pick one of the offered answers")
	}
	g.dropQuestion(name)

	switch q.Kind {
	case qTargetPlayer:
		err = g.answerTargetPlayer(p, q, answer, em)
	case qStealSource:
		err = g.answerStealSource(p, q, answer, em)
	case qStealTableCard:
		err = g.answerStealTableCard(p, q, answer, em)
	case qBangReaction:
		err = g.answerBangReaction(p, q, answer, em)
	case qIndiansReact:
		err = g.answerIndians(p, q, answer, em)
	case qDuelReaction:
		err = g.answerDuel(p, q, answer, em)
	case qLuckyPick:
		err = g.answerLuckyPick(p, q, answer, em)
	case qDraftPick:
		err = g.answerDraftPick(p, q, answer, em)
	case qKitReturn:
		err = g.answerKitReturn(p, q, answer, em)
	case qJesseSource:
		err = g.answerJesseSource(p, q, answer, em)
	case qJesseVictim:
		err = g.answerJesseVictim(p, q, answer, em)
	case qPedroSource:
		err = g.answerPedroSource(p, q, answer, em)
	case qTradeFirst:
		err = g.answerTradeFirst(p, q, answer, em)
	case qTradeSecond:
		err = g.answerTradeSecond(p, q, answer, em)
	case qReplaceInPlay:
		err = g.answerReplaceInPlay(p, q, answer, em)
	default:
		err = invariantf("no handler for question kind %q", q.Kind)
	}
	if err != nil {
		if _, rej := AsRejection(err); rej {
			// The question was consumed before the handler balked; put it
			// back so the player can answer again.
			g.questions[name] = q
		}
		return nil, err
	}
	g.clearInFlightIfIdle()
	return em.ns, nil
}
