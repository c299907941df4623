package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

func TestEndTurnOutOfTurnRejected(t *testing.T) {
	g := newStartedGame(t, 4)
	_, err := g.EndTurn(g.order[1])
	require.Error(t, err)
	_, ok := AsRejection(err)
	assert.True(t, ok)
}

func TestEndTurnEntersDiscardPhaseOnExcess(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	require.Greater(t, len(sheriff.Hand), sheriff.handLimit())

	_, err := g.EndTurn(g.sheriff)
	require.NoError(t, err)
	assert.Equal(t, PhaseDiscard, g.phase)

	// Cards cannot be played while discarding.
	_, err = g.RequestPlay(g.sheriff, sheriff.Hand[0].ID)
	require.Error(t, err)

	for g.phase == PhaseDiscard {
		_, err := g.DiscardCard(g.sheriff, sheriff.Hand[0].ID)
		require.NoError(t, err)
	}
	assert.Equal(t, g.order[1], g.currentPlayer().Name)
	assert.Equal(t, PhaseAction, g.phase)
	requireConserved(t, g)
}

func TestTurnRotationSkipsDead(t *testing.T) {
	g := newStartedGame(t, 5)
	dead := g.players[g.order[1]]
	clearHand(g, dead)
	dead.Life = 0

	endTurnDiscarding(t, g, g.sheriff)
	assert.Equal(t, g.order[2], g.currentPlayer().Name)
}

func TestDynamiteExplodes(t *testing.T) {
	g := newStartedGame(t, 4)
	holder := g.players[g.order[1]]
	holder.Life, holder.LifeLimit = 4, 4
	clearHand(g, holder)
	dyn := giveCard(t, g, holder, catalog.CardDynamite)
	holder.removeFromHand(dyn)
	holder.Status = append(holder.Status, dyn)

	stackTop(t, g, func(c *catalog.Card) bool {
		return c.Suit == catalog.Spades && c.Rank.Between("2", "9")
	})
	endTurnDiscarding(t, g, g.sheriff)

	assert.Equal(t, 1, holder.Life, "three damage from the blast")
	assert.Empty(t, holder.Status)
	assert.Contains(t, g.discardPile, dyn)
	assert.Equal(t, holder.Name, g.currentPlayer().Name, "the survivor still plays the turn")
	assert.Equal(t, PhaseAction, g.phase)
	requireConserved(t, g)
}

func TestDynamitePassesOnSafeDraw(t *testing.T) {
	g := newStartedGame(t, 4)
	holder := g.players[g.order[1]]
	next := g.players[g.order[2]]
	dyn := giveCard(t, g, holder, catalog.CardDynamite)
	holder.removeFromHand(dyn)
	holder.Status = append(holder.Status, dyn)

	stackTop(t, g, bySuit(catalog.Hearts))
	endTurnDiscarding(t, g, g.sheriff)

	assert.Equal(t, holder.LifeLimit, holder.Life)
	assert.Empty(t, holder.Status)
	assert.True(t, next.hasStatus(catalog.CardDynamite), "the stick moves to the next seat")
	requireConserved(t, g)
}

func TestJailReleaseOnHearts(t *testing.T) {
	g := newStartedGame(t, 4)
	holder := g.players[g.order[1]]
	jail := giveCard(t, g, holder, catalog.CardPrigione)
	holder.removeFromHand(jail)
	holder.Status = append(holder.Status, jail)

	stackTop(t, g, bySuit(catalog.Hearts))
	endTurnDiscarding(t, g, g.sheriff)

	assert.Equal(t, holder.Name, g.currentPlayer().Name, "hearts breaks out of jail")
	assert.Equal(t, PhaseAction, g.phase)
	assert.Contains(t, g.discardPile, jail)
}

func TestJailSkipsTurnOtherwise(t *testing.T) {
	g := newStartedGame(t, 4)
	holder := g.players[g.order[1]]
	jail := giveCard(t, g, holder, catalog.CardPrigione)
	holder.removeFromHand(jail)
	holder.Status = append(holder.Status, jail)

	stackTop(t, g, bySuit(catalog.Clubs))
	endTurnDiscarding(t, g, g.sheriff)

	assert.Equal(t, g.order[2], g.currentPlayer().Name, "jailed seat sits the turn out")
	assert.Contains(t, g.discardPile, jail, "jail is spent either way")
	requireConserved(t, g)
}

func TestTurnChangeCarriesPacingDelay(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)

	ns, err := g.EndTurn(g.sheriff)
	require.NoError(t, err)
	found := false
	for _, n := range ns {
		if n.Type == NoteDelay {
			found = true
			assert.Equal(t, turnDelay, n.Payload.(DelayPayload).Duration)
		}
	}
	assert.True(t, found, "the feed pauses before the next turn opens")
}

func TestEndTurnBlockedWhileQuestionOpen(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	giveCard(t, g, sheriff, catalog.CardBang)

	_, err := g.RequestPlay(g.sheriff, sheriff.Hand[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, g.questions, "two neighbors in range means a target question")

	_, err = g.EndTurn(g.sheriff)
	require.Error(t, err, "cannot end the turn with a card in flight")
}
