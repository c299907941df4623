package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

func TestBangAsksForTargetThenHits(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	target := g.players[g.order[1]]
	clearHand(g, sheriff)
	clearHand(g, target)
	clearTable(g, target)
	bang := giveCard(t, g, sheriff, catalog.CardBang)

	_, err := g.RequestPlay(g.sheriff, bang.ID)
	require.NoError(t, err)
	q := g.questions[g.sheriff]
	require.NotNil(t, q)
	assert.Equal(t, qTargetPlayer, q.Kind)
	assert.ElementsMatch(t, []string{g.order[1], g.order[3]}, q.Options, "both neighbors are in range")
	assert.NotNil(t, g.current)
	assert.False(t, g.current.committed)
	assert.Contains(t, sheriff.Hand, bang, "the card stays in hand until a target is chosen")

	answer(t, g, g.sheriff, target.Name)
	assert.Equal(t, target.LifeLimit-1, target.Life, "no dodge available, the hit lands without a question")
	assert.Empty(t, g.questions)
	assert.Nil(t, g.current)
	assert.Contains(t, g.discardPile, bang)
	requireConserved(t, g)
}

func TestBangOutOfRangeRejected(t *testing.T) {
	g := newStartedGame(t, 5)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	bang := giveCard(t, g, sheriff, catalog.CardBang)

	// Mustangs push both neighbors to distance two; the far seats already sit
	// there, so nothing is reachable with the default colt.
	equip(t, g, g.players[g.order[1]], catalog.CardMustang)
	equip(t, g, g.players[g.order[4]], catalog.CardMustang)
	_, err := g.RequestPlay(g.sheriff, bang.ID)
	require.Error(t, err)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "range")
	assert.Contains(t, sheriff.Hand, bang, "a rejected play leaves the hand alone")
}

func TestSingleBangPerTurn(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	target := g.players[g.order[1]]
	clearHand(g, sheriff)
	clearHand(g, target)
	clearTable(g, target)
	first := giveCard(t, g, sheriff, catalog.CardBang)
	second := giveCard(t, g, sheriff, catalog.CardBang)

	_, err := g.RequestPlay(g.sheriff, first.ID)
	require.NoError(t, err)
	answer(t, g, g.sheriff, target.Name)

	_, err = g.RequestPlay(g.sheriff, second.ID)
	require.Error(t, err, "second bang of the turn must be rejected")

	// A volcanic lifts the limit.
	equip(t, g, sheriff, catalog.CardVolcanic)
	_, err = g.RequestPlay(g.sheriff, second.ID)
	require.NoError(t, err)
	answer(t, g, g.sheriff, target.Name)
	assert.Equal(t, target.LifeLimit-2, target.Life)
}

func TestWillyTheKidIgnoresBangLimit(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	setCharacter(t, sheriff, "Willy the Kid")
	target := g.players[g.order[1]]
	clearHand(g, sheriff)
	clearHand(g, target)
	clearTable(g, target)

	for i := 0; i < 2; i++ {
		bang := giveCard(t, g, sheriff, catalog.CardBang)
		_, err := g.RequestPlay(g.sheriff, bang.ID)
		require.NoError(t, err)
		answer(t, g, g.sheriff, target.Name)
	}
	assert.Equal(t, target.LifeLimit-2, target.Life)
}

func TestLoneMancatoUnplayable(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	m := giveCard(t, g, sheriff, catalog.CardMancato)
	_, err := g.RequestPlay(g.sheriff, m.ID)
	require.Error(t, err)
}

func TestCalamityJanetPlaysMancatoAsBang(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	setCharacter(t, sheriff, "Calamity Janet")
	target := g.players[g.order[1]]
	clearHand(g, sheriff)
	clearHand(g, target)
	clearTable(g, target)
	m := giveCard(t, g, sheriff, catalog.CardMancato)

	_, err := g.RequestPlay(g.sheriff, m.ID)
	require.NoError(t, err)
	answer(t, g, g.sheriff, target.Name)
	assert.Equal(t, target.LifeLimit-1, target.Life)
	assert.Equal(t, 1, g.bangsPlayed, "the substituted shot still counts against the limit")
}

func TestCancelInFlightBeforeCommit(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	bang := giveCard(t, g, sheriff, catalog.CardBang)

	_, err := g.RequestPlay(g.sheriff, bang.ID)
	require.NoError(t, err)
	require.NotNil(t, g.current)

	_, err = g.CancelInFlight(g.sheriff)
	require.NoError(t, err)
	assert.Nil(t, g.current)
	assert.Empty(t, g.questions)
	assert.Contains(t, sheriff.Hand, bang)
	assert.Zero(t, g.bangsPlayed, "a cancelled bang does not count")

	_, err = g.CancelInFlight(g.sheriff)
	require.Error(t, err, "nothing left to take back")
}

func TestBeerHealsAndLimits(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	beer := giveCard(t, g, sheriff, catalog.CardBirra)

	_, err := g.RequestPlay(g.sheriff, beer.ID)
	require.Error(t, err, "beer at full life is refused")

	sheriff.Life -= 2
	_, err = g.RequestPlay(g.sheriff, beer.ID)
	require.NoError(t, err)
	assert.Equal(t, sheriff.LifeLimit-1, sheriff.Life)
	assert.Contains(t, g.discardPile, beer)
}

func TestBeerUselessHeadToHead(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	for _, name := range []string{g.order[1], g.order[2]} {
		p := g.players[name]
		clearHand(g, p)
		p.Life = 0
	}
	sheriff.Life = 1
	clearHand(g, sheriff)
	beer := giveCard(t, g, sheriff, catalog.CardBirra)
	_, err := g.RequestPlay(g.sheriff, beer.ID)
	require.Error(t, err, "beer does nothing one against one")
}

func TestSaloonHealsEveryone(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	for _, p := range g.players {
		if p.Life > 1 {
			p.Life--
		}
	}
	before := map[string]int{}
	for name, p := range g.players {
		before[name] = p.Life
	}
	saloon := giveCard(t, g, sheriff, catalog.CardSaloon)
	_, err := g.RequestPlay(g.sheriff, saloon.ID)
	require.NoError(t, err)
	for name, p := range g.players {
		assert.Equal(t, before[name]+1, p.Life, "%s heals one", name)
	}
}

func TestSaloonRefusedAtFullLife(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	saloon := giveCard(t, g, sheriff, catalog.CardSaloon)
	_, err := g.RequestPlay(g.sheriff, saloon.ID)
	require.Error(t, err, "saloon heals nobody when everyone is at full life")
	_, ok := AsRejection(err)
	assert.True(t, ok)
	assert.Contains(t, sheriff.Hand, saloon)
}

func TestStagecoachAndWellsFargoDraw(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	coach := giveCard(t, g, sheriff, catalog.CardDiligenza)
	_, err := g.RequestPlay(g.sheriff, coach.ID)
	require.NoError(t, err)
	assert.Len(t, sheriff.Hand, 2)

	clearHand(g, sheriff)
	fargo := giveCard(t, g, sheriff, catalog.CardWellsFargo)
	_, err = g.RequestPlay(g.sheriff, fargo.ID)
	require.NoError(t, err)
	assert.Len(t, sheriff.Hand, 3)
	requireConserved(t, g)
}

func TestDuplicateEquipmentRejected(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	equip(t, g, sheriff, catalog.CardBarile)
	b := giveCard(t, g, sheriff, catalog.CardBarile)
	_, err := g.RequestPlay(g.sheriff, b.ID)
	require.Error(t, err)
}

func TestWeaponReplacesOldGun(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	old := equip(t, g, sheriff, catalog.CardSchofield)
	win := giveCard(t, g, sheriff, catalog.CardWinchester)

	_, err := g.RequestPlay(g.sheriff, win.ID)
	require.NoError(t, err)
	assert.Contains(t, g.discardPile, old)
	assert.Equal(t, 5, sheriff.gunRange())
	requireConserved(t, g)
}

func TestTablePlaysNeverExceedTwoCards(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	barrel := giveCard(t, g, sheriff, catalog.CardBarile)
	scope := giveCard(t, g, sheriff, catalog.CardScope)
	mustang := giveCard(t, g, sheriff, catalog.CardMustang)

	_, err := g.RequestPlay(g.sheriff, barrel.ID)
	require.NoError(t, err)
	_, err = g.RequestPlay(g.sheriff, scope.ID)
	require.NoError(t, err)
	require.Len(t, sheriff.InPlay, 2)

	// The third piece of equipment does not fit; the player trades one in.
	_, err = g.RequestPlay(g.sheriff, mustang.ID)
	require.NoError(t, err)
	q := g.questions[g.sheriff]
	require.NotNil(t, q)
	assert.Equal(t, qReplaceInPlay, q.Kind)
	assert.Contains(t, sheriff.Hand, mustang, "the card stays in hand until the trade is settled")

	answer(t, g, g.sheriff, barrel.String())
	assert.Len(t, sheriff.InPlay, 2)
	assert.Contains(t, sheriff.InPlay, mustang)
	assert.Contains(t, g.discardPile, barrel)
	assert.Nil(t, g.current)

	// A weapon joining a full table needs room made for it too.
	volcanic := giveCard(t, g, sheriff, catalog.CardVolcanic)
	_, err = g.RequestPlay(g.sheriff, volcanic.ID)
	require.NoError(t, err)
	q = g.questions[g.sheriff]
	require.NotNil(t, q)
	require.Equal(t, qReplaceInPlay, q.Kind)
	answer(t, g, g.sheriff, scope.String())
	assert.Len(t, sheriff.InPlay, 2)
	assert.Contains(t, g.discardPile, scope)

	// Swapping guns keeps the count, so no trade is asked for.
	schofield := giveCard(t, g, sheriff, catalog.CardSchofield)
	_, err = g.RequestPlay(g.sheriff, schofield.ID)
	require.NoError(t, err)
	assert.Empty(t, g.questions)
	assert.Len(t, sheriff.InPlay, 2)
	assert.Contains(t, g.discardPile, volcanic)
	requireConserved(t, g)
}

func TestReplacementTradeCanBeCancelled(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	equip(t, g, sheriff, catalog.CardBarile)
	equip(t, g, sheriff, catalog.CardScope)
	mustang := giveCard(t, g, sheriff, catalog.CardMustang)

	_, err := g.RequestPlay(g.sheriff, mustang.ID)
	require.NoError(t, err)
	require.NotNil(t, g.questions[g.sheriff])

	_, err = g.CancelInFlight(g.sheriff)
	require.NoError(t, err)
	assert.Contains(t, sheriff.Hand, mustang)
	assert.Len(t, sheriff.InPlay, 2)
	assert.Empty(t, g.questions)
	requireConserved(t, g)
}

func TestPanicoStealsFromHand(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	victim := g.players[g.order[1]]
	other := g.players[g.order[3]]
	clearHand(g, sheriff)
	clearHand(g, other)
	clearTable(g, other)
	clearTable(g, victim)
	clearHand(g, victim)
	loot := giveCard(t, g, victim, catalog.CardBirra)
	pan := giveCard(t, g, sheriff, catalog.CardPanico)

	_, err := g.RequestPlay(g.sheriff, pan.ID)
	require.NoError(t, err)
	assert.Contains(t, sheriff.Hand, loot, "single legal target resolves without questions")
	assert.Empty(t, victim.Hand)
	requireConserved(t, g)
}

func TestCatBalouDiscardsTableCard(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	victim := g.players[g.order[2]]
	clearHand(g, sheriff)
	clearHand(g, victim)
	clearTable(g, victim)
	barrel := equip(t, g, victim, catalog.CardBarile)
	cat := giveCard(t, g, sheriff, catalog.CardCatBalou)

	_, err := g.RequestPlay(g.sheriff, cat.ID)
	require.NoError(t, err)
	q := g.questions[g.sheriff]
	require.NotNil(t, q)
	require.Equal(t, qTargetPlayer, q.Kind)
	answer(t, g, g.sheriff, victim.Name)

	assert.Contains(t, g.discardPile, barrel, "only one table card, picked without another question")
	assert.Empty(t, victim.InPlay)
	requireConserved(t, g)
}

func TestPrigioneCannotJailSheriff(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	jail := giveCard(t, g, sheriff, catalog.CardPrigione)

	_, err := g.RequestPlay(g.sheriff, jail.ID)
	require.NoError(t, err)
	q := g.questions[g.sheriff]
	require.NotNil(t, q)
	assert.NotContains(t, q.Options, g.sheriff)
	target := q.Options[0]
	answer(t, g, g.sheriff, target)
	assert.True(t, g.players[target].hasStatus(catalog.CardPrigione))
	requireConserved(t, g)
}

func TestEmporioDraftClockwise(t *testing.T) {
	g := newStartedGame(t, 4)
	sheriff := g.players[g.sheriff]
	clearHand(g, sheriff)
	emporio := giveCard(t, g, sheriff, catalog.CardEmporio)

	// Stack four cards with distinct names so every pick is a real choice.
	for _, name := range []catalog.CardName{catalog.CardScope, catalog.CardGatling, catalog.CardSaloon, catalog.CardBirra} {
		stackTop(t, g, func(c *catalog.Card) bool { return c.Name == name })
	}
	handSizes := map[string]int{}
	for name, p := range g.players {
		handSizes[name] = len(p.Hand)
	}

	_, err := g.RequestPlay(g.sheriff, emporio.ID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		picker := g.draftPicker
		q := g.questions[picker]
		require.NotNil(t, q, "picker %d has a choice", i)
		assert.Equal(t, qDraftPick, q.Kind)
		answer(t, g, picker, q.Options[0])
	}
	assert.Empty(t, g.draft)
	assert.Nil(t, g.current)
	for name, p := range g.players {
		want := handSizes[name] + 1
		if name == g.sheriff {
			want-- // the emporio itself left the sheriff's hand
		}
		assert.Len(t, p.Hand, want, "%s took exactly one card", name)
	}
	requireConserved(t, g)
}
