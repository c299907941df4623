package game

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// Phase is the coarse turn state. Finer pre-draw steps (dynamite, jail, the
// draw itself) live in turnStage while the phase stays PhaseDraw.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseSetup    Phase = "setup"
	PhaseDraw     Phase = "draw"
	PhaseAction   Phase = "action"
	PhaseDiscard  Phase = "discard"
	PhaseGameOver Phase = "game_over"
)

const (
	minPlayers = 4
	maxPlayers = 7

	// charactersOffered is how many characters each seat picks from at setup.
	charactersOffered = 2

	// updateLogCap bounds the public event log kept for reconnect replay.
	updateLogCap = 100
)

// inFlight is the card currently being resolved. committed flips once the
// card has left its owner's hand and side effects have begun; before that the
// owner may cancel.
type inFlight struct {
	card      *catalog.Card
	player    string
	target    string
	committed bool
}

// duelState tracks an active duel. next is the player currently asked to
// answer with a bang.
type duelState struct {
	challenger string
	opponent   string
	next       string
}

// Game is one lobby's authoritative state. It is not safe for concurrent use;
// the lobby registry serializes access under a per-lobby mutex.
type Game struct {
	lobby string
	log   *zap.Logger
	rng   *rand.Rand

	phase   Phase
	turn    int
	order   []string // seating order, fixed at setup
	turnIdx int
	players map[string]*Player
	sheriff string
	outcome string
	winners []string

	allCards    map[int]*catalog.Card
	drawPile    []*catalog.Card
	discardPile []*catalog.Card

	offers     map[string][]catalog.Character
	spareChars []catalog.Character

	current     *inFlight
	questions   map[string]*pendingQuestion
	stage       turnStage
	bangsPlayed int
	duel        *duelState
	draft       []*catalog.Card
	draftPicker string

	updates []string
}

// Option configures a new game.
type Option func(*Game)

// WithSeed pins the shuffle source, for deterministic tests and replays.
func WithSeed(seed int64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewSource(seed)) }
}

// New creates an empty lobby-phase game. logger may be nil.
func New(lobby string, logger *zap.Logger, opts ...Option) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Game{
		lobby:     lobby,
		log:       logger.With(zap.String("lobby", lobby)),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		phase:     PhaseLobby,
		players:   map[string]*Player{},
		questions: map[string]*pendingQuestion{},
		offers:    map[string][]catalog.Character{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Lobby returns the lobby code the game belongs to.
func (g *Game) Lobby() string { return g.lobby }

// Phase returns the current coarse phase.
func (g *Game) Phase() Phase { return g.phase }

// Outcome returns the result line once the game is over, else "".
func (g *Game) Outcome() string { return g.outcome }

// Idle reports whether nothing is suspended: no card in flight and no open
// question. Persistence waits for idle states.
func (g *Game) Idle() bool { return g.current == nil && len(g.questions) == 0 }

// PlayerCount returns the number of seated players.
func (g *Game) PlayerCount() int { return len(g.players) }

// HasPlayer reports whether name is seated in this game.
func (g *Game) HasPlayer(name string) bool {
	_, ok := g.players[name]
	return ok
}

// note broadcasts a public event line and records it for reconnect replay.
func (g *Game) note(em *emitter, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	em.info(text)
	g.updates = append(g.updates, text)
	if len(g.updates) > updateLogCap {
		g.updates = g.updates[len(g.updates)-updateLogCap:]
	}
}

func (g *Game) player(name string) (*Player, error) {
	p, ok := g.players[name]
	if !ok {
		return nil, rejectf("you are not in this game")
	}
	return p, nil
}

func (g *Game) currentPlayer() *Player {
	if len(g.order) == 0 {
		return nil
	}
	return g.players[g.order[g.turnIdx]]
}

// alivePlayers returns living players in seating order starting from the
// current turn seat.
func (g *Game) alivePlayers() []*Player {
	out := make([]*Player, 0, len(g.order))
	for i := range g.order {
		p := g.players[g.order[(g.turnIdx+i)%len(g.order)]]
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.players {
		if p.Alive() {
			n++
		}
	}
	return n
}

// distance is the modified distance from attacker to target: seats counted
// around the circle of living players, minus a scope (and Rose Doolan), plus a
// mustang (and Paul Regret), never below 1.
func (g *Game) distance(from, to *Player) int {
	alive := make([]string, 0, len(g.order))
	for _, name := range g.order {
		if g.players[name].Alive() || name == from.Name || name == to.Name {
			alive = append(alive, name)
		}
	}
	fi, ti := -1, -1
	for i, name := range alive {
		if name == from.Name {
			fi = i
		}
		if name == to.Name {
			ti = i
		}
	}
	if fi < 0 || ti < 0 {
		return 1
	}
	d := fi - ti
	if d < 0 {
		d = -d
	}
	if wrap := len(alive) - d; wrap < d {
		d = wrap
	}
	if from.hasInPlay(catalog.CardScope) {
		d--
	}
	if from.is(catalog.AbilityRangeBonus) {
		d--
	}
	if to.hasInPlay(catalog.CardMustang) {
		d++
	}
	if to.is(catalog.AbilityRangePenalty) {
		d++
	}
	if d < 1 {
		d = 1
	}
	return d
}

// AddPlayer seats a player in the lobby. Only valid before setup starts.
func (g *Game) AddPlayer(name string) ([]Notification, error) {
	em := &emitter{}
	if g.phase != PhaseLobby {
		return nil, rejectf("the game has already started")
	}
	if name == "" {
		return nil, rejectf("a player needs a name")
	}
	if _, ok := g.players[name]; ok {
		return nil, rejectf("the name %s is taken", name)
	}
	if len(g.players) >= maxPlayers {
		return nil, rejectf("the lobby is full")
	}
	g.players[name] = &Player{Name: name}
	g.order = append(g.order, name)
	g.note(em, "%s joined the game", name)
	g.log.Info("player joined", zap.String("player", name), zap.Int("seats", len(g.players)))
	return em.ns, nil
}

// RemovePlayer takes a player out. Before setup the seat is simply freed;
// after, the player is eliminated and the usual cascades run.
func (g *Game) RemovePlayer(name string) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	if g.phase == PhaseLobby {
		delete(g.players, name)
		g.order = removeName(g.order, name)
		g.note(em, "%s left the game", name)
		return em.ns, nil
	}
	if g.phase == PhaseSetup {
		return nil, rejectf("wait for the character picks to finish")
	}
	if g.phase == PhaseGameOver || !p.Alive() {
		return nil, rejectf("the game is over for you already")
	}
	g.note(em, "%s abandoned the game", name)
	g.log.Info("player abandoned", zap.String("player", name))
	wasTurn := g.currentPlayer() == p
	p.Life = 0
	if err := g.eliminate(p, nil, em); err != nil {
		return nil, err
	}
	if g.phase != PhaseGameOver {
		if len(g.draft) > 0 {
			if _, open := g.questions[g.draftPicker]; !open {
				if err := g.continueDraft(em); err != nil {
					return nil, err
				}
			}
		}
		if wasTurn {
			if err := g.advanceTurn(em); err != nil {
				return nil, err
			}
		}
	}
	g.clearInFlightIfIdle()
	return em.ns, nil
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}

// PrepareSetup freezes the seats, deals roles, and offers each player a
// choice of characters. Play begins once every AssignCharacter has landed.
func (g *Game) PrepareSetup() ([]Notification, error) {
	em := &emitter{}
	if g.phase != PhaseLobby {
		return nil, rejectf("the game has already started")
	}
	if len(g.players) < minPlayers {
		return nil, rejectf("need at least %d players, have %d", minPlayers, len(g.players))
	}

	roles := rolesFor(len(g.players))
	g.rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	g.rng.Shuffle(len(g.order), func(i, j int) { g.order[i], g.order[j] = g.order[j], g.order[i] })
	for i, name := range g.order {
		p := g.players[name]
		p.Role = roles[i]
		if p.Role == RoleSheriff {
			g.sheriff = name
		}
	}
	// The sheriff opens the game, so rotate the seating to start there.
	for i, name := range g.order {
		if name == g.sheriff {
			g.order = append(g.order[i:], g.order[:i]...)
			break
		}
	}
	g.turnIdx = 0

	chars := catalog.Characters()
	g.rng.Shuffle(len(chars), func(i, j int) { chars[i], chars[j] = chars[j], chars[i] })
	for _, name := range g.order {
		g.offers[name] = chars[:charactersOffered]
		chars = chars[charactersOffered:]
	}
	g.spareChars = chars

	g.phase = PhaseSetup
	g.note(em, "roles are dealt, %s is the sheriff", g.sheriff)
	for _, name := range g.order {
		p := g.players[name]
		em.role(p)
		names := make([]string, 0, charactersOffered)
		for _, c := range g.offers[name] {
			names = append(names, c.Name)
		}
		em.add(Notification{Type: NoteCharacterChoice, To: []string{name}, Payload: CharacterChoicePayload{Names: names}})
	}
	g.log.Info("setup prepared", zap.Int("players", len(g.players)), zap.String("sheriff", g.sheriff))
	return em.ns, nil
}

// AssignCharacter locks in a player's character pick. The last pick shuffles
// the deck, deals opening hands, and starts the sheriff's first turn.
func (g *Game) AssignCharacter(name, character string) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	if g.phase != PhaseSetup {
		return nil, rejectf("characters are not being picked right now")
	}
	offer, ok := g.offers[name]
	if !ok {
		return nil, rejectf("you already picked a character")
	}
	var picked *catalog.Character
	for i := range offer {
		if offer[i].Name == character {
			picked = &offer[i]
		}
	}
	if picked == nil {
		return nil, rejectf("%s is not one of your options", character)
	}
	p.Character = *picked
	p.LifeLimit = picked.Lives
	if p.Role == RoleSheriff {
		p.LifeLimit++
	}
	p.Life = p.LifeLimit
	delete(g.offers, name)
	g.note(em, "%s plays as %s", name, picked.Name)

	if len(g.offers) == 0 {
		if err := g.startPlay(em); err != nil {
			return nil, err
		}
	}
	return em.ns, nil
}

// startPlay builds the shuffled draw pile, deals opening hands equal to each
// player's life total, and opens the sheriff's turn.
func (g *Game) startPlay(em *emitter) error {
	deck := catalog.NewDeck()
	g.allCards = make(map[int]*catalog.Card, len(deck))
	for _, c := range deck {
		g.allCards[c.ID] = c
	}
	g.drawPile = deck
	g.rng.Shuffle(len(g.drawPile), func(i, j int) {
		g.drawPile[i], g.drawPile[j] = g.drawPile[j], g.drawPile[i]
	})
	for _, name := range g.order {
		p := g.players[name]
		for i := 0; i < p.Life; i++ {
			c, err := g.drawTop()
			if err != nil {
				return err
			}
			p.Hand = append(p.Hand, c)
		}
		em.hand(p)
	}
	g.note(em, "the game begins, %s goes first", g.sheriff)
	g.log.Info("game started", zap.Strings("order", g.order))
	return g.beginTurn(em)
}

// boardView builds the public view of every seat. Hidden roles stay hidden
// until the seat is eliminated; the sheriff is always public.
func (g *Game) boardView() BoardPayload {
	players := make([]PlayerView, 0, len(g.order))
	for _, name := range g.order {
		p := g.players[name]
		v := PlayerView{
			Name:      p.Name,
			Character: p.Character.Name,
			Life:      p.Life,
			LifeLimit: p.LifeLimit,
			HandSize:  len(p.Hand),
			InPlay:    viewCards(p.InPlay),
			Status:    viewCards(p.Status),
			Alive:     p.Alive(),
			IsTurn:    g.phase != PhaseLobby && g.phase != PhaseSetup && g.currentPlayer() == p,
		}
		if p.Role == RoleSheriff || !p.Alive() && g.phase != PhaseLobby {
			v.Role = string(p.Role)
		}
		players = append(players, v)
	}
	return BoardPayload{Players: players}
}

func (g *Game) board(em *emitter) {
	em.add(Notification{Type: NoteBoardRefresh, Payload: g.boardView()})
}

// Reconnect replays a player's private state: recent public events, their
// role, hand, the board, and any prompt still waiting on them.
func (g *Game) Reconnect(name string) ([]Notification, error) {
	em := &emitter{}
	p, err := g.player(name)
	if err != nil {
		return nil, err
	}
	for _, text := range g.updates {
		em.info(text, name)
	}
	if g.phase != PhaseLobby {
		em.role(p)
	}
	if offer, ok := g.offers[name]; ok {
		names := make([]string, 0, len(offer))
		for _, c := range offer {
			names = append(names, c.Name)
		}
		em.add(Notification{Type: NoteCharacterChoice, To: []string{name}, Payload: CharacterChoicePayload{Names: names}})
	}
	if g.phase != PhaseLobby && g.phase != PhaseSetup {
		em.hand(p)
		em.add(Notification{Type: NoteBoardRefresh, To: []string{name}, Payload: g.boardView()})
	}
	if q, ok := g.questions[name]; ok {
		em.question(p, q)
	}
	if g.phase == PhaseGameOver {
		em.add(Notification{Type: NoteGameOver, To: []string{name}, Payload: GameOverPayload{Outcome: g.outcome, Winners: g.winners}})
	}
	g.log.Debug("player reconnected", zap.String("player", name))
	return em.ns, nil
}

// drawTop takes the top card of the draw pile, reshuffling the discard pile
// under it when it runs dry.
func (g *Game) drawTop() (*catalog.Card, error) {
	if len(g.drawPile) == 0 {
		if len(g.discardPile) == 0 {
			return nil, invariantf("both piles empty")
		}
		g.drawPile = g.discardPile
		g.discardPile = nil
		g.rng.Shuffle(len(g.drawPile), func(i, j int) {
			g.drawPile[i], g.drawPile[j] = g.drawPile[j], g.drawPile[i]
		})
		g.log.Debug("discard pile reshuffled", zap.Int("cards", len(g.drawPile)))
	}
	c := g.drawPile[0]
	g.drawPile = g.drawPile[1:]
	return c, nil
}

func (g *Game) discard(c *catalog.Card) {
	g.discardPile = append(g.discardPile, c)
}

// drawCards moves n cards from the draw pile into p's hand.
func (g *Game) drawCards(p *Player, n int) error {
	for i := 0; i < n; i++ {
		c, err := g.drawTop()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, c)
	}
	return nil
}

// CheckConservation verifies that every catalog card sits in exactly one
// container. The registry runs it after each successful operation; a failure
// rolls the operation back.
func (g *Game) CheckConservation() error {
	if g.allCards == nil {
		return nil
	}
	seen := map[int]string{}
	track := func(where string, cs []*catalog.Card) error {
		for _, c := range cs {
			if prev, dup := seen[c.ID]; dup {
				return invariantf("card %d in both %s and %s", c.ID, prev, where)
			}
			seen[c.ID] = where
		}
		return nil
	}
	if err := track("draw pile", g.drawPile); err != nil {
		return err
	}
	if err := track("discard pile", g.discardPile); err != nil {
		return err
	}
	if err := track("draft", g.draft); err != nil {
		return err
	}
	for _, p := range g.players {
		if err := track(p.Name+" hand", p.Hand); err != nil {
			return err
		}
		if err := track(p.Name+" table", p.InPlay); err != nil {
			return err
		}
		if err := track(p.Name+" status", p.Status); err != nil {
			return err
		}
	}
	for _, q := range g.questions {
		if err := track("question "+string(q.Kind), q.Drawn); err != nil {
			return err
		}
	}
	if len(seen) != len(g.allCards) {
		missing := make([]int, 0)
		for id := range g.allCards {
			if _, ok := seen[id]; !ok {
				missing = append(missing, id)
			}
		}
		sort.Ints(missing)
		return invariantf("%d cards unaccounted for: %v", len(missing), missing)
	}
	return nil
}

// clearInFlightIfIdle drops the in-flight marker once no question is open, so
// the invariant "a card is in flight iff someone still has to answer" holds
// at operation boundaries.
func (g *Game) clearInFlightIfIdle() {
	if g.current != nil && len(g.questions) == 0 && g.duel == nil && len(g.draft) == 0 {
		g.current = nil
	}
}
