package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// Snapshot is a complete, self-contained copy of a game. Cards are stored by
// id; suits and ranks are redundant because the catalog is deterministic.
// The registry takes one before every operation for rollback, and the
// repository persists the latest one per lobby.
type Snapshot struct {
	Lobby       string
	Phase       Phase
	Turn        int
	TurnIdx     int
	Order       []string
	Sheriff     string
	Outcome     string
	Winners     []string
	Players     map[string]PlayerState
	DrawPile    []int
	DiscardPile []int
	Offers      map[string][]string
	SpareChars  []string
	Current     *CurrentState
	Questions   map[string]QuestionState
	Stage       int
	BangsPlayed int
	Duel        *DuelState
	Draft       []int
	DraftPicker string
	Updates     []string
}

// PlayerState is one seat inside a Snapshot.
type PlayerState struct {
	Name      string
	Role      Role
	Character string
	Life      int
	LifeLimit int
	Hand      []int
	InPlay    []int
	Status    []int
}

// CurrentState is the in-flight card inside a Snapshot.
type CurrentState struct {
	CardID    int
	Player    string
	Target    string
	Committed bool
}

// DuelState is an active duel inside a Snapshot.
type DuelState struct {
	Challenger string
	Opponent   string
	Next       string
}

// QuestionState is an open prompt inside a Snapshot.
type QuestionState struct {
	ID       string
	Kind     string
	Prompt   string
	Options  []string
	Attacker string
	CardName string
	Purpose  string
	Drawn    []int
	Attempts int
	Hits     int
	PickedID int
	CardIDs  []int
}

func cardIDs(cs []*catalog.Card) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// Snapshot deep-copies the game. The copy shares nothing with the live state.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		Lobby:       g.lobby,
		Phase:       g.phase,
		Turn:        g.turn,
		TurnIdx:     g.turnIdx,
		Order:       append([]string{}, g.order...),
		Sheriff:     g.sheriff,
		Outcome:     g.outcome,
		Winners:     append([]string{}, g.winners...),
		Players:     make(map[string]PlayerState, len(g.players)),
		DrawPile:    cardIDs(g.drawPile),
		DiscardPile: cardIDs(g.discardPile),
		Offers:      make(map[string][]string, len(g.offers)),
		Questions:   make(map[string]QuestionState, len(g.questions)),
		Stage:       int(g.stage),
		BangsPlayed: g.bangsPlayed,
		Draft:       cardIDs(g.draft),
		DraftPicker: g.draftPicker,
		Updates:     append([]string{}, g.updates...),
	}
	for name, p := range g.players {
		s.Players[name] = PlayerState{
			Name:      p.Name,
			Role:      p.Role,
			Character: p.Character.Name,
			Life:      p.Life,
			LifeLimit: p.LifeLimit,
			Hand:      cardIDs(p.Hand),
			InPlay:    cardIDs(p.InPlay),
			Status:    cardIDs(p.Status),
		}
	}
	for name, offer := range g.offers {
		names := make([]string, len(offer))
		for i, c := range offer {
			names[i] = c.Name
		}
		s.Offers[name] = names
	}
	for _, c := range g.spareChars {
		s.SpareChars = append(s.SpareChars, c.Name)
	}
	if g.current != nil {
		s.Current = &CurrentState{
			CardID:    g.current.card.ID,
			Player:    g.current.player,
			Target:    g.current.target,
			Committed: g.current.committed,
		}
	}
	if g.duel != nil {
		s.Duel = &DuelState{Challenger: g.duel.challenger, Opponent: g.duel.opponent, Next: g.duel.next}
	}
	for name, q := range g.questions {
		s.Questions[name] = QuestionState{
			ID:       q.ID.String(),
			Kind:     string(q.Kind),
			Prompt:   q.Prompt,
			Options:  append([]string{}, q.Options...),
			Attacker: q.Attacker,
			CardName: string(q.CardName),
			Purpose:  string(q.Purpose),
			Drawn:    cardIDs(q.Drawn),
			Attempts: q.Attempts,
			Hits:     q.Hits,
			PickedID: q.PickedID,
			CardIDs:  append([]int{}, q.CardIDs...),
		}
	}
	return s
}

// Restore overwrites the game with the snapshot's state. The card pool is
// rebuilt from the catalog, which is deterministic by id.
func (g *Game) Restore(s *Snapshot) error {
	pool := make(map[int]*catalog.Card, catalog.DeckSize)
	for _, c := range catalog.NewDeck() {
		pool[c.ID] = c
	}
	cards := func(ids []int) ([]*catalog.Card, error) {
		out := make([]*catalog.Card, 0, len(ids))
		for _, id := range ids {
			c, ok := pool[id]
			if !ok {
				return nil, invariantf("snapshot references unknown card %d", id)
			}
			out = append(out, c)
		}
		return out, nil
	}

	g.lobby = s.Lobby
	g.phase = s.Phase
	g.turn = s.Turn
	g.turnIdx = s.TurnIdx
	g.order = append([]string{}, s.Order...)
	g.sheriff = s.Sheriff
	g.outcome = s.Outcome
	g.winners = append([]string{}, s.Winners...)
	g.stage = turnStage(s.Stage)
	g.bangsPlayed = s.BangsPlayed
	g.draftPicker = s.DraftPicker
	g.updates = append([]string{}, s.Updates...)

	var err error
	if g.drawPile, err = cards(s.DrawPile); err != nil {
		return err
	}
	if g.discardPile, err = cards(s.DiscardPile); err != nil {
		return err
	}
	if g.draft, err = cards(s.Draft); err != nil {
		return err
	}

	g.players = make(map[string]*Player, len(s.Players))
	for name, ps := range s.Players {
		p := &Player{
			Name:      ps.Name,
			Role:      ps.Role,
			Life:      ps.Life,
			LifeLimit: ps.LifeLimit,
		}
		if ps.Character != "" {
			c, ok := catalog.CharacterByName(ps.Character)
			if !ok {
				return invariantf("snapshot references unknown character %q", ps.Character)
			}
			p.Character = c
		}
		if p.Hand, err = cards(ps.Hand); err != nil {
			return err
		}
		if p.InPlay, err = cards(ps.InPlay); err != nil {
			return err
		}
		if p.Status, err = cards(ps.Status); err != nil {
			return err
		}
		g.players[name] = p
	}

	g.offers = make(map[string][]catalog.Character, len(s.Offers))
	for name, names := range s.Offers {
		offer := make([]catalog.Character, 0, len(names))
		for _, cn := range names {
			c, ok := catalog.CharacterByName(cn)
			if !ok {
				return invariantf("snapshot references unknown character %q", cn)
			}
			offer = append(offer, c)
		}
		g.offers[name] = offer
	}
	g.spareChars = nil
	for _, cn := range s.SpareChars {
		c, ok := catalog.CharacterByName(cn)
		if !ok {
			return invariantf("snapshot references unknown character %q", cn)
		}
		g.spareChars = append(g.spareChars, c)
	}

	g.current = nil
	if s.Current != nil {
		c, ok := pool[s.Current.CardID]
		if !ok {
			return invariantf("snapshot references unknown card %d", s.Current.CardID)
		}
		g.current = &inFlight{card: c, player: s.Current.Player, target: s.Current.Target, committed: s.Current.Committed}
	}
	g.duel = nil
	if s.Duel != nil {
		g.duel = &duelState{challenger: s.Duel.Challenger, opponent: s.Duel.Opponent, next: s.Duel.Next}
	}

	g.questions = make(map[string]*pendingQuestion, len(s.Questions))
	for name, qs := range s.Questions {
		id, err := uuid.Parse(qs.ID)
		if err != nil {
			return invariantf("snapshot question id %q: %v", qs.ID, err)
		}
		drawn, err := cards(qs.Drawn)
		if err != nil {
			return err
		}
		g.questions[name] = &pendingQuestion{
			ID:       id,
			Kind:     questionKind(qs.Kind),
			Prompt:   qs.Prompt,
			Options:  append([]string{}, qs.Options...),
			Attacker: qs.Attacker,
			CardName: catalog.CardName(qs.CardName),
			Purpose:  checkPurpose(qs.Purpose),
			Drawn:    drawn,
			Attempts: qs.Attempts,
			Hits:     qs.Hits,
			PickedID: qs.PickedID,
			CardIDs:  append([]int{}, qs.CardIDs...),
		}
	}

	if s.Phase == PhaseLobby || s.Phase == PhaseSetup {
		g.allCards = nil
	} else {
		g.allCards = pool
	}
	return nil
}

// Encode serializes the snapshot for storage.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot deserializes a stored snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Checksum computes a deterministic digest of the snapshot. Two snapshots of
// the same game state produce the same digest regardless of map iteration
// order.
func (s *Snapshot) Checksum() string {
	h := sha256.New()
	w := func(format string, args ...any) {
		fmt.Fprintf(h, format, args...)
	}
	w("lobby=%s|phase=%s|turn=%d|idx=%d|order=%v|sheriff=%s|outcome=%s|winners=%v|",
		s.Lobby, s.Phase, s.Turn, s.TurnIdx, s.Order, s.Sheriff, s.Outcome, s.Winners)
	names := make([]string, 0, len(s.Players))
	for name := range s.Players {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := s.Players[name]
		w("player=%s|role=%s|char=%s|life=%d/%d|hand=%v|play=%v|status=%v|",
			p.Name, p.Role, p.Character, p.Life, p.LifeLimit, p.Hand, p.InPlay, p.Status)
	}
	w("draw=%v|discard=%v|stage=%d|bangs=%d|draft=%v|picker=%s|",
		s.DrawPile, s.DiscardPile, s.Stage, s.BangsPlayed, s.Draft, s.DraftPicker)
	if s.Current != nil {
		w("current=%d:%s:%s:%t|", s.Current.CardID, s.Current.Player, s.Current.Target, s.Current.Committed)
	}
	if s.Duel != nil {
		w("duel=%s:%s:%s|", s.Duel.Challenger, s.Duel.Opponent, s.Duel.Next)
	}
	qnames := make([]string, 0, len(s.Questions))
	for name := range s.Questions {
		qnames = append(qnames, name)
	}
	sort.Strings(qnames)
	for _, name := range qnames {
		q := s.Questions[name]
		w("question=%s|kind=%s|prompt=%s|options=%v|attacker=%s|card=%s|purpose=%s|drawn=%v|a=%d|h=%d|p=%d|ids=%v|",
			name, q.Kind, q.Prompt, q.Options, q.Attacker, q.CardName, q.Purpose,
			q.Drawn, q.Attempts, q.Hits, q.PickedID, q.CardIDs)
	}
	onames := make([]string, 0, len(s.Offers))
	for name := range s.Offers {
		onames = append(onames, name)
	}
	sort.Strings(onames)
	for _, name := range onames {
		w("offer=%s:%v|", name, s.Offers[name])
	}
	w("spare=%v|", s.SpareChars)
	return fmt.Sprintf("%x", h.Sum(nil))
}
