package game

import (
	"time"

	"github.com/Nighthawkeye449/bang-server-go/internal/catalog"
)

// NoteType tags a notification payload.
type NoteType string

const (
	// NoteInfo is a plain text event line.
	NoteInfo NoteType = "info"
	// NoteCardPlayed announces a card leaving a player's hand face up.
	NoteCardPlayed NoteType = "card_played"
	// NoteHandRefresh replaces the recipient's private hand view.
	NoteHandRefresh NoteType = "hand"
	// NoteBoardRefresh replaces the public board view.
	NoteBoardRefresh NoteType = "board"
	// NoteRole privately tells the recipient their role.
	NoteRole NoteType = "role"
	// NoteCharacterChoice privately offers character options during setup.
	NoteCharacterChoice NoteType = "character_choice"
	// NoteQuestion asks the recipient to answer a pending question.
	NoteQuestion NoteType = "question"
	// NoteDelay is a pacing hint for the transport; it carries no game state.
	NoteDelay NoteType = "delay"
	// NoteGameOver announces the outcome.
	NoteGameOver NoteType = "game_over"
)

// CardView is the wire shape of a card.
type CardView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

func viewCard(c *catalog.Card) CardView {
	return CardView{ID: c.ID, Name: string(c.Name), Suit: string(c.Suit), Rank: string(c.Rank)}
}

func viewCards(cs []*catalog.Card) []CardView {
	out := make([]CardView, len(cs))
	for i, c := range cs {
		out[i] = viewCard(c)
	}
	return out
}

// PlayerView is the public shape of a player. Role is only filled for the
// sheriff and for eliminated players.
type PlayerView struct {
	Name      string     `json:"name"`
	Role      string     `json:"role,omitempty"`
	Character string     `json:"character,omitempty"`
	Life      int        `json:"life"`
	LifeLimit int        `json:"life_limit"`
	HandSize  int        `json:"hand_size"`
	InPlay    []CardView `json:"in_play"`
	Status    []CardView `json:"status"`
	Alive     bool       `json:"alive"`
	IsTurn    bool       `json:"is_turn"`
}

// InfoPayload carries a text event line.
type InfoPayload struct {
	Text string `json:"text"`
}

// CardPlayedPayload carries a face-up play.
type CardPlayedPayload struct {
	Player string   `json:"player"`
	Card   CardView `json:"card"`
}

// HandPayload carries the recipient's full hand.
type HandPayload struct {
	Cards []CardView `json:"cards"`
}

// BoardPayload carries the public view of every seat.
type BoardPayload struct {
	Players []PlayerView `json:"players"`
}

// RolePayload carries the recipient's hidden role.
type RolePayload struct {
	Role string `json:"role"`
}

// CharacterChoicePayload offers characters during setup.
type CharacterChoicePayload struct {
	Names []string `json:"names"`
}

// QuestionPayload asks the recipient to pick one of Options.
type QuestionPayload struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// DelayPayload tells the transport to pause before delivering what follows.
type DelayPayload struct {
	Duration time.Duration `json:"duration"`
}

// GameOverPayload carries the final outcome.
type GameOverPayload struct {
	Outcome string   `json:"outcome"`
	Winners []string `json:"winners"`
}

// Notification is one event produced by a game operation. An empty To means
// broadcast to every player in the lobby.
type Notification struct {
	Type    NoteType `json:"type"`
	To      []string `json:"to,omitempty"`
	Payload any      `json:"payload,omitempty"`
}

func (n Notification) broadcast() bool { return len(n.To) == 0 }

func (n Notification) sameAudience(o Notification) bool {
	if len(n.To) != len(o.To) {
		return false
	}
	for i := range n.To {
		if n.To[i] != o.To[i] {
			return false
		}
	}
	return true
}

// maxDelay caps a run of collapsed pacing delays.
const maxDelay = time.Second

// Pacing pauses inserted between game beats so the client feed stays
// readable. The writer sleeps on them; Consolidate collapses runs.
const (
	turnDelay     = 500 * time.Millisecond
	reactionDelay = 300 * time.Millisecond
)

// Consolidate rewrites a notification batch before delivery:
//
//  1. consecutive delays collapse into one, capped at maxDelay;
//  2. only the last hand refresh per recipient survives;
//  3. questions addressed to a recipient after that recipient has seen a
//     game-over are dropped.
//
// Relative order is otherwise preserved.
func Consolidate(ns []Notification) []Notification {
	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		if n.Type == NoteDelay && len(out) > 0 && out[len(out)-1].Type == NoteDelay {
			prev := &out[len(out)-1]
			d := prev.Payload.(DelayPayload).Duration + n.Payload.(DelayPayload).Duration
			if d > maxDelay {
				d = maxDelay
			}
			prev.Payload = DelayPayload{Duration: d}
			continue
		}
		out = append(out, n)
	}

	over := map[string]bool{}
	allOver := false
	kept := out[:0]
	for _, n := range out {
		if n.Type == NoteQuestion {
			if allOver {
				continue
			}
			skip := len(n.To) > 0
			for _, to := range n.To {
				if !over[to] {
					skip = false
				}
			}
			if skip {
				continue
			}
		}
		if n.Type == NoteGameOver {
			if n.broadcast() {
				allOver = true
			}
			for _, to := range n.To {
				over[to] = true
			}
		}
		kept = append(kept, n)
	}
	out = kept

	last := map[string]int{}
	for i, n := range out {
		if n.Type != NoteHandRefresh {
			continue
		}
		key := "*"
		if len(n.To) == 1 {
			key = n.To[0]
		}
		last[key] = i
	}
	final := make([]Notification, 0, len(out))
	for i, n := range out {
		if n.Type == NoteHandRefresh {
			key := "*"
			if len(n.To) == 1 {
				key = n.To[0]
			}
			if last[key] != i {
				continue
			}
		}
		final = append(final, n)
	}
	return final
}

// emitter buffers the notifications produced while one operation runs. The
// registry consolidates and hands the batch to the transport after the lobby
// lock is released.
type emitter struct {
	ns []Notification
}

func (e *emitter) add(n Notification) {
	e.ns = append(e.ns, n)
}

func (e *emitter) info(text string, to ...string) {
	e.add(Notification{Type: NoteInfo, To: to, Payload: InfoPayload{Text: text}})
}

func (e *emitter) cardPlayed(player string, c *catalog.Card) {
	e.add(Notification{Type: NoteCardPlayed, Payload: CardPlayedPayload{Player: player, Card: viewCard(c)}})
}

func (e *emitter) delay(d time.Duration) {
	e.add(Notification{Type: NoteDelay, Payload: DelayPayload{Duration: d}})
}

func (e *emitter) hand(p *Player) {
	e.add(Notification{Type: NoteHandRefresh, To: []string{p.Name}, Payload: HandPayload{Cards: viewCards(p.Hand)}})
}

func (e *emitter) role(p *Player) {
	e.add(Notification{Type: NoteRole, To: []string{p.Name}, Payload: RolePayload{Role: string(p.Role)}})
}

func (e *emitter) question(p *Player, q *pendingQuestion) {
	e.add(Notification{
		Type:    NoteQuestion,
		To:      []string{p.Name},
		Payload: QuestionPayload{ID: q.ID.String(), Prompt: q.Prompt, Options: q.Options},
	})
}

func (e *emitter) gameOver(outcome string, winners []string) {
	e.add(Notification{Type: NoteGameOver, Payload: GameOverPayload{Outcome: outcome, Winners: winners}})
}
