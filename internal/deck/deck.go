package deck

import (
	"errors"
	"math/rand/v2"

	"github.com/DoyleJ11/cah-server/internal/cards"
)

var ErrDeckExhausted = errors.New("deck exhausted")

// Deck holds the live black and white supplies for one game. Cards are dealt
// from the front and never put back.
type Deck struct {
	prompts   []cards.PromptCard
	responses []string
	rng       *rand.Rand
}

// New returns an empty deck. A nil rng uses a randomly seeded source.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Deck{rng: rng}
}

// ShuffleAndLoad copies both collections out of src, shuffles each
// independently and makes them the live supplies.
func (d *Deck) ShuffleAndLoad(src cards.Source) {
	d.prompts = append([]cards.PromptCard(nil), src.Prompts...)
	d.responses = append([]string(nil), src.Responses...)
	shuffle(d.prompts, d.rng)
	shuffle(d.responses, d.rng)
}

// DealResponses removes the first n white cards. Nothing is consumed when
// fewer than n remain.
func (d *Deck) DealResponses(n int) ([]string, error) {
	if n > len(d.responses) {
		return nil, ErrDeckExhausted
	}
	out := make([]string, n)
	copy(out, d.responses[:n])
	d.responses = d.responses[n:]
	return out, nil
}

func (d *Deck) DealPrompt() (cards.PromptCard, error) {
	if len(d.prompts) == 0 {
		return cards.PromptCard{}, ErrDeckExhausted
	}
	p := d.prompts[0]
	d.prompts = d.prompts[1:]
	return p, nil
}

func (d *Deck) PromptsLeft() int   { return len(d.prompts) }
func (d *Deck) ResponsesLeft() int { return len(d.responses) }

// Reset drops both supplies.
func (d *Deck) Reset() {
	d.prompts = nil
	d.responses = nil
}
