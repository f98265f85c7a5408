package cards

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrEmptySource = errors.New("card source has no cards")
var ErrInvalidCard = errors.New("invalid card")

// PromptCard is a black card. Pick is how many white cards an answer takes.
type PromptCard struct {
	Text string `json:"text"`
	Pick int    `json:"pick"`
}

// Source is the immutable card content the deck is built from at game start.
type Source struct {
	Prompts   []PromptCard `json:"blackCards"`
	Responses []string     `json:"whiteCards"`
}

//go:embed default.json
var defaultDeck []byte

// Default returns the deck compiled into the binary.
func Default() (Source, error) {
	return Parse(defaultDeck)
}

// Load reads a deck file with the same shape as the embedded one.
func Load(path string) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read cards file: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (Source, error) {
	var src Source
	if err := json.Unmarshal(b, &src); err != nil {
		return Source{}, fmt.Errorf("decode cards: %w", err)
	}
	if err := src.Validate(); err != nil {
		return Source{}, err
	}
	return src, nil
}

func (s Source) Validate() error {
	if len(s.Prompts) == 0 || len(s.Responses) == 0 {
		return ErrEmptySource
	}
	for i, p := range s.Prompts {
		if strings.TrimSpace(p.Text) == "" || p.Pick < 1 {
			return fmt.Errorf("black card %d: %w", i, ErrInvalidCard)
		}
	}
	for i, r := range s.Responses {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("white card %d: %w", i, ErrInvalidCard)
		}
	}
	return nil
}
