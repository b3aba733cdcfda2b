package deck

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

//go:embed deck.json
var deckJSON []byte

// PromptCard is a fill-in-the-blank statement. Pick is the number of
// blanks an answer must cover.
type PromptCard struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Pick int    `json:"pick"`
}

// Deck is the static card catalog. Prompt cards are addressed by id,
// answer cards by positional index. The catalog is read-only and
// identical for every client.
type Deck struct {
	prompts []PromptCard
	answers []string
}

var (
	defaultOnce sync.Once
	defaultDeck *Deck
	defaultErr  error
)

// Default returns the embedded catalog, parsed once per process.
func Default() (*Deck, error) {
	defaultOnce.Do(func() {
		defaultDeck, defaultErr = Parse(deckJSON)
	})
	return defaultDeck, defaultErr
}

func Parse(data []byte) (*Deck, error) {
	var raw struct {
		PromptCards []PromptCard `json:"promptCards"`
		AnswerCards []string     `json:"answerCards"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	d := &Deck{prompts: raw.PromptCards, answers: raw.AnswerCards}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deck) validate() error {
	if len(d.prompts) == 0 {
		return errors.New("deck has no prompt cards")
	}
	if len(d.answers) == 0 {
		return errors.New("deck has no answer cards")
	}
	seen := make(map[int]struct{}, len(d.prompts))
	for _, card := range d.prompts {
		if card.Text == "" {
			return fmt.Errorf("prompt card %d has empty text", card.ID)
		}
		if card.Pick < 1 {
			return fmt.Errorf("prompt card %d has invalid pick %d", card.ID, card.Pick)
		}
		if _, dup := seen[card.ID]; dup {
			return fmt.Errorf("duplicate prompt card id %d", card.ID)
		}
		seen[card.ID] = struct{}{}
	}
	for i, text := range d.answers {
		if text == "" {
			return fmt.Errorf("answer card %d has empty text", i)
		}
	}
	return nil
}

// Prompts returns the prompt catalog in its stable order.
func (d *Deck) Prompts() []PromptCard {
	out := make([]PromptCard, len(d.prompts))
	copy(out, d.prompts)
	return out
}

func (d *Deck) PromptByID(id int) (PromptCard, bool) {
	for _, card := range d.prompts {
		if card.ID == id {
			return card, true
		}
	}
	return PromptCard{}, false
}

// Answers returns the answer-card texts in catalog order.
func (d *Deck) Answers() []string {
	out := make([]string, len(d.answers))
	copy(out, d.answers)
	return out
}

// Answer returns the answer-card text at the given catalog index.
func (d *Deck) Answer(index int) (string, bool) {
	if index < 0 || index >= len(d.answers) {
		return "", false
	}
	return d.answers[index], true
}

func (d *Deck) NumAnswers() int {
	return len(d.answers)
}

func (d *Deck) RandomPrompt(rng *rand.Rand) PromptCard {
	return d.prompts[rng.Intn(len(d.prompts))]
}
