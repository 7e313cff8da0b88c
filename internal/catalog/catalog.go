package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// Competence is the simplified Bloom level a question exercises.
type Competence string

const (
	CompetenceRestituer Competence = "Restituer"
	CompetenceAppliquer Competence = "Appliquer"
	CompetenceRaisonner Competence = "Raisonner"
)

// ErrorKind classifies what an incorrect answer reveals (NSI questions).
type ErrorKind string

const (
	ErrorSyntax     ErrorKind = "syntax"
	ErrorLogic      ErrorKind = "logic"
	ErrorConceptual ErrorKind = "conceptual"
)

// Question is the static metadata for one catalog item. Weight encodes
// difficulty: 1=Basique, 2=Intermédiaire, 3=Expert.
type Question struct {
	ID              string        `json:"id"`
	Subject         stats.Subject `json:"subject"`
	Category        string        `json:"category"`
	Competence      Competence    `json:"competence"`
	Weight          int           `json:"weight"`
	CorrectOptionID string        `json:"correct_option_id"`
	Label           string        `json:"label"`
	ErrorKind       ErrorKind     `json:"error_kind,omitempty"`
}

// Catalog is an indexed, read-only question bank. It is owned by the
// content/config collaborator; the engine only looks things up in it.
type Catalog struct {
	byID  map[string]Question
	order []Question
}

// New builds a catalog from a question list. Duplicate IDs are rejected so
// a malformed content file cannot silently shadow questions.
func New(questions []Question) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Question, len(questions))}
	for _, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("catalog: question with empty id (label %q)", q.Label)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate question id %q", q.ID)
		}
		if q.Weight < 1 || q.Weight > 3 {
			return nil, fmt.Errorf("catalog: question %q has weight %d, want 1..3", q.ID, q.Weight)
		}
		c.byID[q.ID] = q
		c.order = append(c.order, q)
	}
	return c, nil
}

// LoadFile reads a JSON question bank from disk.
func LoadFile(path string) (*Catalog, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var questions []Question
	if err := json.Unmarshal(buf, &questions); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(questions)
}

// Lookup resolves a question by ID.
func (c *Catalog) Lookup(id string) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Questions returns the bank in declaration order.
func (c *Catalog) Questions() []Question { return c.order }

// Len returns the number of questions in the bank.
func (c *Catalog) Len() int { return len(c.order) }

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, q := range c.order {
		if !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	return out
}
