package scoring

import (
	"time"

	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// AnswerStatus is the resolved outcome of one submission. NSP ("Je ne sais
// pas") is an explicit non-answer, distinct from an error: it costs zero
// points but is never counted as a confusion.
type AnswerStatus string

const (
	StatusCorrect   AnswerStatus = "correct"
	StatusIncorrect AnswerStatus = "incorrect"
	StatusNSP       AnswerStatus = "nsp"
)

// AnswerSubmission is one raw answer as received from the client. A nil
// SelectedOptionID is treated the same as an explicit NSP.
type AnswerSubmission struct {
	QuestionID       string  `json:"question_id"`
	SelectedOptionID *string `json:"selected_option_id"`
	IsNSP            bool    `json:"is_nsp"`
}

// CategoryScore is the per-category breakdown.
type CategoryScore struct {
	Category      string        `json:"category"`
	Subject       stats.Subject `json:"subject"`
	Precision     float64       `json:"precision"`
	Confidence    float64       `json:"confidence"`
	Total         int           `json:"total_questions"`
	Attempted     int           `json:"attempted_questions"`
	Correct       int           `json:"correct_answers"`
	Incorrect     int           `json:"incorrect_answers"`
	NSP           int           `json:"nsp_answers"`
	WeightedScore float64       `json:"weighted_score"`
	WeightedMax   float64       `json:"weighted_max"`
	Tag           Tag           `json:"tag"`
}

// RadarPoint is one axis of the result radar chart.
type RadarPoint struct {
	Category   string  `json:"category"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// FragileBasesFlag marks a category where the student passes expert
// questions while failing basic ones: automatisms to consolidate.
type FragileBasesFlag struct {
	Category     string `json:"category"`
	BasicsFailed int    `json:"basics_failed"`
	ExpertPassed int    `json:"expert_passed"`
	Message      string `json:"message"`
}

// ErrorBreakdown counts incorrect NSI answers by what they reveal.
type ErrorBreakdown struct {
	Syntax     int `json:"syntax_errors"`
	Logic      int `json:"logic_errors"`
	Conceptual int `json:"conceptual_errors"`
	Total      int `json:"total_errors"`
}

// Result is the complete scoring output for one assessment. It is created
// once per reservation; the orchestration layer refuses to overwrite an
// existing result.
type Result struct {
	GlobalScore     float64            `json:"global_score"`
	ConfidenceIndex float64            `json:"confidence_index"`
	PrecisionIndex  float64            `json:"precision_index"`

	CategoryScores   []CategoryScore    `json:"category_scores"`
	CompetencyScores map[string]float64 `json:"competency_scores"`
	Radar            []RadarPoint       `json:"radar"`

	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`

	FragileBases []FragileBasesFlag `json:"fragile_bases,omitempty"`
	NSIErrors    *ErrorBreakdown    `json:"nsi_errors,omitempty"`

	DiagnosticText string `json:"diagnostic_text"`
	LucidityText   string `json:"lucidity_text"`

	TotalQuestions int `json:"total_questions"`
	TotalAttempted int `json:"total_attempted"`
	TotalCorrect   int `json:"total_correct"`
	TotalNSP       int `json:"total_nsp"`

	ScoredAt time.Time `json:"scored_at"`
}
