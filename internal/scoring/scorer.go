package scoring

import (
	"math"
	"time"

	"github.com/nexus-reussite/scoring-engine/internal/catalog"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// Options holds the tunable thresholds for strength/weakness selection.
// A category is a strength when tagged Maîtrisé or when its precision and
// confidence clear these bars; weaknesses are driven by the diagnostic tag.
type Options struct {
	StrengthPrecision  float64
	StrengthConfidence float64
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{StrengthPrecision: 70, StrengthConfidence: 50}
}

// Resolve maps one raw submission to its answer status. An explicit NSP or
// a missing option is an NSP; an unknown question ID resolves to incorrect
// so a stale client submission can lower but never raise the score.
func Resolve(sub AnswerSubmission, cat *catalog.Catalog) AnswerStatus {
	if sub.IsNSP || sub.SelectedOptionID == nil {
		return StatusNSP
	}
	q, ok := cat.Lookup(sub.QuestionID)
	if !ok {
		return StatusIncorrect
	}
	if *sub.SelectedOptionID == q.CorrectOptionID {
		return StatusCorrect
	}
	return StatusIncorrect
}

// Score aggregates raw submissions against the question catalog into the
// full diagnostic result. It is pure: no I/O, no shared state, and every
// numeric output is finite and within [0,100] for any input, including an
// empty catalog or an all-NSP submission set.
func Score(answers []AnswerSubmission, cat *catalog.Catalog, opts Options) Result {
	statusByQuestion := make(map[string]AnswerStatus, len(answers))
	for _, a := range answers {
		statusByQuestion[a.QuestionID] = Resolve(a, cat)
	}

	res := Result{
		CompetencyScores: map[string]float64{},
		ScoredAt:         time.Now().UTC(),
		TotalQuestions:   cat.Len(),
	}

	type weighted struct{ score, max float64 }
	competency := map[string]*weighted{}

	var totalWeightedScore, totalWeightedMax float64

	for _, category := range cat.Categories() {
		var (
			subject                    stats.Subject
			total, attempted, correct  int
			incorrect, nsp             int
			weightedScore, weightedMax float64
			basicTotal, basicFailed    int
			expertTotal, expertPassed  int
		)

		for _, q := range cat.Questions() {
			if q.Category != category {
				continue
			}
			if total == 0 {
				subject = q.Subject
			}
			total++
			weightedMax += float64(q.Weight)

			status, answered := statusByQuestion[q.ID]
			if !answered {
				status = StatusNSP
			}
			switch status {
			case StatusCorrect:
				attempted++
				correct++
				weightedScore += float64(q.Weight)
			case StatusIncorrect:
				attempted++
				incorrect++
			default:
				nsp++
			}

			c, ok := competency[string(q.Competence)]
			if !ok {
				c = &weighted{}
				competency[string(q.Competence)] = c
			}
			c.max += float64(q.Weight)
			if status == StatusCorrect {
				c.score += float64(q.Weight)
			}

			switch q.Weight {
			case 1:
				basicTotal++
				if status == StatusIncorrect {
					basicFailed++
				}
			case 3:
				expertTotal++
				if status == StatusCorrect {
					expertPassed++
				}
			}
		}

		precision := ratio(correct, attempted)
		confidence := ratio(attempted, total)
		nspRate := ratio(nsp, total)

		// Fragile-bases pattern: fails at least half of the basic items
		// while passing at least half of the expert ones.
		fragile := basicTotal > 0 && expertTotal > 0 &&
			float64(basicFailed) >= float64(basicTotal)*0.5 &&
			float64(expertPassed) >= float64(expertTotal)*0.5
		if fragile {
			res.FragileBases = append(res.FragileBases, FragileBasesFlag{
				Category:     category,
				BasicsFailed: basicFailed,
				ExpertPassed: expertPassed,
				Message:      fragileBasesMessage(category),
			})
		}

		tag := categoryTag(precision, confidence, nspRate, fragile)

		res.CategoryScores = append(res.CategoryScores, CategoryScore{
			Category:      category,
			Subject:       subject,
			Precision:     precision,
			Confidence:    confidence,
			Total:         total,
			Attempted:     attempted,
			Correct:       correct,
			Incorrect:     incorrect,
			NSP:           nsp,
			WeightedScore: weightedScore,
			WeightedMax:   weightedMax,
			Tag:           tag,
		})
		res.Radar = append(res.Radar, RadarPoint{Category: category, Score: precision, Confidence: confidence})

		switch {
		case tag == TagMaitrise,
			precision >= opts.StrengthPrecision && confidence >= opts.StrengthConfidence:
			res.Strengths = append(res.Strengths, category)
		case tag == TagConfusions, tag == TagInsuffisant, tag == TagBasesFragiles:
			res.Weaknesses = append(res.Weaknesses, category)
		}

		totalWeightedScore += weightedScore
		totalWeightedMax += weightedMax
		res.TotalAttempted += attempted
		res.TotalCorrect += correct
		res.TotalNSP += nsp
	}

	for comp, w := range competency {
		if w.max > 0 {
			res.CompetencyScores[comp] = math.Round(100 * w.score / w.max)
		} else {
			res.CompetencyScores[comp] = 0
		}
	}

	if totalWeightedMax > 0 {
		res.GlobalScore = math.Round(100 * totalWeightedScore / totalWeightedMax)
	}
	res.ConfidenceIndex = ratio(res.TotalAttempted, res.TotalQuestions)
	res.PrecisionIndex = ratio(res.TotalCorrect, res.TotalAttempted)

	res.NSIErrors = nsiErrors(statusByQuestion, cat)
	res.DiagnosticText = diagnosticText(res.GlobalScore, res.ConfidenceIndex, res.Strengths, res.Weaknesses, res.FragileBases)
	res.LucidityText = lucidityText(res.ConfidenceIndex, res.PrecisionIndex)

	return res
}

// nsiErrors tallies incorrect NSI answers by error kind. Nil when the
// catalog has no NSI questions.
func nsiErrors(status map[string]AnswerStatus, cat *catalog.Catalog) *ErrorBreakdown {
	hasNSI := false
	var b ErrorBreakdown
	for _, q := range cat.Questions() {
		if q.Subject != stats.SubjectNSI {
			continue
		}
		hasNSI = true
		if status[q.ID] != StatusIncorrect || q.ErrorKind == "" {
			continue
		}
		switch q.ErrorKind {
		case catalog.ErrorSyntax:
			b.Syntax++
		case catalog.ErrorLogic:
			b.Logic++
		case catalog.ErrorConceptual:
			b.Conceptual++
		}
	}
	if !hasNSI {
		return nil
	}
	b.Total = b.Syntax + b.Logic + b.Conceptual
	return &b
}

// ratio returns round(100*num/den), defined as 0 when den is 0 so callers
// never observe NaN.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(100 * float64(num) / float64(den))
}
