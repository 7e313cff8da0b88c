package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-reussite/scoring-engine/internal/catalog"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

func mustCatalog(t *testing.T, questions []catalog.Question) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(questions)
	require.NoError(t, err)
	return c
}

func opt(id string) *string { return &id }

func answer(qid, optionID string) AnswerSubmission {
	return AnswerSubmission{QuestionID: qid, SelectedOptionID: opt(optionID)}
}

func nsp(qid string) AnswerSubmission {
	return AnswerSubmission{QuestionID: qid, IsNSP: true}
}

func mathsQuestion(id, category string, weight int) catalog.Question {
	return catalog.Question{
		ID:              id,
		Subject:         stats.SubjectMaths,
		Category:        category,
		Competence:      catalog.CompetenceAppliquer,
		Weight:          weight,
		CorrectOptionID: "a",
	}
}

func TestResolve(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{mathsQuestion("q1", "Algèbre", 1)})

	assert.Equal(t, StatusCorrect, Resolve(answer("q1", "a"), cat))
	assert.Equal(t, StatusIncorrect, Resolve(answer("q1", "b"), cat))
	assert.Equal(t, StatusNSP, Resolve(nsp("q1"), cat))
	assert.Equal(t, StatusNSP, Resolve(AnswerSubmission{QuestionID: "q1"}, cat), "nil option is an NSP")
	assert.Equal(t, StatusIncorrect, Resolve(answer("ghost", "a"), cat), "unknown id must never raise the score")
}

func TestScore_SingleCorrectAnswer(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{mathsQuestion("q1", "Algèbre", 2)})

	res := Score([]AnswerSubmission{answer("q1", "a")}, cat, DefaultOptions())

	assert.Equal(t, 100.0, res.GlobalScore)
	assert.Equal(t, 100.0, res.ConfidenceIndex)
	assert.Equal(t, 100.0, res.PrecisionIndex)
	assert.Equal(t, 1, res.TotalQuestions)
	assert.Equal(t, 1, res.TotalAttempted)
	assert.Equal(t, 1, res.TotalCorrect)
	assert.Equal(t, 0, res.TotalNSP)
}

func TestScore_AllNSPKeepsIndicesDefined(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("q1", "Algèbre", 1),
		mathsQuestion("q2", "Algèbre", 2),
		mathsQuestion("q3", "Analyse", 3),
	})

	res := Score([]AnswerSubmission{nsp("q1"), nsp("q2"), nsp("q3")}, cat, DefaultOptions())

	assert.Equal(t, 0.0, res.GlobalScore)
	assert.Equal(t, 0.0, res.ConfidenceIndex)
	assert.Equal(t, 0.0, res.PrecisionIndex, "precision over zero attempts is 0, not NaN")
	assert.Equal(t, 3, res.TotalNSP)
	assert.Equal(t, 0, res.TotalAttempted)
}

func TestScore_UnansweredQuestionsCountAsNSP(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("q1", "Algèbre", 1),
		mathsQuestion("q2", "Algèbre", 1),
		mathsQuestion("q3", "Analyse", 1),
	})

	// Only one question answered; the rest are silently skipped.
	res := Score([]AnswerSubmission{answer("q1", "a")}, cat, DefaultOptions())

	assert.Equal(t, 1, res.TotalAttempted)
	assert.Equal(t, 2, res.TotalNSP)
	assert.Equal(t, res.TotalQuestions, res.TotalAttempted+res.TotalNSP)
}

func TestScore_AttemptedPlusNSPInvariant(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("q1", "Algèbre", 1),
		mathsQuestion("q2", "Algèbre", 2),
		mathsQuestion("q3", "Analyse", 3),
		mathsQuestion("q4", "Analyse", 1),
	})

	submissions := [][]AnswerSubmission{
		nil,
		{answer("q1", "a")},
		{answer("q1", "b"), nsp("q2")},
		{answer("q1", "a"), answer("q2", "b"), answer("q3", "a"), nsp("q4")},
		{answer("ghost", "a"), answer("q1", "a")}, // stale id from an old bank
	}
	for i, subs := range submissions {
		res := Score(subs, cat, DefaultOptions())
		assert.Equal(t, res.TotalQuestions, res.TotalAttempted+res.TotalNSP, "case %d", i)
	}
}

func TestScore_NSPNeverPenalizedVersusError(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("q1", "Algèbre", 2),
		mathsQuestion("q2", "Algèbre", 2),
	})

	withNSP := Score([]AnswerSubmission{answer("q1", "a"), nsp("q2")}, cat, DefaultOptions())
	withError := Score([]AnswerSubmission{answer("q1", "a"), answer("q2", "b")}, cat, DefaultOptions())

	// Same weighted score either way: an NSP costs zero points, like an
	// error, but it is not a confusion.
	assert.Equal(t, withError.GlobalScore, withNSP.GlobalScore)
	assert.Equal(t, 100.0, withNSP.PrecisionIndex)
	assert.Equal(t, 50.0, withError.PrecisionIndex)
	assert.Less(t, withNSP.ConfidenceIndex, withError.ConfidenceIndex)
}

func TestScore_WeightedGroupScore(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("q1", "Algèbre", 1),
		mathsQuestion("q2", "Algèbre", 2),
		mathsQuestion("q3", "Algèbre", 3),
	})

	// Only the expert question is right: 3 of 6 weight points.
	res := Score([]AnswerSubmission{
		answer("q1", "b"), answer("q2", "b"), answer("q3", "a"),
	}, cat, DefaultOptions())

	assert.Equal(t, 50.0, res.GlobalScore)
	require.Len(t, res.CategoryScores, 1)
	assert.Equal(t, 3.0, res.CategoryScores[0].WeightedScore)
	assert.Equal(t, 6.0, res.CategoryScores[0].WeightedMax)
}

func TestScore_FragileBasesDetection(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("b1", "Calcul", 1),
		mathsQuestion("b2", "Calcul", 1),
		mathsQuestion("e1", "Calcul", 3),
		mathsQuestion("e2", "Calcul", 3),
	})

	// Both basics wrong, both expert right.
	res := Score([]AnswerSubmission{
		answer("b1", "x"), answer("b2", "x"),
		answer("e1", "a"), answer("e2", "a"),
	}, cat, DefaultOptions())

	require.Len(t, res.FragileBases, 1)
	flag := res.FragileBases[0]
	assert.Equal(t, "Calcul", flag.Category)
	assert.Equal(t, 2, flag.BasicsFailed)
	assert.Equal(t, 2, flag.ExpertPassed)
	assert.NotEmpty(t, flag.Message)

	require.Len(t, res.CategoryScores, 1)
	assert.Equal(t, TagBasesFragiles, res.CategoryScores[0].Tag)
	assert.Contains(t, res.Weaknesses, "Calcul")
}

func TestScore_NoFragileBasesWhenBasicsPass(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("b1", "Calcul", 1),
		mathsQuestion("b2", "Calcul", 1),
		mathsQuestion("e1", "Calcul", 3),
	})

	res := Score([]AnswerSubmission{
		answer("b1", "a"), answer("b2", "a"), answer("e1", "a"),
	}, cat, DefaultOptions())

	assert.Empty(t, res.FragileBases)
}

func TestScore_CategoryTags(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("m1", "Maîtrise", 1),
		mathsQuestion("m2", "Maîtrise", 1),
		mathsQuestion("d1", "Découverte", 1),
		mathsQuestion("d2", "Découverte", 1),
		mathsQuestion("d3", "Découverte", 1),
	})

	res := Score([]AnswerSubmission{
		answer("m1", "a"), answer("m2", "a"),
		nsp("d1"), nsp("d2"), nsp("d3"),
	}, cat, DefaultOptions())

	tags := map[string]Tag{}
	for _, cs := range res.CategoryScores {
		tags[cs.Category] = cs.Tag
	}
	assert.Equal(t, TagMaitrise, tags["Maîtrise"])
	assert.Equal(t, TagADecouvrir, tags["Découverte"], "nsp rate above 60 percent reads as untaught material")
	assert.Contains(t, res.Strengths, "Maîtrise")
}

func TestScore_CompetencyScores(t *testing.T) {
	q1 := mathsQuestion("q1", "Algèbre", 2)
	q1.Competence = catalog.CompetenceRestituer
	q2 := mathsQuestion("q2", "Algèbre", 2)
	q2.Competence = catalog.CompetenceRaisonner

	cat := mustCatalog(t, []catalog.Question{q1, q2})
	res := Score([]AnswerSubmission{answer("q1", "a"), answer("q2", "b")}, cat, DefaultOptions())

	assert.Equal(t, 100.0, res.CompetencyScores[string(catalog.CompetenceRestituer)])
	assert.Equal(t, 0.0, res.CompetencyScores[string(catalog.CompetenceRaisonner)])
}

func TestScore_NSIErrorBreakdown(t *testing.T) {
	mkNSI := func(id string, kind catalog.ErrorKind) catalog.Question {
		return catalog.Question{
			ID:              id,
			Subject:         stats.SubjectNSI,
			Category:        "Python",
			Competence:      catalog.CompetenceAppliquer,
			Weight:          2,
			CorrectOptionID: "a",
			ErrorKind:       kind,
		}
	}
	cat := mustCatalog(t, []catalog.Question{
		mkNSI("n1", catalog.ErrorSyntax),
		mkNSI("n2", catalog.ErrorLogic),
		mkNSI("n3", catalog.ErrorConceptual),
		mkNSI("n4", catalog.ErrorConceptual),
	})

	res := Score([]AnswerSubmission{
		answer("n1", "x"), // syntax error
		answer("n2", "a"), // correct, no error recorded
		answer("n3", "x"), // conceptual error
		nsp("n4"),         // nsp is not an error
	}, cat, DefaultOptions())

	require.NotNil(t, res.NSIErrors)
	assert.Equal(t, 1, res.NSIErrors.Syntax)
	assert.Equal(t, 0, res.NSIErrors.Logic)
	assert.Equal(t, 1, res.NSIErrors.Conceptual)
	assert.Equal(t, 2, res.NSIErrors.Total)
}

func TestScore_NoNSIErrorsForPureMathsBank(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{mathsQuestion("q1", "Algèbre", 1)})
	res := Score([]AnswerSubmission{answer("q1", "b")}, cat, DefaultOptions())
	assert.Nil(t, res.NSIErrors)
}

func TestScore_DiagnosticAndLucidityTexts(t *testing.T) {
	cat := mustCatalog(t, []catalog.Question{
		mathsQuestion("q1", "Algèbre", 1),
		mathsQuestion("q2", "Algèbre", 1),
	})

	res := Score([]AnswerSubmission{answer("q1", "a"), answer("q2", "a")}, cat, DefaultOptions())
	assert.NotEmpty(t, res.DiagnosticText)
	assert.NotEmpty(t, res.LucidityText)
	assert.Contains(t, res.DiagnosticText, "100/100")
}

func TestCategoryTagTable(t *testing.T) {
	cases := []struct {
		name                        string
		precision, confidence, nspR float64
		fragile                     bool
		want                        Tag
	}{
		{"fragile wins", 90, 90, 0, true, TagBasesFragiles},
		{"heavy nsp", 100, 30, 70, false, TagADecouvrir},
		{"moderate nsp", 100, 50, 50, false, TagNonAbordee},
		{"mastered", 85, 70, 10, false, TagMaitrise},
		{"progressing", 60, 50, 20, false, TagEnProgression},
		{"insufficient", 20, 40, 30, false, TagInsuffisant},
		{"confusions", 40, 30, 30, false, TagConfusions},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, categoryTag(c.precision, c.confidence, c.nspR, c.fragile))
		})
	}
}
