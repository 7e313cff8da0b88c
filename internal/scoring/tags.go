package scoring

import (
	"fmt"
	"strings"
)

// Tag is the automatic diagnostic label attached to a category.
type Tag string

const (
	TagMaitrise      Tag = "Maîtrisé"
	TagEnProgression Tag = "En progression"
	TagBasesFragiles Tag = "Bases Fragiles"
	TagConfusions    Tag = "Confusions"
	TagNonAbordee    Tag = "Notion non abordée"
	TagADecouvrir    Tag = "À découvrir"
	TagInsuffisant   Tag = "Insuffisant"
)

// categoryTag derives the diagnostic tag from a category's precision,
// confidence and NSP rate (all 0-100). The fragile-bases pattern takes
// precedence over everything else.
func categoryTag(precision, confidence, nspRate float64, fragileBases bool) Tag {
	switch {
	case fragileBases:
		return TagBasesFragiles
	case nspRate > 60:
		return TagADecouvrir
	case nspRate > 40:
		return TagNonAbordee
	case precision >= 80 && confidence >= 60:
		return TagMaitrise
	case precision >= 50 && confidence >= 40:
		return TagEnProgression
	case precision < 30 && confidence > 30:
		return TagInsuffisant
	default:
		return TagConfusions
	}
}

func fragileBasesMessage(category string) string {
	return fmt.Sprintf("%s : réussit les questions expertes mais échoue sur les bases — automatismes à consolider", category)
}

// lucidityText assesses how well the student's willingness to answer lines
// up with their accuracy when they do.
func lucidityText(confidenceIndex, precisionIndex float64) string {
	switch {
	case confidenceIndex >= 80 && precisionIndex >= 70:
		return "L'élève fait preuve d'assurance et de maîtrise — profil solide."
	case confidenceIndex >= 80 && precisionIndex < 50:
		return "L'élève tente beaucoup mais commet de nombreuses erreurs — fausses représentations à corriger."
	case confidenceIndex < 40 && precisionIndex >= 70:
		return "L'élève fait preuve d'une grande lucidité sur ses lacunes — ce qu'il tente, il le réussit."
	case confidenceIndex < 40 && precisionIndex < 50:
		return "L'élève hésite beaucoup et commet des erreurs — accompagnement prioritaire nécessaire."
	case confidenceIndex < 60:
		return "L'élève identifie ses zones d'incertitude — lucidité partielle, à approfondir en séance."
	default:
		return "Profil intermédiaire — des acquis solides mais des zones de fragilité à cibler."
	}
}

// diagnosticText builds the short human-readable summary shown on reports.
func diagnosticText(globalScore, confidenceIndex float64, strengths, weaknesses []string, fragile []FragileBasesFlag) string {
	var parts []string

	switch {
	case globalScore >= 75:
		parts = append(parts, fmt.Sprintf("Score global de %.0f/100 — niveau solide.", globalScore))
	case globalScore >= 50:
		parts = append(parts, fmt.Sprintf("Score global de %.0f/100 — niveau intermédiaire, des axes de progression identifiés.", globalScore))
	default:
		parts = append(parts, fmt.Sprintf("Score global de %.0f/100 — des lacunes significatives à combler.", globalScore))
	}

	if confidenceIndex < 50 {
		parts = append(parts, fmt.Sprintf("Indice de confiance faible (%.0f%%) — l'élève a préféré ne pas répondre à de nombreuses questions.", confidenceIndex))
	}
	if len(strengths) > 0 {
		parts = append(parts, "Points forts : "+strings.Join(strengths, ", ")+".")
	}
	if len(weaknesses) > 0 {
		parts = append(parts, "Points faibles : "+strings.Join(weaknesses, ", ")+".")
	}
	if len(fragile) > 0 {
		msgs := make([]string, len(fragile))
		for i, f := range fragile {
			msgs[i] = f.Message
		}
		parts = append(parts, "Attention : "+strings.Join(msgs, " | "))
	}

	return strings.Join(parts, " ")
}
