// Package prompt builds the language-specific instructions for face analysis.
package prompt

import (
	"bytes"
	"fmt"

	"github.com/easeaico/truthlab/internal/types"
)

// Counts is the number of traits and weaknesses requested per language.
type Counts struct {
	Traits     int
	Weaknesses int
}

// CountsFor returns the list sizes requested from the model.
func CountsFor(lang types.Language) Counts {
	if lang == types.LanguageEnglish {
		return Counts{Traits: 5, Weaknesses: 4}
	}
	return Counts{Traits: 3, Weaknesses: 2}
}

// SystemInstruction renders the system prompt for lang.
func SystemInstruction(lang types.Language) (string, error) {
	tmpl := hindiInstruction
	if lang == types.LanguageEnglish {
		tmpl = englishInstruction
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, CountsFor(lang)); err != nil {
		return "", fmt.Errorf("failed to build instruction: %w", err)
	}
	return buf.String(), nil
}

// UserText accompanies the image in the user turn.
func UserText(lang types.Language) string {
	if lang == types.LanguageEnglish {
		return "Analyze this person's character based on biometric facial markers. Be detailed and honest about both good and bad traits."
	}
	return "Analyze this face for the Sachi Baat platform. Be detailed and honest about both good and bad traits."
}

// ShareHook is the share prompt attached to every result.
func ShareHook(lang types.Language) string {
	if lang == types.LanguageEnglish {
		return "See my real, unfiltered truth!"
	}
	return "Mera asli aur kadwa sach dekho!"
}
