package certificate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/easeaico/truthlab/internal/types"
)

var (
	ErrNameRequired   = errors.New("name is required")
	ErrReservedName   = errors.New("name is reserved for the owner")
	ErrResultRequired = errors.New("result is required")
)

// IsValidation reports whether err blocks rendering but should only re-prompt.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNameRequired) || errors.Is(err, ErrReservedName) || errors.Is(err, ErrResultRequired)
}

// ValidateName trims name and rejects it when blank or when it contains the
// reserved token, ignoring case and whitespace.
func ValidateName(name, reserved string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrNameRequired
	}
	token := normalizeName(reserved)
	if token != "" && strings.Contains(normalizeName(trimmed), token) {
		return "", ErrReservedName
	}
	return trimmed, nil
}

func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// ValidationMessage is the re-prompt text for a validation failure, naming
// the configured owner when the name is reserved.
func (r *Renderer) ValidationMessage(err error, lang types.Language) string {
	return validationMessage(err, lang, r.cfg.Owner, r.cfg.ReservedToken)
}

func validationMessage(err error, lang types.Language, owner, reserved string) string {
	hi := lang != types.LanguageEnglish
	switch {
	case errors.Is(err, ErrNameRequired):
		if hi {
			return "Pehle apna naam toh likhein!"
		}
		return "Please enter your name."
	case errors.Is(err, ErrReservedName):
		if hi {
			return fmt.Sprintf("Bhai, %s wala naam sirf owner use kar sakta hai! Kuch aur likho.", owner)
		}
		return fmt.Sprintf("Sorry, the name '%s' is reserved for the owner only.", reservedWord(owner, reserved))
	case errors.Is(err, ErrResultRequired):
		if hi {
			return "Pehle scan mukammal karein."
		}
		return "Complete a scan first."
	default:
		return err.Error()
	}
}

// reservedWord is the word of owner that carries the reserved token, as the
// owner spells it. Falls back to the token itself.
func reservedWord(owner, reserved string) string {
	token := normalizeName(reserved)
	for _, word := range strings.Fields(owner) {
		if token != "" && strings.Contains(normalizeName(word), token) {
			return word
		}
	}
	if reserved != "" {
		return reserved
	}
	return owner
}

// Filename is the download name for a certificate issued to name.
func Filename(prefix, name string) string {
	return prefix + strings.Join(strings.Fields(name), "_") + ".png"
}
