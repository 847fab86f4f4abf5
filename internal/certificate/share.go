package certificate

import (
	"fmt"

	"github.com/easeaico/truthlab/internal/types"
)

// ShareText is the copy-link message for result.
func ShareText(result types.PersonalityResult, lang types.Language, url string) string {
	if lang == types.LanguageEnglish {
		return fmt.Sprintf("🔥 My 'The Truth' Result: %s! \nCheck it out: %s", result.Title, url)
	}
	return fmt.Sprintf("🔥 Mera result: %s! \nCheck karein: %s", result.Title, url)
}
