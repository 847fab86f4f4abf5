package types

// Language selects prompt wording and display strings.
type Language string

const (
	// LanguageHindi renders everything in Roman Urdu (Urdu written in English script).
	LanguageHindi Language = "hi"
	// LanguageEnglish renders everything in English.
	LanguageEnglish Language = "en"
)

// ParseLanguage maps a raw tag to a Language, falling back to LanguageHindi.
func ParseLanguage(tag string) Language {
	if Language(tag) == LanguageEnglish {
		return LanguageEnglish
	}
	return LanguageHindi
}

// Valid reports whether l is one of the supported tags.
func (l Language) Valid() bool {
	return l == LanguageHindi || l == LanguageEnglish
}

// AppState is the top-level screen of a session.
type AppState string

const (
	StateInitial   AppState = "INITIAL"
	StateAnalyzing AppState = "ANALYZING"
	StateResult    AppState = "RESULT"
	StateError     AppState = "ERROR"
)

// AnalysisRequest is built once per capture.
type AnalysisRequest struct {
	// Image is the base64 encoded JPEG frame.
	Image    string   `json:"image"`
	Language Language `json:"lang"`
}

// PersonalityRecord is the structured part returned by the remote capability.
type PersonalityRecord struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ReportDescription string   `json:"reportDescription"`
	DarkLine          string   `json:"darkLine"`
	Traits            []string `json:"traits"`
	Weaknesses        []string `json:"weaknesses"`
}

// PersonalityResult is a finalized record with client-side fields attached.
type PersonalityResult struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ReportDescription string   `json:"reportDescription"`
	DarkLine          string   `json:"darkLine"`
	Traits            []string `json:"traits"`
	Weaknesses        []string `json:"weaknesses"`
	Color             string   `json:"color"`
	ShareHook         string   `json:"shareHook"`
}
