package capture

import "github.com/easeaico/truthlab/internal/types"

var dramaticMessages = map[types.Language][]string{
	types.LanguageHindi: {
		"Chehra Scan Kiya Ja Raha Hai...",
		"Aapki Soch Samjhi Ja Rahi Hai...",
		"Dil Ki Gehraiyon Tak Jaate Hue...",
		"Aankhon Se Raaz Nikale Ja Rahe Hain...",
		"Asli Fitrat Ka Pata Lagaya Ja Raha Hai...",
		"Mazi Ki Yaadon Ko Scan Kiya Ja Raha Hai...",
		"Aapka Sabse Bada Raaz Mil Gaya...",
		"Official Report Tayyar Ho Rahi Hai...",
		"Akhri Analysis Ho Rahi Hai...",
		"Bas Ek Second Aur...",
	},
	types.LanguageEnglish: {
		"Scanning Facial Patterns...",
		"Decoding Emotional Intelligence...",
		"Accessing Hidden Subconscious...",
		"Mapping Micro-Expressions...",
		"Analyzing True Character Traits...",
		"Retrieving Deep Memories...",
		"Core Secret Identified...",
		"Preparing Official Certificate...",
		"Final Logic Processing...",
		"Just One More Moment...",
	},
}

// Messages returns the display strings cycled during a scan.
func Messages(lang types.Language) []string {
	if msgs, ok := dramaticMessages[lang]; ok {
		return msgs
	}
	return dramaticMessages[types.LanguageHindi]
}
