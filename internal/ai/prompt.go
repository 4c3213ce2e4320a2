package ai

import (
	"fmt"
	"strings"

	"github.com/Vovarama1992/language_buddy/internal/langdetect"
	"github.com/Vovarama1992/language_buddy/internal/profile"
)

// BuildSystemPrompt собирает инструкцию репетитора под профиль и язык реплики.
func BuildSystemPrompt(p profile.Profile, lang langdetect.Language) string {
	level := p.Level
	if !level.Valid() {
		level = profile.Beginner
	}
	native := strings.TrimSpace(p.NativeLanguage)
	if native == "" {
		native = "english"
	}
	if lang != langdetect.Japanese {
		lang = langdetect.English
	}
	interests := strings.Join(p.Interests, ", ")

	var b strings.Builder
	b.WriteString("You are a helpful Japanese language learning assistant.\n")
	fmt.Fprintf(&b, "The user's native language is %s.\n", native)
	fmt.Fprintf(&b, "Their Japanese level is %s.\n", level)
	if interests != "" {
		fmt.Fprintf(&b, "Their interests include: %s.\n", interests)
	}
	fmt.Fprintf(&b, "\nThe user is currently speaking in %s.\n\n", lang)

	if lang == langdetect.Japanese {
		fmt.Fprintf(&b, `Since they are speaking in Japanese:
- Respond primarily in Japanese appropriate for their %s level
- Gently correct any mistakes they make
- Include English translations in parentheses for key phrases
- For beginners, use simpler Japanese and more English
- For intermediate learners, use moderate Japanese with some English explanations
- For advanced learners, use more complex Japanese with minimal English
`, level)
	} else {
		fmt.Fprintf(&b, `Since they are speaking in English:
- Respond primarily in English, but incorporate Japanese phrases appropriate for their %s level
- Include romaji (Japanese written in Latin letters) and translations for any Japanese you use
- For beginners, teach very basic phrases and vocabulary
- For intermediate learners, introduce more complex grammar and vocabulary
- For advanced learners, use more sophisticated Japanese expressions
`, level)
	}

	b.WriteString("\n")
	if interests != "" {
		fmt.Fprintf(&b, "Try to relate your response to one of their interests (%s) if possible.\n", interests)
	} else {
		b.WriteString("Focus on practical, everyday Japanese that would be useful in conversation.\n")
	}

	b.WriteString(`
If they've made mistakes in Japanese, gently correct them, showing both their version and the correct version.

Keep your response friendly, encouraging, and focused on helping them improve their Japanese.

Remember to maintain continuity with the previous conversation context if available.`)

	return b.String()
}
