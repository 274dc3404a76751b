package model

import "fmt"

// Language is the editor language tag of a session
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageGo         Language = "go"
	LanguageRust       Language = "rust"
)

// DefaultLanguage is used when a session is created without one
const DefaultLanguage = LanguageJavaScript

// SupportedLanguages lists every accepted language in display order
var SupportedLanguages = []Language{
	LanguageJavaScript,
	LanguageTypeScript,
	LanguagePython,
	LanguageJava,
	LanguageCPP,
	LanguageCSharp,
	LanguageGo,
	LanguageRust,
}

// Valid reports whether l is one of SupportedLanguages
func (l Language) Valid() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// ParseLanguage validates s. An empty string yields DefaultLanguage.
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return DefaultLanguage, nil
	}
	l := Language(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, s)
	}
	return l, nil
}
