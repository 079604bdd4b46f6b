package synth

// DefaultLanguage is used when the caller supplies no language code.
const DefaultLanguage = "es"

// voiceTable maps supported language codes to neural voice identifiers.
// Fixed configuration data, not caller-extensible.
var voiceTable = map[string]string{
	"es": "es-PE-CamilaNeural",
	"en": "en-US-JennyNeural",
	"fr": "fr-FR-DeniseNeural",
	"pt": "pt-BR-FranciscaNeural",
	"de": "de-DE-KatjaNeural",
}

// VoiceFor resolves a language code to a voice identifier. Unmapped
// codes fall back to the default language's voice.
func VoiceFor(language string) string {
	if voice, ok := voiceTable[language]; ok {
		return voice
	}
	return voiceTable[DefaultLanguage]
}

// Languages returns the supported language codes.
func Languages() []string {
	out := make([]string, 0, len(voiceTable))
	for lang := range voiceTable {
		out = append(out, lang)
	}
	return out
}
