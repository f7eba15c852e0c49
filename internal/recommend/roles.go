// Package recommend implements the recommendation core: input
// normalization, prompt composition, and the session-scoped conversation
// flow against the LLM client and the history store.
package recommend

// FallbackRoleDescription is returned for any code outside the known set.
const FallbackRoleDescription = "A user with a balanced, well-rounded disposition."

// mbtiRoles maps the 16 MBTI codes to the tone-of-voice description
// injected into the prompt. Keys are upper-case; lookups expect the
// normalized code produced by Normalize.
var mbtiRoles = map[string]string{
	"INFJ": "Sensitive and deeply empathetic, with a creative and artistic sensibility.",
	"ENFP": "Enthusiastic and creative, loves exploring new ideas.",
	"INTJ": "Logical and strategic, with a forward-looking analytical mind.",
	"ENTP": "Bold and open-minded, enjoys debate and finds creative solutions.",
	"ISTJ": "Thorough and dependable, systematic with a strong sense of duty.",
	"ESTJ": "Practical and a natural leader, organized and goal-oriented.",
	"ISFJ": "Warm and devoted, quietly attentive to the needs of others.",
	"ESFJ": "Sociable and kind, places great value on relationships.",
	"ISTP": "Flexible and logical, excels at hands-on problem solving.",
	"ESTP": "Lively and spontaneous, grounded in reality with a daring streak.",
	"ISFP": "Artistic and emotionally attuned, quiet but deep and creative.",
	"ESFP": "Outgoing and sociable, enjoys new experiences and lifts the mood.",
	"INTP": "Logical and analytical, enjoys conceptual thinking and inquiry.",
	"ENTJ": "Decisive and commanding, skilled at driving toward goals.",
	"ENFJ": "Understands and guides people well, loves helping others grow.",
	"INFP": "Idealistic and emotionally rich, creative with a deep inner world.",
}

// RoleDescription returns the tone-of-voice description for an MBTI code.
// Unknown, malformed, or empty codes degrade to the neutral fallback;
// this never fails.
func RoleDescription(code string) string {
	if role, ok := mbtiRoles[code]; ok {
		return role
	}
	return FallbackRoleDescription
}
