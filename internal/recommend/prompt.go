package recommend

import (
	"fmt"
	"strings"
)

// Markers substituted for missing data. Sections are always rendered;
// only the field value degrades to a marker.
const (
	markerNotProvided   = "not provided"
	markerNoFortuneData = "no fortune data"
	markerNoSajuData    = "no saju data"
	markerNoPreferences = "no preference data"
	preferenceSeparator = "_vs_"
)

// ComposePrompt renders the system instruction block for a canonical
// request. The section set and ordering are fixed: user info, assistant
// role, daily fortune, saju analysis, preferences, question, closing
// instructions. Pure string construction over already-defaulted fields;
// there are no failure modes.
func ComposePrompt(req CanonicalRequest) string {
	role := RoleDescription(req.MBTI)
	tasteSummary := SummarizePreferences(req.Preferences)

	birth := req.Birth
	if birth == "" {
		birth = markerNotProvided
	}
	gender := req.Gender
	if gender == "" {
		gender = markerNotProvided
	}
	daily := req.FortuneDaily
	if daily == "" {
		daily = markerNoFortuneData
	}
	saju := req.FortuneSaju
	if saju == "" {
		saju = markerNoSajuData
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**User Info**: %s, %s\n", birth, gender)
	fmt.Fprintf(&sb, "**Assistant Role**: %s\n", role)
	fmt.Fprintf(&sb, "**Today's Fortune**: %s\n", daily)
	fmt.Fprintf(&sb, "**Saju Analysis**: %s\n", saju)
	fmt.Fprintf(&sb, "**User Preferences**: %s\n", tasteSummary)
	fmt.Fprintf(&sb, "**Question**: %s\n\n", req.Question)
	sb.WriteString(
		"Based on the information above, blend the fortune, saju analysis, and the user's preferences into the best possible recommendation.\n" +
			"Answer in a natural tone of voice that reflects the assistant role's MBTI characteristics.\n" +
			"Rather than following the stated preferences literally, favor flexible and creative options that suit the fortune and the situation.")

	return sb.String()
}

// SummarizePreferences renders the preference pairs as "<first option>:
// <chosen>, ..." in input order. The label's text before the "_vs_"
// separator names the pair; an empty set yields the no-data marker.
func SummarizePreferences(prefs PreferenceChoices) string {
	if len(prefs) == 0 {
		return markerNoPreferences
	}

	parts := make([]string, 0, len(prefs))
	for _, pref := range prefs {
		name, _, _ := strings.Cut(pref.Label, preferenceSeparator)
		parts = append(parts, fmt.Sprintf("%s: %s", name, pref.Choice))
	}
	return strings.Join(parts, ", ")
}
