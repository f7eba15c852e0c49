package recommend

import "testing"

// TestRoleDescription verifies the known-code lookups and the graceful
// fallback for everything else.
func TestRoleDescription(t *testing.T) {
	t.Parallel()

	type roleTestCase struct {
		name         string
		code         string
		wantFallback bool
	}

	testGroups := map[string][]roleTestCase{
		"Known Codes": {
			{name: "INFJ", code: "INFJ"},
			{name: "ENFP", code: "ENFP"},
			{name: "INTJ", code: "INTJ"},
			{name: "ESFP", code: "ESFP"},
			{name: "ISTP", code: "ISTP"},
		},
		"Unknown Codes": {
			{name: "empty string", code: "", wantFallback: true},
			{name: "lower case before normalization", code: "infj", wantFallback: true},
			{name: "arbitrary string", code: "WXYZ", wantFallback: true},
			{name: "too long", code: "INFJX", wantFallback: true},
			{name: "whitespace", code: " INFJ", wantFallback: true},
		},
	}

	for groupName, cases := range testGroups {
		t.Run(groupName, func(t *testing.T) {
			t.Parallel()
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					t.Parallel()
					got := RoleDescription(tc.code)
					if got == "" {
						t.Fatalf("RoleDescription(%q) returned empty string", tc.code)
					}
					if tc.wantFallback && got != FallbackRoleDescription {
						t.Errorf("RoleDescription(%q) = %q, want fallback %q", tc.code, got, FallbackRoleDescription)
					}
					if !tc.wantFallback && got == FallbackRoleDescription {
						t.Errorf("RoleDescription(%q) returned the fallback, want a curated description", tc.code)
					}
				})
			}
		})
	}
}

// TestRoleTableCoversAllTypes ensures every one of the 16 MBTI codes has a
// distinct curated description.
func TestRoleTableCoversAllTypes(t *testing.T) {
	t.Parallel()

	codes := []string{
		"INFJ", "ENFP", "INTJ", "ENTP", "ISTJ", "ESTJ", "ISFJ", "ESFJ",
		"ISTP", "ESTP", "ISFP", "ESFP", "INTP", "ENTJ", "ENFJ", "INFP",
	}

	seen := make(map[string]string, len(codes))
	for _, code := range codes {
		desc := RoleDescription(code)
		if desc == FallbackRoleDescription {
			t.Errorf("code %s has no curated description", code)
		}
		if prev, dup := seen[desc]; dup {
			t.Errorf("codes %s and %s share the description %q", prev, code, desc)
		}
		seen[desc] = code
	}
}
