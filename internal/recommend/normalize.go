package recommend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultQuestion is substituted when a request carries no question.
const DefaultQuestion = "recommend something to me."

// DefaultSessionID scopes requests that don't name a session.
const DefaultSessionID = "default_session"

// RawRequest mirrors the inbound JSON body. Every field is optional;
// Normalize turns whatever arrived into a fully populated CanonicalRequest.
type RawRequest struct {
	Question  string            `json:"question"`
	SessionID string            `json:"session_id"`
	UserInfo  *RawUserInfo      `json:"user_info"`
	GPTMBTI   *RawMBTI          `json:"gpt_mbti"`
	Fortune   *RawFortune       `json:"fortune"`
	VSData    PreferenceChoices `json:"vs_data"`
}

// RawUserInfo carries the caller-provided profile fields.
type RawUserInfo struct {
	Birth  string `json:"birth"`
	Gender string `json:"gender"`
}

// RawMBTI carries the caller-provided personality code.
type RawMBTI struct {
	MBTI string `json:"MBTI"`
}

// RawFortune carries the caller-provided fortune readings.
type RawFortune struct {
	Daily string `json:"daily"`
	Saju  string `json:"saju"`
}

// PreferenceChoice is one answered forced-choice pair: the full two-option
// label (e.g. "coffee_vs_tea") and the option the user picked.
type PreferenceChoice struct {
	Label  string
	Choice string
}

// PreferenceChoices decodes a JSON object of "<a>_vs_<b>": "<chosen>"
// entries while preserving the document order of the keys. A plain
// map[string]string would lose the order, and the prompt summary must
// list pairs in the order the caller sent them.
type PreferenceChoices []PreferenceChoice

// UnmarshalJSON implements ordered decoding of the vs_data object.
func (p *PreferenceChoices) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("vs_data must be a JSON object, got %v", tok)
	}

	choices := PreferenceChoices{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected vs_data key token %v", keyTok)
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("vs_data value for %q must be a string: %w", key, err)
		}

		choices = append(choices, PreferenceChoice{Label: key, Choice: value})
	}

	*p = choices
	return nil
}

// MarshalJSON renders the pairs back as a JSON object in stored order.
func (p PreferenceChoices) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, choice := range p {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(choice.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(choice.Choice)
		if err != nil {
			return nil, err
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(value)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// CanonicalRequest is the fully populated internal record built from a
// RawRequest. After Normalize no field is ever absent: string fields may be
// empty (the prompt composer renders markers for those) and Question always
// carries either the caller's question or the default.
type CanonicalRequest struct {
	Birth        string
	Gender       string
	MBTI         string
	FortuneDaily string
	FortuneSaju  string
	Preferences  PreferenceChoices
	Question     string
}

// Normalize converts a loosely structured request into a canonical record.
// It is pure and never fails: missing sections become empty values, the MBTI
// code is upper-cased, and a missing question gets the default. Malformed
// input degrades to defaults rather than erroring.
func Normalize(raw RawRequest) CanonicalRequest {
	req := CanonicalRequest{
		Question:    strings.TrimSpace(raw.Question),
		Preferences: raw.VSData,
	}

	if raw.UserInfo != nil {
		req.Birth = raw.UserInfo.Birth
		req.Gender = raw.UserInfo.Gender
	}
	if raw.GPTMBTI != nil {
		req.MBTI = strings.ToUpper(raw.GPTMBTI.MBTI)
	}
	if raw.Fortune != nil {
		req.FortuneDaily = raw.Fortune.Daily
		req.FortuneSaju = raw.Fortune.Saju
	}
	if req.Question == "" {
		req.Question = DefaultQuestion
	}

	return req
}

// SessionIDOrDefault returns the session identifier for a raw request,
// falling back to the default session when the caller didn't provide one.
func (r RawRequest) SessionIDOrDefault() string {
	if strings.TrimSpace(r.SessionID) == "" {
		return DefaultSessionID
	}
	return r.SessionID
}
