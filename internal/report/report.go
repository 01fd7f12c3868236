// Package report turns client error reports into Desk365 tickets.
package report

import (
	"encoding/json"
	"strings"
)

// DefaultEmail is used when no identity can be resolved for the reporter.
const DefaultEmail = "noreply@mobilityp.com"

// ErrorReport holds the fields submitted by the browser client. All fields
// are optional.
type ErrorReport struct {
	Context    string
	Doctype    string
	Title      string
	Docname    string
	ReportName string
	PageLink   string
	Message    string
	Traceback  string
	User       string
	Domain     string
	Screenshot string

	// SessionUser is the caller's session identity, if any.
	SessionUser string
}

// Identity is who reported the error: an Email taken from a structured user
// object, or a Raw identifier.
type Identity interface {
	Address() string
	isIdentity()
}

type Email string

type Raw string

func (e Email) Address() string { return orDefaultEmail(string(e)) }
func (r Raw) Address() string   { return orDefaultEmail(string(r)) }

func (Email) isIdentity() {}
func (Raw) isIdentity()   {}

func orDefaultEmail(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultEmail
	}
	return s
}

// ParseIdentity resolves the user parameter. An empty user falls back to the
// session identity. A JSON object yields its "email" field, a JSON string its
// value; anything else is kept as a raw identifier.
func ParseIdentity(user, sessionUser string) Identity {
	user = strings.TrimSpace(user)
	if user == "" {
		return Raw(sessionUser)
	}

	var v any
	if err := json.Unmarshal([]byte(user), &v); err != nil {
		return Raw(user)
	}
	switch t := v.(type) {
	case map[string]any:
		email, _ := t["email"].(string)
		return Email(email)
	case string:
		return Raw(t)
	case nil:
		return Raw("")
	default:
		return Raw(user)
	}
}

// Traceback is either a Single string or a Sequence of frames as sent by the
// client's exception list.
type Traceback interface {
	Text() string
	isTraceback()
}

type Single string

// Sequence is never empty.
type Sequence []string

func (s Single) Text() string   { return string(s) }
func (s Sequence) Text() string { return s[0] }

func (Single) isTraceback()   {}
func (Sequence) isTraceback() {}

// ParseTraceback decodes a JSON list into a Sequence. Any other input,
// including an empty list or malformed JSON, is kept verbatim.
func ParseTraceback(raw string) Traceback {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil || len(items) == 0 {
		return Single(raw)
	}

	frames := make(Sequence, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			frames = append(frames, s)
			continue
		}
		frames = append(frames, string(item))
	}
	return frames
}
