// Package artifact holds the governed-artifact domain: the record shape,
// submission validation, pending-name reconciliation, and the lifecycle
// state machine shared by every console surface.
package artifact

import (
	"encoding/json"
	"strings"
	"time"
)

type Kind string

const (
	KindContract Kind = "CONTRACT"
	KindRuleset  Kind = "RULESET"
)

type State string

const (
	StatePending  State = "PENDING"
	StateActive   State = "ACTIVE"
	StateRejected State = "REJECTED"
)

// DefaultVersion is stamped on submissions that omit a version.
const DefaultVersion = "v1"

// ParseKind accepts the URL-facing plural forms alongside the enum values.
func ParseKind(raw string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CONTRACT", "CONTRACTS", "DATA_CONTRACT", "DATA_CONTRACTS":
		return KindContract, true
	case "RULESET", "RULESETS":
		return KindRuleset, true
	}
	return "", false
}

// ParseState accepts the legacy ARCHIVED alias, which older data-contract
// records used interchangeably with REJECTED.
func ParseState(raw string) (State, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING":
		return StatePending, true
	case "ACTIVE":
		return StateActive, true
	case "REJECTED", "ARCHIVED":
		return StateRejected, true
	}
	return "", false
}

type Rule struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Condition string `json:"condition"`
}

// Content is a tagged variant: exactly one of Rules or Raw is set. Structured
// content carries parsed rules; Raw carries YAML-shaped text that passed the
// syntactic check but is not parsed into rule records.
type Content struct {
	Rules []Rule
	Raw   string
}

func StructuredContent(rules []Rule) Content { return Content{Rules: rules} }

func RawContent(text string) Content { return Content{Raw: text} }

func (c Content) IsStructured() bool { return c.Rules != nil }

// MarshalJSON emits exactly one variant key, so structured content with zero
// rules stays distinguishable from raw text across store round-trips.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsStructured() {
		return json.Marshal(map[string][]Rule{"rules": c.Rules})
	}
	return json.Marshal(map[string]string{"raw": c.Raw})
}

func (c *Content) UnmarshalJSON(b []byte) error {
	var doc struct {
		Rules *[]Rule `json:"rules"`
		Raw   string  `json:"raw"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if doc.Rules != nil {
		rules := *doc.Rules
		if rules == nil {
			rules = []Rule{}
		}
		*c = Content{Rules: rules}
		return nil
	}
	*c = Content{Raw: doc.Raw}
	return nil
}

// Text renders the content back into submission text, so stored artifacts
// can be pushed through validation again.
func (c Content) Text() string {
	if c.IsStructured() {
		b, _ := json.Marshal(map[string][]Rule{"rules": c.Rules})
		return string(b)
	}
	return c.Raw
}

type Artifact struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Name       string     `json:"name"`
	Version    string     `json:"version"`
	State      State      `json:"state"`
	Content    Content    `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	Rev        int64      `json:"rev"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy string     `json:"approved_by,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
	RejectedBy string     `json:"rejected_by,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// NormalizeName is the matching key for pending-state deduplication: names
// compare case-insensitively with surrounding whitespace trimmed.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Clone deep-copies the artifact so store snapshots cannot alias rule slices.
func (a Artifact) Clone() Artifact {
	out := a
	if a.Content.Rules != nil {
		out.Content.Rules = append([]Rule(nil), a.Content.Rules...)
	}
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		out.ApprovedAt = &t
	}
	if a.RejectedAt != nil {
		t := *a.RejectedAt
		out.RejectedAt = &t
	}
	return out
}
