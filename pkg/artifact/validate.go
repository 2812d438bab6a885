package artifact

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	yamlKeyValueRe = regexp.MustCompile(`(?m)^\s*[\w.-]+\s*:\s*\S+`)
	yamlListItemRe = regexp.MustCompile(`(?m)^\s*-\s+\S+`)
	yamlRulesRe    = regexp.MustCompile(`(?m)^\s*rules\s*:`)
)

// Issue is a field-level validation finding, reported the way the console
// surfaces it: one entry per offending field, never a combined message.
type Issue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ContentVerdict string

const (
	// ContentStructured: valid JSON with a well-formed rules array.
	ContentStructured ContentVerdict = "STRUCTURED"
	// ContentRawYAML: not JSON, but YAML-shaped with a rules: section.
	// Kept as raw text; the console does not parse YAML into rule records.
	ContentRawYAML ContentVerdict = "RAW_YAML"
	ContentInvalid ContentVerdict = "INVALID"
)

type ContentResult struct {
	Verdict ContentVerdict
	Rules   []Rule
	Raw     string
}

func (r ContentResult) Valid() bool { return r.Verdict != ContentInvalid }

// ToContent maps the verdict onto the tagged content variant. Invalid
// submissions fall back to raw text so the rejected record keeps what was
// actually submitted.
func (r ContentResult) ToContent() Content {
	if r.Verdict == ContentStructured {
		return StructuredContent(r.Rules)
	}
	return RawContent(r.Raw)
}

// ValidateSubmission classifies an upload. Pure function of its inputs.
//
// Name validation is independent of content validation: a blank name and bad
// content both report, each against its own field. Issue order fixes the
// rejection reason precedence: name-required, content-required, structural
// rule-field errors, format error.
func ValidateSubmission(name, content string) (ContentResult, []Issue) {
	var issues []Issue
	if strings.TrimSpace(name) == "" {
		issues = append(issues, Issue{Path: "name", Code: "REQUIRED", Message: "name is required"})
	}
	res, contentIssues := validateContent(content)
	issues = append(issues, contentIssues...)
	return res, issues
}

func validateContent(content string) (ContentResult, []Issue) {
	if strings.TrimSpace(content) == "" {
		return ContentResult{Verdict: ContentInvalid},
			[]Issue{{Path: "content", Code: "REQUIRED", Message: "content is required"}}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &doc); err == nil {
		return validateStructured(content, doc)
	}
	// Not a JSON object. A top-level JSON array or scalar parses, but can
	// never carry a rules key, so it falls through to the YAML check too.
	if json.Valid([]byte(content)) {
		return ContentResult{Verdict: ContentInvalid, Raw: content},
			[]Issue{{Path: "content.rules", Code: "REQUIRED", Message: "rules array is required"}}
	}

	if looksLikeYAML(content) {
		if !yamlRulesRe.MatchString(content) {
			return ContentResult{Verdict: ContentInvalid, Raw: content},
				[]Issue{{Path: "content", Code: "FORMAT_INVALID", Message: "yaml content must declare a rules: section"}}
		}
		return ContentResult{Verdict: ContentRawYAML, Raw: content}, nil
	}
	return ContentResult{Verdict: ContentInvalid, Raw: content},
		[]Issue{{Path: "content", Code: "FORMAT_INVALID", Message: "content is neither valid JSON nor YAML-shaped"}}
}

func validateStructured(content string, doc map[string]json.RawMessage) (ContentResult, []Issue) {
	rawRules, ok := doc["rules"]
	if !ok {
		return ContentResult{Verdict: ContentInvalid, Raw: content},
			[]Issue{{Path: "content.rules", Code: "REQUIRED", Message: "rules array is required"}}
	}
	var rules []Rule
	if err := json.Unmarshal(rawRules, &rules); err != nil || string(rawRules) == "null" {
		return ContentResult{Verdict: ContentInvalid, Raw: content},
			[]Issue{{Path: "content.rules", Code: "TYPE_INVALID", Message: "rules must be an array of rule records"}}
	}

	var issues []Issue
	for i, r := range rules {
		path := fmt.Sprintf("content.rules[%d]", i)
		if strings.TrimSpace(r.ID) == "" {
			issues = append(issues, Issue{Path: path + ".id", Code: "REQUIRED", Message: fmt.Sprintf("rule %d is missing id", i)})
		}
		if strings.TrimSpace(r.Name) == "" {
			issues = append(issues, Issue{Path: path + ".name", Code: "REQUIRED", Message: fmt.Sprintf("rule %d is missing name", i)})
		}
		if strings.TrimSpace(r.Condition) == "" {
			issues = append(issues, Issue{Path: path + ".condition", Code: "REQUIRED", Message: fmt.Sprintf("rule %d is missing condition", i)})
		}
	}
	if len(issues) > 0 {
		return ContentResult{Verdict: ContentInvalid, Raw: content}, issues
	}
	if rules == nil {
		rules = []Rule{}
	}
	return ContentResult{Verdict: ContentStructured, Rules: rules}, nil
}

func looksLikeYAML(content string) bool {
	return yamlKeyValueRe.MatchString(content) || yamlListItemRe.MatchString(content)
}
