package artifact

import (
	"strings"
	"testing"
)

func TestValidateSubmission_StructuredJSON(t *testing.T) {
	res, issues := ValidateSubmission("R1", `{"rules":[{"id":"r1","name":"n","condition":"c"}]}`)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if res.Verdict != ContentStructured {
		t.Fatalf("expected STRUCTURED, got %s", res.Verdict)
	}
	if len(res.Rules) != 1 || res.Rules[0].ID != "r1" {
		t.Fatalf("unexpected rules: %+v", res.Rules)
	}
}

func TestValidateSubmission_MissingRuleFields(t *testing.T) {
	res, issues := ValidateSubmission("R1", `{"rules":[{"id":"r1"}]}`)
	if res.Verdict != ContentInvalid {
		t.Fatalf("expected INVALID, got %s", res.Verdict)
	}
	if len(issues) != 2 {
		t.Fatalf("expected name and condition issues, got %v", issues)
	}
	assertIssue(t, issues, "content.rules[0].name", "REQUIRED")
	assertIssue(t, issues, "content.rules[0].condition", "REQUIRED")
}

func TestValidateSubmission_MissingRulesKey(t *testing.T) {
	res, issues := ValidateSubmission("R1", `{"other":true}`)
	if res.Verdict != ContentInvalid {
		t.Fatalf("expected INVALID, got %s", res.Verdict)
	}
	assertIssue(t, issues, "content.rules", "REQUIRED")
}

func TestValidateSubmission_RulesNotArray(t *testing.T) {
	res, issues := ValidateSubmission("R1", `{"rules":{"id":"r1"}}`)
	if res.Verdict != ContentInvalid {
		t.Fatalf("expected INVALID, got %s", res.Verdict)
	}
	assertIssue(t, issues, "content.rules", "TYPE_INVALID")
}

func TestValidateSubmission_YAMLShaped(t *testing.T) {
	res, issues := ValidateSubmission("R1", "rules:\n  - id: r1\n    name: n\n    condition: c")
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if res.Verdict != ContentRawYAML {
		t.Fatalf("expected RAW_YAML, got %s", res.Verdict)
	}
	if !strings.Contains(res.Raw, "rules:") {
		t.Fatalf("raw content not preserved: %q", res.Raw)
	}
	if res.ToContent().IsStructured() {
		t.Fatalf("yaml-shaped content must stay raw")
	}
}

func TestValidateSubmission_YAMLWithoutRulesSection(t *testing.T) {
	res, issues := ValidateSubmission("R1", "key: value\nother: thing")
	if res.Verdict != ContentInvalid {
		t.Fatalf("expected INVALID, got %s", res.Verdict)
	}
	assertIssue(t, issues, "content", "FORMAT_INVALID")
}

func TestValidateSubmission_NeitherJSONNorYAML(t *testing.T) {
	res, issues := ValidateSubmission("R1", "not json, not yaml")
	if res.Verdict != ContentInvalid {
		t.Fatalf("expected INVALID, got %s", res.Verdict)
	}
	assertIssue(t, issues, "content", "FORMAT_INVALID")
}

func TestValidateSubmission_BlankContent(t *testing.T) {
	res, issues := ValidateSubmission("R1", "   ")
	if res.Verdict != ContentInvalid {
		t.Fatalf("expected INVALID, got %s", res.Verdict)
	}
	if len(issues) != 1 || issues[0].Code != "REQUIRED" || issues[0].Path != "content" {
		t.Fatalf("expected content/REQUIRED, got %v", issues)
	}
}

func TestValidateSubmission_BlankNameReportsSeparately(t *testing.T) {
	// Both failures apply at once and each lands on its own field.
	_, issues := ValidateSubmission("  ", "")
	if len(issues) != 2 {
		t.Fatalf("expected two issues, got %v", issues)
	}
	if issues[0].Path != "name" {
		t.Fatalf("name issue must come first, got %v", issues)
	}
	assertIssue(t, issues, "name", "REQUIRED")
	assertIssue(t, issues, "content", "REQUIRED")
}

func TestValidateSubmission_BlankNameValidContent(t *testing.T) {
	res, issues := ValidateSubmission("", `{"rules":[]}`)
	if res.Verdict != ContentStructured {
		t.Fatalf("content validation is independent of name, got %s", res.Verdict)
	}
	assertIssue(t, issues, "name", "REQUIRED")
}

func assertIssue(t *testing.T, issues []Issue, path, code string) {
	t.Helper()
	for _, is := range issues {
		if is.Path == path && is.Code == code {
			return
		}
	}
	t.Fatalf("expected issue %s/%s in %v", path, code, issues)
}
