package artifact

import (
	"strings"
	"time"
)

// UploadPolicy is the initial state a valid upload lands in. Rulesets
// activate on upload; data contracts wait for a reviewer. One policy per
// kind, applied on every upload path of that kind.
type UploadPolicy State

const (
	ActivateOnUpload UploadPolicy = UploadPolicy(StateActive)
	PendingReview    UploadPolicy = UploadPolicy(StatePending)
)

// PolicyForKind returns the fixed upload policy for an artifact kind.
func PolicyForKind(kind Kind) UploadPolicy {
	if kind == KindRuleset {
		return ActivateOnUpload
	}
	return PendingReview
}

// DefaultRejectReason is used when a reviewer rejects without a reason.
const DefaultRejectReason = "does not meet requirements"

// AssignInitialState maps a validation outcome onto the artifact's initial
// state. Any issue rejects the submission, with the first issue (in
// validation order) as the recorded reason; the record is still persisted so
// bad submissions leave an audit trail.
func AssignInitialState(res ContentResult, issues []Issue, policy UploadPolicy) (State, string) {
	if len(issues) > 0 {
		return StateRejected, issues[0].Message
	}
	if !res.Valid() {
		return StateRejected, "content is invalid"
	}
	return State(policy), ""
}

// Approve transitions a pending artifact to ACTIVE and stamps the approval
// audit pair. Rejection fields from any earlier life are cleared so no
// artifact carries both audit pairs at once.
func Approve(a Artifact, reviewer string, now time.Time) Artifact {
	out := a.Clone()
	out.State = StateActive
	t := now.UTC()
	out.ApprovedAt = &t
	out.ApprovedBy = reviewer
	out.RejectedAt = nil
	out.RejectedBy = ""
	out.Reason = ""
	return out
}

// Reject transitions a pending artifact to REJECTED with the reviewer's
// reason, clearing any approval fields.
func Reject(a Artifact, reviewer, reason string, now time.Time) Artifact {
	out := a.Clone()
	out.State = StateRejected
	t := now.UTC()
	out.RejectedAt = &t
	out.RejectedBy = reviewer
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectReason
	}
	out.Reason = reason
	out.ApprovedAt = nil
	out.ApprovedBy = ""
	return out
}
