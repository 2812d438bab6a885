package drafts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"govdesk/pkg/artifact"
)

func TestStart_ExtractsRulesFromMessage(t *testing.T) {
	g := NewGenerator(time.Hour)
	s := g.Start("revenue must be positive\norder_id is unique")

	require.Len(t, s.Rules, 2)
	require.Equal(t, "r1", s.Rules[0].ID)
	require.Equal(t, "revenue_must_be_positive", s.Rules[0].Name)
	require.Equal(t, "revenue must be positive", s.Rules[0].Condition)
	require.Equal(t, "revenue must be positive", s.SuggestedName)
	require.NotEmpty(t, s.ContentHash)
	// user message plus assistant reply
	require.Len(t, s.Messages, 2)
	require.Equal(t, "assistant", s.Messages[1].Role)
}

func TestDraftContentPassesValidator(t *testing.T) {
	g := NewGenerator(time.Hour)
	s := g.Start("- amount must be >= 0; currency in (EUR, USD)")

	res, issues := artifact.ValidateSubmission(s.SuggestedName, s.Content())
	require.Empty(t, issues)
	require.Equal(t, artifact.ContentStructured, res.Verdict)
	require.Len(t, res.Rules, 2)
}

func TestAppend_ExtendsAndRehashes(t *testing.T) {
	g := NewGenerator(time.Hour)
	s := g.Start("revenue must be positive")
	firstHash := s.ContentHash

	s2, err := g.Append(s.ID, "customer_id is not null")
	require.NoError(t, err)
	require.Len(t, s2.Rules, 2)
	require.Equal(t, "r2", s2.Rules[1].ID)
	require.NotEqual(t, firstHash, s2.ContentHash)

	_, err = g.Append("drf_missing", "x y z")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStart_EmptyMessagePrompts(t *testing.T) {
	g := NewGenerator(time.Hour)
	s := g.Start("   ")
	require.Empty(t, s.Rules)
	require.Len(t, s.Messages, 1)
	require.Equal(t, "assistant", s.Messages[0].Role)
}

func TestPurgeExpired(t *testing.T) {
	g := NewGenerator(time.Minute)
	s := g.Start("revenue must be positive")

	require.Zero(t, g.PurgeExpired(s.UpdatedAt.Add(30*time.Second)))
	require.Equal(t, 1, g.PurgeExpired(s.UpdatedAt.Add(2*time.Minute)))
	_, err := g.Get(s.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
