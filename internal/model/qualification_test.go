package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restorical/ecosight/internal/model"
)

func sptr(s string) *string { return &s }

func TestDecodeEvidenceObjectList(t *testing.T) {
	raw := sptr(`[{"evidence_text":"Operations since 1952","source_document":"Hazard Assessment","confidence_level":"high"}]`)
	items := model.DecodeEvidence(raw)
	require.Len(t, items, 1)
	assert.Equal(t, "Operations since 1952", items[0].EvidenceText)
	require.NotNil(t, items[0].SourceDocument)
	assert.Equal(t, "Hazard Assessment", *items[0].SourceDocument)
}

func TestDecodeEvidenceStringList(t *testing.T) {
	raw := sptr(`["First fact","Second fact"]`)
	items := model.DecodeEvidence(raw)
	require.Len(t, items, 2)
	assert.Equal(t, "First fact", items[0].EvidenceText)
	assert.Nil(t, items[0].SourceDocument)
}

func TestDecodeEvidenceRawBlob(t *testing.T) {
	// Legacy rows sometimes hold a bare wrapper fragment instead of JSON.
	raw := sptr(`{evidence_text: Plant operated before 1960}`)
	items := model.DecodeEvidence(raw)
	require.Len(t, items, 1)
	assert.Equal(t, "Plant operated before 1960", items[0].EvidenceText)
}

func TestDecodeEvidenceEmpty(t *testing.T) {
	assert.Nil(t, model.DecodeEvidence(nil))
	assert.Nil(t, model.DecodeEvidence(sptr("")))
}

func TestCleanEvidenceText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`evidence_text: "Plant built 1950"}`, "Plant built 1950"},
		{"prefix: value]trailing", "value"},
		{"  plain text  ", "plain text"},
		{"'quoted'", "quoted"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, model.CleanEvidenceText(c.in), "input %q", c.in)
	}
}

func TestCleanEvidenceItemsDropsEmpty(t *testing.T) {
	items := []model.EvidenceItem{
		{EvidenceText: "Kept"},
		{EvidenceText: ""},
		{EvidenceText: "   "},
	}
	out := model.CleanEvidenceItems(items)
	require.Len(t, out, 1)
	assert.Equal(t, "Kept", out[0].Text)
}

func TestEvidenceDisqualified(t *testing.T) {
	marked := model.EvidenceItem{EvidenceText: "[DISQUALIFIED - MINIMAL CLEANUP] soil removed"}
	assert.True(t, marked.Disqualified())

	flagged := model.EvidenceItem{EvidenceText: "soil removed", ConfidenceLevel: "disqualified"}
	assert.True(t, flagged.Disqualified())

	clean := model.EvidenceItem{EvidenceText: "full remediation pending"}
	assert.False(t, clean.Disqualified())
}

func TestDecodeDisqualifyingFactors(t *testing.T) {
	raw := sptr(`[{"category":"cleanup","reason":"MINIMAL_CLEANUP","description":"surface only"}]`)
	factors := model.DecodeDisqualifyingFactors(raw)
	require.Len(t, factors, 1)
	assert.Equal(t, "MINIMAL_CLEANUP", factors[0].Reason)

	assert.Nil(t, model.DecodeDisqualifyingFactors(sptr("{broken")))
	assert.Nil(t, model.DecodeDisqualifyingFactors(nil))
}

func TestTierFromStatus(t *testing.T) {
	assert.Equal(t, "1", model.TierFromStatus("QUALIFIED_TIER_1"))
	assert.Equal(t, "2", model.TierFromStatus("QUALIFIED_TIER_2"))
	assert.Equal(t, "NOT_QUALIFIED", model.TierFromStatus("NOT_QUALIFIED_LOW_SCORE"))
	assert.Equal(t, "UNSPECIFIED", model.TierFromStatus("completed"))
}
