package model

import (
	"encoding/json"
	"strings"
)

// QualificationResult is a row of site_qualification_results as listed on
// the qualifications surface.
type QualificationResult struct {
	ID                   int64    `json:"id"`
	SiteID               string   `json:"site_id"`
	Qualified            *bool    `json:"qualified"`
	QualificationTier    *string  `json:"qualification_tier"`
	ConfidenceScore      *float64 `json:"confidence_score"`
	DocumentTypeAnalyzed *string  `json:"document_type_analyzed"`
	DocumentQualityScore *float64 `json:"document_quality_score"`
	AnalyzedAt           *string  `json:"analyzed_at"`
}

// EvidenceItem is one element of the age_evidence / third_party_evidence
// JSON arrays. The ingestion pipeline has stored both object lists and bare
// string lists over time, so decoding accepts either shape.
type EvidenceItem struct {
	EvidenceText    string  `json:"evidence_text"`
	ConfidenceLevel string  `json:"confidence_level,omitempty"`
	SourceDocument  *string `json:"source_document,omitempty"`
	DocumentDate    *string `json:"document_date,omitempty"`
	DocumentType    *string `json:"document_type,omitempty"`
}

func (e *EvidenceItem) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = EvidenceItem{EvidenceText: s}
		return nil
	}
	type alias EvidenceItem
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*e = EvidenceItem(a)
	return nil
}

const disqualifiedMarker = "[DISQUALIFIED - MINIMAL CLEANUP]"

// Disqualified reports whether this evidence item was struck for minimal
// cleanup, either via the inline marker or the confidence level.
func (e EvidenceItem) Disqualified() bool {
	return strings.Contains(e.EvidenceText, disqualifiedMarker) || e.ConfidenceLevel == "disqualified"
}

// DecodeEvidence parses an evidence JSON column. Malformed JSON yields an
// empty list rather than an error; a raw text blob that is not JSON at all
// becomes a single item so legacy rows still surface.
func DecodeEvidence(raw *string) []EvidenceItem {
	if raw == nil || *raw == "" {
		return nil
	}
	var items []EvidenceItem
	if err := json.Unmarshal([]byte(*raw), &items); err == nil {
		return items
	}
	if txt := CleanEvidenceText(*raw); txt != "" {
		return []EvidenceItem{{EvidenceText: txt}}
	}
	return nil
}

// CleanEvidenceText strips the structural fragments that sometimes leak into
// stored evidence text, such as a leading "[{evidence_text:" wrapper or a
// trailing bracket run, and trims surrounding quotes.
func CleanEvidenceText(s string) string {
	if i := strings.Index(s, ":"); i != -1 {
		s = s[i+1:]
	}
	cut := len(s)
	if i := strings.Index(s, "]"); i != -1 && i < cut {
		cut = i
	}
	if i := strings.Index(s, "}"); i != -1 && i < cut {
		cut = i
	}
	s = s[:cut]
	s = strings.TrimSpace(s)
	return strings.Trim(s, `"'`)
}

// CleanEvidenceItems normalizes a decoded evidence list for display:
// wrapper fragments removed, empty items dropped, the disqualified flag
// lifted out of the raw text.
func CleanEvidenceItems(items []EvidenceItem) []CleanedEvidence {
	out := make([]CleanedEvidence, 0, len(items))
	for _, it := range items {
		txt := CleanEvidenceText(it.EvidenceText)
		if txt == "" {
			continue
		}
		out = append(out, CleanedEvidence{
			Text:           txt,
			SourceDocument: it.SourceDocument,
			DocumentDate:   it.DocumentDate,
			DocumentType:   it.DocumentType,
			Disqualified:   it.Disqualified(),
		})
	}
	return out
}

// CleanedEvidence is an evidence item after display normalization.
type CleanedEvidence struct {
	Text           string  `json:"text"`
	SourceDocument *string `json:"source_document"`
	DocumentDate   *string `json:"document_date"`
	DocumentType   *string `json:"document_type"`
	Disqualified   bool    `json:"disqualified"`
	SourceURL      *string `json:"source_url,omitempty"`
}

// DisqualifyingFactor is one element of the disqualifying_factors JSON
// column.
type DisqualifyingFactor struct {
	Category    string `json:"category"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"`
}

// DecodeDisqualifyingFactors parses the disqualifying_factors column,
// returning nil on malformed JSON.
func DecodeDisqualifyingFactors(raw *string) []DisqualifyingFactor {
	if raw == nil || *raw == "" {
		return nil
	}
	var factors []DisqualifyingFactor
	if err := json.Unmarshal([]byte(*raw), &factors); err != nil {
		return nil
	}
	return factors
}

// QualificationDetail is the assembled qualification view for one site:
// the latest run's score and tier, the newest qualification row's evidence
// with confidence scores joined from site_summary, and any disqualification
// verdicts.
type QualificationDetail struct {
	SiteID               string                `json:"site_id"`
	OverallScore         int                   `json:"overall_score"`
	OverallTier          string                `json:"overall_tier"`
	AgeScore             *float64              `json:"age_score"`
	ThirdPartyScore      *float64              `json:"third_party_score"`
	Qualified            *bool                 `json:"qualified"`
	AgeQualified         *bool                 `json:"age_qualified"`
	ThirdPartyQualified  *bool                 `json:"third_party_qualified"`
	AgeConfidence        int                   `json:"age_confidence"`
	ThirdPartyConfidence int                   `json:"third_party_confidence"`
	AgeEvidenceSource    *string               `json:"age_evidence_source"`
	AgeEvidence          []CleanedEvidence     `json:"age_evidence"`
	ThirdPartyEvidence   []CleanedEvidence     `json:"third_party_evidence"`
	DisqualifyingFactors []DisqualifyingFactor `json:"disqualifying_factors"`
	MinimalCleanup       bool                  `json:"minimal_cleanup"`
	Run                  *RunSummary           `json:"run"`
}

// TierFromStatus derives the dashboard tier label from an orchestration
// run's final_status.
func TierFromStatus(status string) string {
	if strings.Contains(status, "QUALIFIED_TIER_") {
		return strings.Replace(status, "QUALIFIED_TIER_", "", 1)
	}
	if strings.Contains(status, "NOT_QUALIFIED") {
		return "NOT_QUALIFIED"
	}
	return "UNSPECIFIED"
}

// AgeCheck is the age-qualification verdict derived from the Age
// Qualification module of a site's latest completed run.
type AgeCheck struct {
	Passed     bool `json:"passed"`
	Score      int  `json:"score"`
	Confidence int  `json:"confidence"`
}
