package model

import "encoding/json"

// FeedbackSummary aggregates ai_feedback rows per site.
type FeedbackSummary struct {
	SiteID                 string  `json:"site_id"`
	SiteName               *string `json:"site_name"`
	SiteAddress            *string `json:"site_address"`
	FeedbackCount          int     `json:"feedback_count"`
	LatestFeedback         *string `json:"latest_feedback"`
	AgeCorrectCount        int     `json:"age_correct_count"`
	ThirdPartyCorrectCount int     `json:"third_party_correct_count"`
	DocumentCorrectCount   int     `json:"document_correct_count"`
}

// FeedbackEntry is a full ai_feedback row joined with site identity.
type FeedbackEntry struct {
	ID                        int64          `json:"id"`
	SiteID                    string         `json:"site_id"`
	RunID                     string         `json:"run_id"`
	SiteName                  *string        `json:"site_name"`
	SiteAddress               *string        `json:"site_address"`
	AgeCorrect                *bool          `json:"age_correct"`
	AgeFeedback               *string        `json:"age_feedback"`
	ThirdPartyCorrect         *bool          `json:"third_party_correct"`
	ThirdPartyFeedback        *string        `json:"third_party_feedback"`
	DocumentSelectionCorrect  *bool          `json:"document_selection_correct"`
	DocumentSelectionFeedback *string        `json:"document_selection_feedback"`
	SelectedDocumentsShown    *string        `json:"-"`
	OverallNotes              *string        `json:"overall_notes"`
	SubmittedAt               *string        `json:"submitted_at"`
	ShownDocuments            []DocumentLink `json:"shown_documents,omitempty"`
}

// ShownDocumentIDs decodes the selected_documents_shown JSON column into the
// ordered document ID list. The order is the priority order the analysis
// presented, so it is preserved. Malformed JSON yields nil.
func (f FeedbackEntry) ShownDocumentIDs() []int64 {
	if f.SelectedDocumentsShown == nil || *f.SelectedDocumentsShown == "" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(*f.SelectedDocumentsShown), &ids); err != nil {
		return nil
	}
	return ids
}
