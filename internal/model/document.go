package model

// SiteDocument is a row of site_documents.
type SiteDocument struct {
	ID                 int64   `json:"id"`
	SiteID             string  `json:"site_id"`
	DocumentCategory   *string `json:"document_category"`
	DocumentTitle      *string `json:"document_title"`
	DocumentDate       *string `json:"document_date"`
	DocumentType       *string `json:"document_type"`
	DocumentURL        *string `json:"document_url"`
	DownloadStatus     *string `json:"download_status"`
	FlaggedForAnalysis bool    `json:"flagged_for_analysis"`
	FileExtension      *string `json:"file_extension"`
	FileSizeBytes      *int64  `json:"file_size_bytes"`
}

// DocumentFacets lists the distinct categories and download statuses
// available for filtering. NULLs collapse to the labels the columns use
// when absent.
type DocumentFacets struct {
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
}

// DocumentLink is the compact shape used when resolving evidence source
// documents to their public URLs.
type DocumentLink struct {
	ID            int64   `json:"id"`
	DocumentTitle *string `json:"document_title"`
	DocumentType  *string `json:"document_type"`
	DocumentDate  *string `json:"document_date"`
	SiteID        string  `json:"site_id"`
	DocumentURL   *string `json:"document_url"`
}
