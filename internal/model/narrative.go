package model

// NarrativeSection is a row of site_narratives, ordered by section_order.
type NarrativeSection struct {
	SiteID         string  `json:"site_id,omitempty"`
	SectionOrder   int     `json:"section_order"`
	SectionTitle   *string `json:"section_title"`
	SectionContent *string `json:"section_content"`
	ScrapedAt      *string `json:"scraped_at"`
}
