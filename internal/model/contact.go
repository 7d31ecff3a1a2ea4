package model

// Contact is a row of site_contacts_summary.
type Contact struct {
	SiteID            string   `json:"site_id"`
	SiteName          *string  `json:"site_name,omitempty"`
	ContactName       *string  `json:"contact_name"`
	OrganizationName  *string  `json:"organization_name"`
	ContactAddress    *string  `json:"contact_address"`
	Phone             *string  `json:"phone"`
	Email             *string  `json:"email"`
	ContactType       *string  `json:"contact_type"`
	ContactRole       *string  `json:"contact_role"`
	IsPrimaryProspect bool     `json:"is_primary_prospect"`
	ProspectPriority  *int     `json:"prospect_priority"`
	ConfidenceScore   *float64 `json:"confidence_score"`
	QualificationTier *string  `json:"qualification_tier,omitempty"`
	Qualified         *bool    `json:"qualified,omitempty"`
	SiteURL           *string  `json:"site_url"`
}

// ContactFacets lists the distinct roles, types and tiers available for
// filtering, plus the observed confidence and priority bounds.
type ContactFacets struct {
	Roles         []string `json:"roles"`
	Types         []string `json:"types"`
	Tiers         []string `json:"tiers"`
	ConfidenceMin float64  `json:"confidence_min"`
	ConfidenceMax float64  `json:"confidence_max"`
	PriorityMin   int      `json:"priority_min"`
	PriorityMax   int      `json:"priority_max"`
}
