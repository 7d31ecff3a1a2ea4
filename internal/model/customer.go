package model

// Customer is one box case name with its matched-site count.
type Customer struct {
	Name      string `json:"name"`
	SiteCount int    `json:"site_count"`
}

// CustomerSite is a site row on the customer surface: overview identity
// joined with the box case match and the latest Salesforce opportunity.
type CustomerSite struct {
	SiteID             string  `json:"site_id"`
	County             *string `json:"county"`
	SiteName           *string `json:"site_name"`
	SiteAddress        *string `json:"site_address"`
	SFDCLeadURL        *string `json:"sfdc_lead_url"`
	SiteStatus         *string `json:"site_status"`
	OpportunityName    *string `json:"sfdc_opportunity_name"`
	OpportunityStage   *string `json:"sfdc_opportunity_stage"`
	OpportunityCreated *string `json:"opportunity_created_date"`
	OpportunityClose   *string `json:"opportunity_close_date"`
	BoxCaseName        *string `json:"box_case_name"`
	MatchedViaContact  *string `json:"matched_via_contact"`
	MatchedViaOrg      *string `json:"matched_via_org"`
}

// SitesPerCustomerBounds is the observed min/max of sites matched to a
// single box case.
type SitesPerCustomerBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
