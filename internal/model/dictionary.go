package model

// RelationInfo is one table or view from sqlite_master.
type RelationInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	SQL  string `json:"sql,omitempty"`
}

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	CID          int     `json:"cid"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	NotNull      bool    `json:"not_null"`
	DefaultValue *string `json:"default_value"`
	PrimaryKey   bool    `json:"primary_key"`
}

// RelationDetail is the dictionary entry for one relation: its columns,
// row count, and a capped sample of rows keyed by column name.
type RelationDetail struct {
	RelationInfo
	Columns  []ColumnInfo     `json:"columns"`
	RowCount int64            `json:"row_count"`
	Sample   []map[string]any `json:"sample"`
}

// FilteredSite is a row of the exclusion surfaces: tribal-related sites and
// do-not-contact matches. MatchedOrg is set only for the latter.
type FilteredSite struct {
	SiteID      string  `json:"site_id"`
	SiteName    *string `json:"site_name"`
	SiteAddress *string `json:"site_address"`
	MatchedOrg  *string `json:"matched_org,omitempty"`
}
