package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/restorical/ecosight/internal/model"
)

// FloatRange is an inclusive float range filter.
type FloatRange struct {
	Min float64
	Max float64
}

// ContactFilter declares the contact listing filters over
// site_contacts_summary.
type ContactFilter struct {
	SiteIDs    []string
	Roles      []string
	Types      []string
	Tiers      []string // "UNSPECIFIED" also matches NULL tiers
	Primary    *bool
	Qualified  *bool
	Confidence *FloatRange
	Priority   *IntRange
}

func (f ContactFilter) buildWhere() (string, []any) {
	var where []string
	var args []any

	if len(f.SiteIDs) > 0 {
		where = append(where, fmt.Sprintf("site_id IN (%s)", placeholders(len(f.SiteIDs))))
		for _, id := range f.SiteIDs {
			args = append(args, id)
		}
	}
	if len(f.Roles) > 0 {
		where = append(where, fmt.Sprintf("contact_role IN (%s)", placeholders(len(f.Roles))))
		for _, r := range f.Roles {
			args = append(args, r)
		}
	}
	if len(f.Types) > 0 {
		where = append(where, fmt.Sprintf("contact_type IN (%s)", placeholders(len(f.Types))))
		for _, t := range f.Types {
			args = append(args, t)
		}
	}
	if len(f.Tiers) > 0 {
		named := make([]string, 0, len(f.Tiers))
		unspecified := false
		for _, t := range f.Tiers {
			if t == "UNSPECIFIED" {
				unspecified = true
			} else {
				named = append(named, t)
			}
		}
		switch {
		case unspecified && len(named) > 0:
			where = append(where, fmt.Sprintf("(qualification_tier IN (%s) OR qualification_tier IS NULL)", placeholders(len(named))))
			for _, t := range named {
				args = append(args, t)
			}
		case unspecified:
			where = append(where, "qualification_tier IS NULL")
		default:
			where = append(where, fmt.Sprintf("qualification_tier IN (%s)", placeholders(len(named))))
			for _, t := range named {
				args = append(args, t)
			}
		}
	}
	if f.Primary != nil {
		where = append(where, "COALESCE(is_primary_prospect,0) = ?")
		args = append(args, boolToInt(*f.Primary))
	}
	if f.Qualified != nil {
		where = append(where, "COALESCE(qualified,0) = ?")
		args = append(args, boolToInt(*f.Qualified))
	}
	if f.Confidence != nil {
		where = append(where, "COALESCE(confidence_score,0.0) BETWEEN ? AND ?")
		args = append(args, f.Confidence.Min, f.Confidence.Max)
	}
	if f.Priority != nil {
		where = append(where, "COALESCE(prospect_priority,0) BETWEEN ? AND ?")
		args = append(args, f.Priority.Min, f.Priority.Max)
	}

	if len(where) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// ListContacts returns contact rows under the filter, ordered by site then
// priority and descending confidence.
func (db *DB) ListContacts(ctx context.Context, f ContactFilter, limit, offset int) ([]model.Contact, error) {
	whereSQL, args := f.buildWhere()
	query := fmt.Sprintf(`SELECT site_id, site_name, contact_name, organization_name, contact_address, phone, email,
       contact_type, contact_role, is_primary_prospect, prospect_priority, confidence_score,
       qualification_tier, qualified, site_url
FROM site_contacts_summary
%s
ORDER BY CAST(site_id AS INTEGER), prospect_priority ASC, confidence_score DESC
LIMIT ? OFFSET ?`, whereSQL)
	args = append(args, limit, offset)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.SiteID, &c.SiteName, &c.ContactName, &c.OrganizationName, &c.ContactAddress, &c.Phone, &c.Email,
			&c.ContactType, &c.ContactRole, &c.IsPrimaryProspect, &c.ProspectPriority, &c.ConfidenceScore,
			&c.QualificationTier, &c.Qualified, &c.SiteURL); err != nil {
			return nil, fmt.Errorf("storage: scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list contacts: %w", err)
	}
	return contacts, nil
}

// CountContacts returns the number of contacts matching the filter.
func (db *DB) CountContacts(ctx context.Context, f ContactFilter) (int, error) {
	whereSQL, args := f.buildWhere()
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM site_contacts_summary %s", whereSQL)
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count contacts: %w", err)
	}
	return count, nil
}

// SiteContacts returns all contacts for one site ordered by priority.
func (db *DB) SiteContacts(ctx context.Context, siteID string, limit int) ([]model.Contact, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT site_id, site_name, contact_name, organization_name, contact_address,
       phone, email, contact_type, contact_role, is_primary_prospect, prospect_priority,
       confidence_score, qualification_tier, qualified, site_url
FROM site_contacts_summary
WHERE site_id = ?
ORDER BY prospect_priority ASC, confidence_score DESC
LIMIT ?`, siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: site contacts %s: %w", siteID, err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.SiteID, &c.SiteName, &c.ContactName, &c.OrganizationName, &c.ContactAddress,
			&c.Phone, &c.Email, &c.ContactType, &c.ContactRole, &c.IsPrimaryProspect, &c.ProspectPriority,
			&c.ConfidenceScore, &c.QualificationTier, &c.Qualified, &c.SiteURL); err != nil {
			return nil, fmt.Errorf("storage: scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: site contacts %s: %w", siteID, err)
	}
	return contacts, nil
}

// ContactFacets returns the distinct roles, types, tiers and observed
// numeric bounds for the contact filters.
func (db *DB) ContactFacets(ctx context.Context) (model.ContactFacets, error) {
	var facets model.ContactFacets

	roleRows, err := db.sqlDB.QueryContext(ctx,
		"SELECT DISTINCT contact_role AS v FROM site_contacts_summary WHERE TRIM(COALESCE(contact_role,'')) <> '' ORDER BY v")
	if err != nil {
		return facets, fmt.Errorf("storage: contact roles: %w", err)
	}
	defer roleRows.Close()
	if facets.Roles, err = scanStrings(roleRows, "contact role"); err != nil {
		return facets, err
	}

	typeRows, err := db.sqlDB.QueryContext(ctx,
		"SELECT DISTINCT contact_type AS v FROM site_contacts_summary WHERE TRIM(COALESCE(contact_type,'')) <> '' ORDER BY v")
	if err != nil {
		return facets, fmt.Errorf("storage: contact types: %w", err)
	}
	defer typeRows.Close()
	if facets.Types, err = scanStrings(typeRows, "contact type"); err != nil {
		return facets, err
	}

	tierRows, err := db.sqlDB.QueryContext(ctx,
		"SELECT DISTINCT COALESCE(qualification_tier,'UNSPECIFIED') AS v FROM site_contacts_summary ORDER BY v")
	if err != nil {
		return facets, fmt.Errorf("storage: contact tiers: %w", err)
	}
	defer tierRows.Close()
	if facets.Tiers, err = scanStrings(tierRows, "contact tier"); err != nil {
		return facets, err
	}

	err = db.sqlDB.QueryRowContext(ctx, `SELECT
  COALESCE(MIN(COALESCE(confidence_score,0.0)), 0.0), COALESCE(MAX(COALESCE(confidence_score,0.0)), 0.0),
  COALESCE(MIN(COALESCE(prospect_priority,0)), 0), COALESCE(MAX(COALESCE(prospect_priority,0)), 0)
FROM site_contacts_summary`).Scan(
		&facets.ConfidenceMin, &facets.ConfidenceMax,
		&facets.PriorityMin, &facets.PriorityMax,
	)
	if err != nil {
		return facets, fmt.Errorf("storage: contact bounds: %w", err)
	}
	return facets, nil
}
