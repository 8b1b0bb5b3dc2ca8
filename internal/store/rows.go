package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/domain"
)

// agentColumns is the select list shared by the SQL backends. created_at is
// scanned separately because its storage type differs per dialect.
var agentColumns = []string{
	"agent_id", "user_name", "company_name", "email", "business_description",
	"icp_geo", "icp_industries", "icp_employees", "icp_locations", "icp_revenue",
	"icp_traits", "icp_title", "icp_department", "icp_motivations", "icp_why",
	"key_differentiators", "comm_style",
	"rationale_business_description", "rationale_icp", "rationale_diff", "rationale_comms",
}

func selectList() string {
	return strings.Join(agentColumns, ", ") + ", created_at"
}

// agentRow holds nullable scan targets for one agents row.
type agentRow struct {
	agentID string

	userName, companyName, email, businessDesc sql.NullString

	geo, industries sql.NullString

	employees, locations sql.NullInt64

	revenue sql.NullFloat64

	traits, title, department, motivations, why sql.NullString

	differentiators, commStyle sql.NullString

	ratBusiness, ratICP, ratDiff, ratComms sql.NullString
}

// dest returns scan destinations in agentColumns order followed by createdAt.
func (r *agentRow) dest(createdAt any) []any {
	return []any{
		&r.agentID, &r.userName, &r.companyName, &r.email, &r.businessDesc,
		&r.geo, &r.industries, &r.employees, &r.locations, &r.revenue,
		&r.traits, &r.title, &r.department, &r.motivations, &r.why,
		&r.differentiators, &r.commStyle,
		&r.ratBusiness, &r.ratICP, &r.ratDiff, &r.ratComms,
		createdAt,
	}
}

func (r *agentRow) record(createdAt time.Time) *domain.AgentRecord {
	return &domain.AgentRecord{
		AgentID:                      r.agentID,
		UserName:                     r.userName.String,
		CompanyName:                  r.companyName.String,
		Email:                        r.email.String,
		BusinessDescription:          r.businessDesc.String,
		ICPGeo:                       r.geo.String,
		ICPIndustries:                r.industries.String,
		ICPEmployees:                 int(r.employees.Int64),
		ICPLocations:                 int(r.locations.Int64),
		ICPRevenue:                   r.revenue.Float64,
		ICPTraits:                    r.traits.String,
		ICPTitle:                     r.title.String,
		ICPDepartment:                r.department.String,
		ICPMotivations:               r.motivations.String,
		ICPWhy:                       r.why.String,
		KeyDifferentiators:           r.differentiators.String,
		CommStyle:                    r.commStyle.String,
		RationaleBusinessDescription: r.ratBusiness.String,
		RationaleICP:                 r.ratICP.String,
		RationaleDiff:                r.ratDiff.String,
		RationaleComms:               r.ratComms.String,
		CreatedAt:                    createdAt,
	}
}

// insertValues returns the record values in agentColumns order. Empty
// strings and zero numbers are stored as NULL.
func insertValues(rec *domain.AgentRecord) []any {
	str := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}
	num := func(n int) any {
		if n == 0 {
			return nil
		}
		return n
	}
	var revenue any
	if rec.ICPRevenue != 0 {
		revenue = rec.ICPRevenue
	}
	return []any{
		rec.AgentID, str(rec.UserName), str(rec.CompanyName), str(rec.Email), str(rec.BusinessDescription),
		str(rec.ICPGeo), str(rec.ICPIndustries), num(rec.ICPEmployees), num(rec.ICPLocations), revenue,
		str(rec.ICPTraits), str(rec.ICPTitle), str(rec.ICPDepartment), str(rec.ICPMotivations), str(rec.ICPWhy),
		str(rec.KeyDifferentiators), str(rec.CommStyle),
		str(rec.RationaleBusinessDescription), str(rec.RationaleICP), str(rec.RationaleDiff), str(rec.RationaleComms),
	}
}
