package domain

import (
	"time"
)

// AgentRecord is the agent profile written asynchronously by the automation
// service. Zero numeric values mean the field is absent.
type AgentRecord struct {
	AgentID             string `json:"agent_id"`
	UserName            string `json:"user_name,omitempty"`
	CompanyName         string `json:"company_name,omitempty"`
	Email               string `json:"email,omitempty"`
	BusinessDescription string `json:"business_description,omitempty"`

	ICPGeo         string  `json:"icp_geo,omitempty"`
	ICPIndustries  string  `json:"icp_industries,omitempty"`
	ICPEmployees   int     `json:"icp_employees,omitempty"`
	ICPLocations   int     `json:"icp_locations,omitempty"`
	ICPRevenue     float64 `json:"icp_revenue,omitempty"`
	ICPTraits      string  `json:"icp_traits,omitempty"`
	ICPTitle       string  `json:"icp_title,omitempty"`
	ICPDepartment  string  `json:"icp_department,omitempty"`
	ICPMotivations string  `json:"icp_motivations,omitempty"`
	ICPWhy         string  `json:"icp_why,omitempty"`

	KeyDifferentiators string `json:"key_differentiators,omitempty"`
	CommStyle          string `json:"comm_style,omitempty"`

	RationaleBusinessDescription string `json:"rationale_business_description,omitempty"`
	RationaleICP                 string `json:"rationale_icp,omitempty"`
	RationaleDiff                string `json:"rationale_diff,omitempty"`
	RationaleComms               string `json:"rationale_comms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Apply returns a copy of the record with every non-nil patch field written.
func (r AgentRecord) Apply(p AgentPatch) AgentRecord {
	out := r
	setString(&out.UserName, p.UserName)
	setString(&out.CompanyName, p.CompanyName)
	setString(&out.Email, p.Email)
	setString(&out.BusinessDescription, p.BusinessDescription)
	setString(&out.ICPGeo, p.ICPGeo)
	setString(&out.ICPIndustries, p.ICPIndustries)
	if p.ICPEmployees != nil {
		out.ICPEmployees = *p.ICPEmployees
	}
	if p.ICPLocations != nil {
		out.ICPLocations = *p.ICPLocations
	}
	if p.ICPRevenue != nil {
		out.ICPRevenue = *p.ICPRevenue
	}
	setString(&out.ICPTraits, p.ICPTraits)
	setString(&out.ICPTitle, p.ICPTitle)
	setString(&out.ICPDepartment, p.ICPDepartment)
	setString(&out.ICPMotivations, p.ICPMotivations)
	setString(&out.ICPWhy, p.ICPWhy)
	setString(&out.KeyDifferentiators, p.KeyDifferentiators)
	setString(&out.CommStyle, p.CommStyle)
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// AgentPatch is a partial update of an AgentRecord. Nil fields are left
// untouched by the store. Rationale text is owned by the automation service
// and cannot be patched.
type AgentPatch struct {
	UserName            *string  `json:"user_name,omitempty"`
	CompanyName         *string  `json:"company_name,omitempty"`
	Email               *string  `json:"email,omitempty"`
	BusinessDescription *string  `json:"business_description,omitempty"`
	ICPGeo              *string  `json:"icp_geo,omitempty"`
	ICPIndustries       *string  `json:"icp_industries,omitempty"`
	ICPEmployees        *int     `json:"icp_employees,omitempty"`
	ICPLocations        *int     `json:"icp_locations,omitempty"`
	ICPRevenue          *float64 `json:"icp_revenue,omitempty"`
	ICPTraits           *string  `json:"icp_traits,omitempty"`
	ICPTitle            *string  `json:"icp_title,omitempty"`
	ICPDepartment       *string  `json:"icp_department,omitempty"`
	ICPMotivations      *string  `json:"icp_motivations,omitempty"`
	ICPWhy              *string  `json:"icp_why,omitempty"`
	KeyDifferentiators  *string  `json:"key_differentiators,omitempty"`
	CommStyle           *string  `json:"comm_style,omitempty"`
}

// PatchColumn is a single column assignment derived from an AgentPatch.
type PatchColumn struct {
	Name  string
	Value any
}

// Columns lists the column assignments of the patch in a stable order.
func (p AgentPatch) Columns() []PatchColumn {
	var cols []PatchColumn
	addString := func(name string, v *string) {
		if v != nil {
			cols = append(cols, PatchColumn{Name: name, Value: *v})
		}
	}
	addString("user_name", p.UserName)
	addString("company_name", p.CompanyName)
	addString("email", p.Email)
	addString("business_description", p.BusinessDescription)
	addString("icp_geo", p.ICPGeo)
	addString("icp_industries", p.ICPIndustries)
	if p.ICPEmployees != nil {
		cols = append(cols, PatchColumn{Name: "icp_employees", Value: *p.ICPEmployees})
	}
	if p.ICPLocations != nil {
		cols = append(cols, PatchColumn{Name: "icp_locations", Value: *p.ICPLocations})
	}
	if p.ICPRevenue != nil {
		cols = append(cols, PatchColumn{Name: "icp_revenue", Value: *p.ICPRevenue})
	}
	addString("icp_traits", p.ICPTraits)
	addString("icp_title", p.ICPTitle)
	addString("icp_department", p.ICPDepartment)
	addString("icp_motivations", p.ICPMotivations)
	addString("icp_why", p.ICPWhy)
	addString("key_differentiators", p.KeyDifferentiators)
	addString("comm_style", p.CommStyle)
	return cols
}

// IsEmpty returns true if the patch would not change any column.
func (p AgentPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// EditableDraft is the in-memory working copy used while editing a record.
// Delimited columns are exploded into ordered collections.
type EditableDraft struct {
	AgentID             string `json:"agent_id"`
	UserName            string `json:"user_name,omitempty"`
	CompanyName         string `json:"company_name,omitempty"`
	Email               string `json:"email,omitempty"`
	BusinessDescription string `json:"business_description,omitempty"`

	Industries      []string `json:"icp_industries_array"`
	Geo             []string `json:"icp_geo_array"`
	Titles          []string `json:"icp_title_array"`
	Departments     []string `json:"icp_department_array"`
	Differentiators []string `json:"key_differentiators_array"`

	ICPEmployees   int     `json:"icp_employees,omitempty"`
	ICPLocations   int     `json:"icp_locations,omitempty"`
	ICPRevenue     float64 `json:"icp_revenue,omitempty"`
	ICPTraits      string  `json:"icp_traits,omitempty"`
	ICPMotivations string  `json:"icp_motivations,omitempty"`
	ICPWhy         string  `json:"icp_why,omitempty"`
	CommStyle      string  `json:"comm_style,omitempty"`
}
