package domain

// SizePreset is a selectable company-size bucket in the profile editor.
type SizePreset struct {
	Employees int    `json:"employees"`
	Label     string `json:"label"`
}

// EditorOptions holds the option lists offered by the profile editor.
type EditorOptions struct {
	Industries          []string            `json:"industries"`
	Geography           []string            `json:"geography"`
	GeographyGrouped    map[string][]string `json:"geography_grouped"`
	JobTitles           []string            `json:"job_titles"`
	Departments         []string            `json:"departments"`
	CommunicationStyles []string            `json:"communication_styles"`
	CompanySizePresets  []SizePreset        `json:"company_size_presets"`
}

var industryOptions = []string{
	"Technology", "Healthcare", "Finance & Banking", "Real Estate", "E-commerce",
	"Manufacturing", "Education", "Hospitality & Tourism", "Food & Beverage", "Retail",
	"Professional Services", "Marketing & Advertising", "Construction",
	"Transportation & Logistics", "Energy & Utilities", "Non-profit", "Government",
	"Entertainment & Media", "Automotive", "Agriculture", "Consulting", "Legal Services",
	"Insurance", "Telecommunications", "Software as a Service (SaaS)",
}

var usStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii", "Idaho",
	"Illinois", "Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana",
	"Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
	"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio", "Oklahoma",
	"Oregon", "Pennsylvania", "Rhode Island", "South Carolina", "South Dakota",
	"Tennessee", "Texas", "Utah", "Vermont", "Virginia", "Washington",
	"West Virginia", "Wisconsin", "Wyoming",
}

// regionOrder keeps the grouped geography output deterministic.
var regionOrder = []string{"West Coast", "East Coast", "Texas", "Midwest", "Southwest", "Southeast"}

var citiesByRegion = map[string][]string{
	"West Coast": {
		"Los Angeles, CA", "San Francisco, CA", "San Diego, CA", "San Jose, CA",
		"Seattle, WA", "Portland, OR", "Oakland, CA", "Sacramento, CA",
		"Fresno, CA", "Long Beach, CA", "Santa Ana, CA", "Anaheim, CA",
	},
	"East Coast": {
		"New York, NY", "Boston, MA", "Philadelphia, PA", "Miami, FL",
		"Atlanta, GA", "Washington, DC", "Baltimore, MD", "Virginia Beach, VA",
		"Jacksonville, FL", "Tampa, FL", "Newark, NJ", "Buffalo, NY",
	},
	"Texas": {
		"Houston, TX", "Dallas, TX", "San Antonio, TX", "Austin, TX",
		"Fort Worth, TX", "El Paso, TX", "Arlington, TX", "Corpus Christi, TX",
		"Plano, TX", "Laredo, TX", "Garland, TX", "Irving, TX",
	},
	"Midwest": {
		"Chicago, IL", "Detroit, MI", "Indianapolis, IN", "Columbus, OH",
		"Milwaukee, WI", "Kansas City, MO", "Omaha, NE", "Minneapolis, MN",
		"Cleveland, OH", "Wichita, KS", "St. Louis, MO", "Cincinnati, OH",
	},
	"Southwest": {
		"Phoenix, AZ", "Denver, CO", "Las Vegas, NV", "Albuquerque, NM",
		"Tucson, AZ", "Mesa, AZ", "Colorado Springs, CO", "Aurora, CO",
		"Henderson, NV", "Chandler, AZ", "Scottsdale, AZ", "Glendale, AZ",
	},
	"Southeast": {
		"Charlotte, NC", "Nashville, TN", "Memphis, TN", "Louisville, KY",
		"New Orleans, LA", "Raleigh, NC", "Orlando, FL", "St. Petersburg, FL",
		"Greensboro, NC", "Durham, NC", "Norfolk, VA", "Chesapeake, VA",
	},
}

var jobTitleOptions = []string{
	"CEO", "COO", "CFO", "CTO", "CMO", "VP of Sales", "VP of Marketing", "VP of Operations",
	"Sales Director", "Marketing Director", "Operations Director", "Sales Manager",
	"Marketing Manager", "Operations Manager", "Account Manager",
	"Business Development Manager", "Project Manager", "Product Manager", "General Manager",
	"Regional Manager", "Territory Manager", "Channel Manager", "Partnership Manager",
	"Customer Success Manager", "Procurement Manager", "Purchasing Manager", "Buyer",
	"Senior Buyer", "Procurement Director", "Supply Chain Manager", "Logistics Manager",
	"Event Coordinator", "Event Manager", "Event Director", "Marketing Coordinator",
	"Sales Coordinator", "Business Analyst", "Decision Maker", "Key Stakeholder",
	"Department Head", "Team Lead", "Senior Manager", "Director", "Vice President",
	"Executive", "Owner", "Founder", "Partner",
}

var departmentOptions = []string{
	"Sales", "Marketing", "Operations", "Business Development", "Customer Success",
	"Procurement", "Supply Chain", "Logistics", "Events", "Human Resources", "Finance",
	"Accounting", "Legal", "IT", "Technology", "Product", "Engineering", "Design",
	"Customer Service", "Support", "Administration", "Executive", "Management", "Strategy",
	"Planning", "Quality Assurance", "Research & Development", "Manufacturing", "Production",
	"Facilities", "Security", "Compliance", "Risk Management",
}

var communicationStyles = []string{
	"Professional and formal", "Warm and friendly", "Casual and conversational",
	"Direct and to-the-point", "Enthusiastic and energetic", "Consultative and advisory",
	"Empathetic and understanding", "Confident and authoritative", "Helpful and supportive",
	"Humorous and light-hearted", "Technical and detailed", "Simple and clear",
	"Personal and relatable", "Inspiring and motivational",
}

var companySizePresets = []SizePreset{
	{Employees: 10, Label: "1-10 employees (Startup)"},
	{Employees: 25, Label: "11-25 employees (Small)"},
	{Employees: 50, Label: "26-50 employees (Small)"},
	{Employees: 100, Label: "51-100 employees (Medium)"},
	{Employees: 250, Label: "101-250 employees (Medium)"},
	{Employees: 500, Label: "251-500 employees (Large)"},
	{Employees: 1000, Label: "501-1000 employees (Large)"},
	{Employees: 2500, Label: "1001-2500 employees (Enterprise)"},
	{Employees: 5000, Label: "2501-5000 employees (Enterprise)"},
	{Employees: 10000, Label: "5000+ employees (Enterprise)"},
}

// Options returns a fresh copy of the editor option lists.
func Options() EditorOptions {
	states := make([]string, 0, len(usStates))
	for _, s := range usStates {
		states = append(states, s+" (State)")
	}

	var cities []string
	grouped := map[string][]string{
		"Nationwide": {"United States (Nationwide)"},
		"States":     states,
	}
	for _, region := range regionOrder {
		list := append([]string(nil), citiesByRegion[region]...)
		grouped[region] = list
		cities = append(cities, list...)
	}

	geo := make([]string, 0, 1+len(states)+len(cities))
	geo = append(geo, "United States (Nationwide)")
	geo = append(geo, states...)
	geo = append(geo, cities...)

	return EditorOptions{
		Industries:          append([]string(nil), industryOptions...),
		Geography:           geo,
		GeographyGrouped:    grouped,
		JobTitles:           append([]string(nil), jobTitleOptions...),
		Departments:         append([]string(nil), departmentOptions...),
		CommunicationStyles: append([]string(nil), communicationStyles...),
		CompanySizePresets:  append([]SizePreset(nil), companySizePresets...),
	}
}
