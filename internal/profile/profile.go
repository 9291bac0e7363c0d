// Package profile holds the structured portfolio record that a conversation
// accumulates, the merge rule applied to every extraction, and the decoder
// that turns raw model output into a validated record.
package profile

import (
	"slices"
	"strings"
)

// Profile is the structured portfolio record. Every field is optional and the
// zero value means "not yet known".
type Profile struct {
	Name       string       `json:"name,omitempty"       firestore:"name"       yaml:"name"       doc:"Full name"                  example:"Jane Doe"`
	Role       string       `json:"role,omitempty"       firestore:"role"       yaml:"role"       doc:"Profession or title"        example:"Software Engineer"`
	Bio        string       `json:"bio,omitempty"        firestore:"bio"        yaml:"bio"        doc:"Short professional summary" example:"Backend engineer who enjoys distributed systems."`
	Skills     []string     `json:"skills,omitempty"     firestore:"skills"     yaml:"skills"     doc:"Skills and technologies"`
	Projects   []Project    `json:"projects,omitempty"   firestore:"projects"   yaml:"projects"   doc:"Notable projects"`
	Experience []Experience `json:"experience,omitempty" firestore:"experience" yaml:"experience" doc:"Work history"`
	Education  []Education  `json:"education,omitempty"  firestore:"education"  yaml:"education"  doc:"Education history"`
	Contact    Contact      `json:"contact,omitempty"    firestore:"contact"    yaml:"contact"    doc:"Contact details"`
}

// Project describes a single portfolio project.
type Project struct {
	Title        string   `json:"title"                  firestore:"title"        yaml:"title"        doc:"Project title"            example:"Realtime chat"`
	Description  string   `json:"description,omitempty"  firestore:"description"  yaml:"description"  doc:"What the project does"`
	Technologies []string `json:"technologies,omitempty" firestore:"technologies" yaml:"technologies" doc:"Technologies used"`
	Link         string   `json:"link,omitempty"         firestore:"link"         yaml:"link"         doc:"Project URL"              example:"https://example.com/chat"`
	Image        string   `json:"image,omitempty"        firestore:"image"        yaml:"image"        doc:"Screenshot or cover URL"`
}

// Experience is one position held at a company.
type Experience struct {
	Company     string `json:"company,omitempty"     firestore:"company"     yaml:"company"     doc:"Employer"            example:"Acme"`
	Position    string `json:"position,omitempty"    firestore:"position"    yaml:"position"    doc:"Job title"           example:"Senior Engineer"`
	Duration    string `json:"duration,omitempty"    firestore:"duration"    yaml:"duration"    doc:"Free-form duration"  example:"2019 - 2023"`
	Description string `json:"description,omitempty" firestore:"description" yaml:"description" doc:"Responsibilities"`
}

// Education is one degree or programme.
type Education struct {
	Institution string `json:"institution,omitempty" firestore:"institution" yaml:"institution" doc:"School or university" example:"MIT"`
	Degree      string `json:"degree,omitempty"      firestore:"degree"      yaml:"degree"      doc:"Degree or programme"  example:"BSc Computer Science"`
	Year        string `json:"year,omitempty"        firestore:"year"        yaml:"year"        doc:"Graduation year"      example:"2018"`
}

// Contact groups the ways to reach the portfolio owner.
type Contact struct {
	Email    string `json:"email,omitempty"    firestore:"email"    yaml:"email"    doc:"Email address" example:"jane@example.com"`
	Phone    string `json:"phone,omitempty"    firestore:"phone"    yaml:"phone"    doc:"Phone number"  example:"+358401234567"`
	LinkedIn string `json:"linkedin,omitempty" firestore:"linkedin" yaml:"linkedin" doc:"LinkedIn URL"  example:"https://linkedin.com/in/janedoe"`
	GitHub   string `json:"github,omitempty"   firestore:"github"   yaml:"github"   doc:"GitHub URL"    example:"https://github.com/janedoe"`
	Website  string `json:"website,omitempty"  firestore:"website"  yaml:"website"  doc:"Personal site" example:"https://janedoe.dev"`
}

// List size limits applied by Normalize.
const (
	MaxSkills       = 50
	MaxProjects     = 20
	MaxExperience   = 20
	MaxEducation    = 10
	MaxTechnologies = 20
)

// IsEmpty reports whether no field of the contact block is set.
func (c Contact) IsEmpty() bool {
	return c == Contact{}
}

// IsEmpty reports whether the profile carries no information at all.
func (p Profile) IsEmpty() bool {
	return p.Name == "" && p.Role == "" && p.Bio == "" &&
		len(p.Skills) == 0 && len(p.Projects) == 0 &&
		len(p.Experience) == 0 && len(p.Education) == 0 &&
		p.Contact.IsEmpty()
}

// Clone returns a deep copy that shares no slices with p.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = slices.Clone(p.Skills)
	out.Experience = slices.Clone(p.Experience)
	out.Education = slices.Clone(p.Education)
	if p.Projects != nil {
		out.Projects = make([]Project, len(p.Projects))
		for i, pr := range p.Projects {
			pr.Technologies = slices.Clone(pr.Technologies)
			out.Projects[i] = pr
		}
	}
	return out
}

// Normalize trims every string, drops blank list entries and items missing
// their identifying fields, and caps list lengths.
func Normalize(p Profile) Profile {
	out := Profile{
		Name: clean(p.Name),
		Role: clean(p.Role),
		Bio:  strings.TrimSpace(p.Bio),
		Contact: Contact{
			Email:    strings.ToLower(clean(p.Contact.Email)),
			Phone:    clean(p.Contact.Phone),
			LinkedIn: clean(p.Contact.LinkedIn),
			GitHub:   clean(p.Contact.GitHub),
			Website:  clean(p.Contact.Website),
		},
	}
	out.Skills = unionStrings(nil, p.Skills, MaxSkills)

	for _, pr := range p.Projects {
		pr.Title = clean(pr.Title)
		if pr.Title == "" {
			continue
		}
		pr.Description = strings.TrimSpace(pr.Description)
		pr.Technologies = unionStrings(nil, pr.Technologies, MaxTechnologies)
		pr.Link = clean(pr.Link)
		pr.Image = clean(pr.Image)
		out.Projects = append(out.Projects, pr)
		if len(out.Projects) == MaxProjects {
			break
		}
	}

	for _, ex := range p.Experience {
		ex.Company = clean(ex.Company)
		ex.Position = clean(ex.Position)
		if ex.Company == "" && ex.Position == "" {
			continue
		}
		ex.Duration = clean(ex.Duration)
		ex.Description = strings.TrimSpace(ex.Description)
		out.Experience = append(out.Experience, ex)
		if len(out.Experience) == MaxExperience {
			break
		}
	}

	for _, ed := range p.Education {
		ed.Institution = clean(ed.Institution)
		ed.Degree = clean(ed.Degree)
		if ed.Institution == "" && ed.Degree == "" {
			continue
		}
		ed.Year = clean(ed.Year)
		out.Education = append(out.Education, ed)
		if len(out.Education) == MaxEducation {
			break
		}
	}
	return out
}

// clean trims and collapses internal whitespace runs to single spaces.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func foldKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(clean(p))
	}
	return strings.Join(parts, "\x00")
}
