package profile

import "strings"

// Merge folds an extraction delta into the accumulated profile and returns the
// result. Neither argument is modified.
//
// A delta field replaces the current value only when it is explicitly
// supplied (non-blank); an absent field never erases known data. Lists grow
// by ordered union: existing entries keep their position, matching entries are
// merged field by field, and new entries are appended in delta order.
// Projects match on title, experience on company and position, education on
// institution and degree, all case-insensitively.
func Merge(current, delta Profile) Profile {
	out := current.Clone()

	out.Name = pick(out.Name, delta.Name)
	out.Role = pick(out.Role, delta.Role)
	out.Bio = pick(out.Bio, delta.Bio)
	out.Contact = mergeContact(out.Contact, delta.Contact)
	out.Skills = unionStrings(out.Skills, delta.Skills, MaxSkills)

	for _, d := range delta.Projects {
		if strings.TrimSpace(d.Title) == "" {
			continue
		}
		i := indexBy(out.Projects, projectKey, projectKey(d))
		if i < 0 {
			if len(out.Projects) < MaxProjects {
				out.Projects = append(out.Projects, cloneProject(d))
			}
			continue
		}
		cur := out.Projects[i]
		cur.Description = pick(cur.Description, d.Description)
		cur.Technologies = unionStrings(cur.Technologies, d.Technologies, MaxTechnologies)
		cur.Link = pick(cur.Link, d.Link)
		cur.Image = pick(cur.Image, d.Image)
		out.Projects[i] = cur
	}

	for _, d := range delta.Experience {
		if strings.TrimSpace(d.Company) == "" && strings.TrimSpace(d.Position) == "" {
			continue
		}
		i := indexBy(out.Experience, experienceKey, experienceKey(d))
		if i < 0 {
			if len(out.Experience) < MaxExperience {
				out.Experience = append(out.Experience, d)
			}
			continue
		}
		cur := out.Experience[i]
		cur.Duration = pick(cur.Duration, d.Duration)
		cur.Description = pick(cur.Description, d.Description)
		out.Experience[i] = cur
	}

	for _, d := range delta.Education {
		if strings.TrimSpace(d.Institution) == "" && strings.TrimSpace(d.Degree) == "" {
			continue
		}
		i := indexBy(out.Education, educationKey, educationKey(d))
		if i < 0 {
			if len(out.Education) < MaxEducation {
				out.Education = append(out.Education, d)
			}
			continue
		}
		cur := out.Education[i]
		cur.Year = pick(cur.Year, d.Year)
		out.Education[i] = cur
	}

	return out
}

func mergeContact(cur, d Contact) Contact {
	return Contact{
		Email:    pick(cur.Email, d.Email),
		Phone:    pick(cur.Phone, d.Phone),
		LinkedIn: pick(cur.LinkedIn, d.LinkedIn),
		GitHub:   pick(cur.GitHub, d.GitHub),
		Website:  pick(cur.Website, d.Website),
	}
}

// pick returns next when it carries a value, otherwise cur.
func pick(cur, next string) string {
	if strings.TrimSpace(next) == "" {
		return cur
	}
	return next
}

// unionStrings appends the entries of add that are not already present in
// base (case-insensitive, trimmed), stopping at limit.
func unionStrings(base, add []string, limit int) []string {
	if len(add) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(add))
	for _, s := range base {
		seen[foldKey(s)] = struct{}{}
	}
	out := base
	for _, s := range add {
		s = clean(s)
		if s == "" {
			continue
		}
		k := foldKey(s)
		if _, ok := seen[k]; ok {
			continue
		}
		if len(out) >= limit {
			break
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func indexBy[T any](items []T, key func(T) string, want string) int {
	for i, it := range items {
		if key(it) == want {
			return i
		}
	}
	return -1
}

func projectKey(p Project) string       { return foldKey(p.Title) }
func experienceKey(e Experience) string { return foldKey(e.Company, e.Position) }
func educationKey(e Education) string   { return foldKey(e.Institution, e.Degree) }

func cloneProject(p Project) Project {
	p.Technologies = append([]string(nil), p.Technologies...)
	return p
}
