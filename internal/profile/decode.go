package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedExtraction is returned when model output contains no decodable
// JSON object.
var ErrMalformedExtraction = errors.New("malformed extraction")

// DecodeExtraction turns raw model output into a normalized Profile.
//
// Only known keys are read. Common shape drift is coerced: numbers become
// strings, a comma separated string fills a string list, a single object fills
// an object list and a bare string becomes a project title. Entries that still
// do not fit are dropped. JSON null counts as absent.
func DecodeExtraction(raw string) (Profile, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return Profile{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	fields = lowerKeys(fields)

	p := Profile{
		Name:   asString(fields["name"]),
		Role:   asString(firstPresent(fields, "role", "profession", "title")),
		Bio:    asString(firstPresent(fields, "bio", "summary", "about")),
		Skills: asStringList(fields["skills"]),
	}

	for _, item := range asObjectList(fields["projects"], "title") {
		p.Projects = append(p.Projects, Project{
			Title:        asString(firstPresent(item, "title", "name")),
			Description:  asString(item["description"]),
			Technologies: asStringList(firstPresent(item, "technologies", "tech", "stack")),
			Link:         asString(firstPresent(item, "link", "url")),
			Image:        asString(item["image"]),
		})
	}
	for _, item := range asObjectList(fields["experience"], "") {
		p.Experience = append(p.Experience, Experience{
			Company:     asString(item["company"]),
			Position:    asString(firstPresent(item, "position", "role", "title")),
			Duration:    asString(firstPresent(item, "duration", "period", "years")),
			Description: asString(item["description"]),
		})
	}
	for _, item := range asObjectList(fields["education"], "") {
		p.Education = append(p.Education, Education{
			Institution: asString(firstPresent(item, "institution", "school", "university")),
			Degree:      asString(item["degree"]),
			Year:        asString(firstPresent(item, "year", "graduationyear")),
		})
	}

	if c := asObject(fields["contact"]); c != nil {
		p.Contact = Contact{
			Email:    asString(c["email"]),
			Phone:    asString(c["phone"]),
			LinkedIn: asString(c["linkedin"]),
			GitHub:   asString(c["github"]),
			Website:  asString(firstPresent(c, "website", "url", "portfolio")),
		}
	}

	return Normalize(p), nil
}

// extractObject strips code fences and surrounding prose, returning the
// outermost JSON object in raw.
func extractObject(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedExtraction)
	}
	obj := []byte(s[start : end+1])
	if !json.Valid(obj) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedExtraction)
	}
	return obj, nil
}

func lowerKeys(m map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.ReplaceAll(k, "_", ""))] = v
	}
	return out
}

func firstPresent(m map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := m[k]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	s := strings.TrimSpace(string(v))
	return s == "" || s == "null"
}

func asString(v json.RawMessage) string {
	if isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func asStringList(v json.RawMessage) []string {
	if isNull(v) {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(v, &raw); err != nil {
		if s := asString(v); s != "" {
			return strings.Split(s, ",")
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s := asString(item); s != "" {
			out = append(out, s)
			continue
		}
		// Objects like {"name":"Go"} carry the value under a name key.
		if obj := asObject(item); obj != nil {
			if s := asString(firstPresent(obj, "name", "title", "skill")); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func asObject(v json.RawMessage) map[string]json.RawMessage {
	if isNull(v) {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(v, &m); err != nil {
		return nil
	}
	return lowerKeys(m)
}

// asObjectList decodes a list of objects. A single object is treated as a
// one-element list. When stringKey is set, bare strings become objects with
// that key.
func asObjectList(v json.RawMessage, stringKey string) []map[string]json.RawMessage {
	if isNull(v) {
		return nil
	}
	if obj := asObject(v); obj != nil {
		return []map[string]json.RawMessage{obj}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(v, &raw); err != nil {
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(raw))
	for _, item := range raw {
		if obj := asObject(item); obj != nil {
			out = append(out, obj)
			continue
		}
		if stringKey == "" {
			continue
		}
		if s := asString(item); s != "" {
			quoted, _ := json.Marshal(s)
			out = append(out, map[string]json.RawMessage{stringKey: quoted})
		}
	}
	return out
}
