package pagination

// DefaultLimit is the page size used when a request names none.
const DefaultLimit = 20

// Params embeds into Huma input structs for pagination.
type Params struct {
	Cursor string `query:"cursor" doc:"Opaque pagination cursor from a previous Link header"`
	Limit  int    `query:"limit"  doc:"Maximum items per page"                               default:"20" minimum:"1" maximum:"100"`
}

// PageSize returns the requested limit or DefaultLimit.
func (p Params) PageSize() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}
