package portfolio

// RenderOutput for POST /portfolio/render
type RenderOutput struct {
	Body Rendered
}

// PortfolioCreateOutput for POST /portfolios (201 Created)
type PortfolioCreateOutput struct {
	Location string `header:"Location" doc:"URL of the created portfolio"`
	Body     Portfolio
}

// ListData is the response body containing paginated portfolios.
type ListData struct {
	Items []Portfolio `json:"items" doc:"Portfolios, newest first, without html"`
	Total int         `json:"total" doc:"Total count of the user's portfolios" example:"3"`
}

// PortfolioListOutput is the response wrapper with pagination Link header.
type PortfolioListOutput struct {
	Link string `header:"Link" doc:"RFC 8288 pagination links"`
	Body ListData
}

// PortfolioGetOutput for GET /portfolios/{id}
type PortfolioGetOutput struct {
	Body Portfolio
}

// PortfolioDownloadOutput for GET /portfolios/{id}/download
type PortfolioDownloadOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// PortfolioPublishOutput for POST /portfolios/{id}/publish
type PortfolioPublishOutput struct {
	Body Published
}

// PortfolioAnalyticsOutput for GET /portfolios/{id}/analytics
type PortfolioAnalyticsOutput struct {
	Body Analytics
}
