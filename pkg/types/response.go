package types

// SuccessEnvelope is the body shape for all 2xx responses.
type SuccessEnvelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is the body shape for all error responses.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// PageMeta describes an offset-paginated collection.
type PageMeta struct {
	Total       int64 `json:"total"`
	Pages       int   `json:"pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// Page bundles items with their pagination metadata.
type Page struct {
	Items any `json:"items"`
	PageMeta
}
