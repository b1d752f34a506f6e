package hubspot

type objectInput struct {
	Properties map[string]string `json:"properties"`
}

type object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value,omitempty"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit"`
	After        string        `json:"after,omitempty"`
}

type searchResponse struct {
	Total   int      `json:"total"`
	Results []object `json:"results"`
	Paging  *struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

type associationsResponse struct {
	Results []struct {
		ToObjectID int64 `json:"toObjectId"`
	} `json:"results"`
}

// apiError é o corpo que o HubSpot devolve em 4xx/5xx.
type apiError struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Category      string `json:"category"`
	CorrelationID string `json:"correlationId"`
}
