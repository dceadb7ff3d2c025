package catalog

type CategorySummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type CategoriesResponse struct {
	Categories []CategorySummary `json:"categories"`
}

type CategoryResponse struct {
	ID                string       `json:"id"`
	Label             string       `json:"label"`
	StandaloneParents []string     `json:"standalone_parents,omitempty"`
	Sources           []Source     `json:"sources,omitempty"`
	Nodes             []FilterNode `json:"nodes"`
}

func (cat *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:                cat.ID,
		Label:             cat.Label,
		StandaloneParents: cat.StandaloneParents,
		Sources:           cat.Sources,
		Nodes:             cat.Nodes,
	}
}
