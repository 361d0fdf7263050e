package digest

import "daily-digest/internal/config"

// ContentTypeDTO describes one entry of the catalog.
type ContentTypeDTO struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Aliases       []string `json:"aliases,omitempty"`
	DefaultFormat string   `json:"default_format"`
	Formats       []string `json:"formats"`
	MaxItems      int      `json:"max_items,omitempty"`
	Sources       int      `json:"sources"`
}

func toContentTypeDTO(ct config.ContentType) ContentTypeDTO {
	return ContentTypeDTO{
		Name:          ct.Name,
		Description:   ct.Description,
		Aliases:       ct.Aliases,
		DefaultFormat: ct.DefaultFormat,
		Formats:       ct.Formats,
		MaxItems:      ct.MaxItems,
		Sources:       len(ct.Sources),
	}
}
