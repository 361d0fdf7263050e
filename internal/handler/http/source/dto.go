package source

import (
	"time"

	"daily-digest/internal/domain/entity"
)

// DTO is the API representation of one source.
type DTO struct {
	URL          string     `json:"url"`
	Priority     int        `json:"priority"`
	Parser       string     `json:"parser"`
	Enabled      bool       `json:"enabled"`
	FailureCount int        `json:"failure_count"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
}

// TypeDTO groups the sources of one content type.
type TypeDTO struct {
	ContentType string `json:"type"`
	Enabled     int    `json:"enabled"`
	Sources     []DTO  `json:"sources"`
}

// ActionRequest selects the sources an action applies to.
type ActionRequest struct {
	// URL is a source URL or "all".
	URL string `json:"url" example:"all"`
}

// ActionResponse reports how many sources an action touched.
type ActionResponse struct {
	ContentType string `json:"type"`
	Action      string `json:"action"`
	URL         string `json:"url"`
	Affected    int    `json:"affected"`
}

func toTypeDTO(contentType string, snaps []entity.SourceSnapshot) TypeDTO {
	out := TypeDTO{ContentType: contentType, Sources: make([]DTO, 0, len(snaps))}
	for _, s := range snaps {
		d := DTO{
			URL:          s.URL,
			Priority:     s.Priority,
			Parser:       s.Parser,
			Enabled:      s.Enabled,
			FailureCount: s.FailureCount,
		}
		if s.LastSuccess > 0 {
			ts := time.Unix(0, int64(s.LastSuccess*float64(time.Second))).UTC()
			d.LastSuccess = &ts
		}
		if s.Enabled {
			out.Enabled++
		}
		out.Sources = append(out.Sources, d)
	}
	return out
}
