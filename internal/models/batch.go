package models

type BatchRequest struct {
	URLs []string `json:"urls" validate:"omitempty,dive,required"`
	Text string   `json:"text,omitempty"`
}

type BatchFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

type BatchReport struct {
	ID         string         `json:"id"`
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Succeeded  int            `json:"succeeded"`
	Duplicates int            `json:"duplicates"`
	Failed     int            `json:"failed"`
	Results    []*VideoInfo   `json:"results"`
	Failures   []BatchFailure `json:"failures,omitempty"`
}

type BatchProgress struct {
	ID         string `json:"id" redis:"id"`
	Total      int    `json:"total" redis:"total"`
	Completed  int    `json:"completed" redis:"completed"`
	Succeeded  int    `json:"succeeded" redis:"succeeded"`
	Duplicates int    `json:"duplicates" redis:"duplicates"`
	Failed     int    `json:"failed" redis:"failed"`
	Done       bool   `json:"done" redis:"done"`
}

// BatchProgressFunc is called after every individual completion.
type BatchProgressFunc func(progress BatchProgress)
