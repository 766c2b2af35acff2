package resolvers

import (
	"context"

	"github.com/pkg/errors"
)

type cobaltRequest struct {
	URL      string `json:"url"`
	VCodec   string `json:"vCodec,omitempty"`
	VQuality string `json:"vQuality,omitempty"`
	AFormat  string `json:"aFormat,omitempty"`
}

type cobaltPickerItem struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Quality string `json:"quality"`
}

type cobaltResponse struct {
	Status   string             `json:"status"`
	URL      string             `json:"url"`
	Text     string             `json:"text"`
	Filename string             `json:"filename"`
	Picker   []cobaltPickerItem `json:"picker"`
}

// hasDirectURL reports a single stream or redirect answer.
func (r *cobaltResponse) hasDirectURL() bool {
	return (r.Status == "stream" || r.Status == "redirect" || r.Status == "tunnel") && r.URL != ""
}

// cobalt asks a cobalt instance for the media behind a page URL.
func (b *base) cobalt(ctx context.Context, endpoint string, req cobaltRequest) (*cobaltResponse, error) {
	if endpoint == "" {
		return nil, errors.New("cobalt endpoint not configured")
	}
	var out cobaltResponse
	if err := b.postJSON(ctx, endpoint, req, nil, &out); err != nil {
		return nil, errors.Wrap(err, "cobalt")
	}
	if out.Status == "error" {
		return nil, errors.Errorf("cobalt: %s", firstNonEmpty(out.Text, "error status"))
	}
	return &out, nil
}
