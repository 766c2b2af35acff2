package resolvers

import (
	"context"
	"net/http"
	"strings"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

// Xiaohongshu resolves video notes through the aggregator's rednote route.
// Image-only notes are rejected here; the metadata fallback may still return them as a gallery.
type Xiaohongshu struct {
	meta   *Metadata
	logger logger.Logger
}

func NewXiaohongshu(meta *Metadata, log logger.Logger) *Xiaohongshu {
	return &Xiaohongshu{meta: meta, logger: log}
}

func (x *Xiaohongshu) Name() string { return "xiaohongshu" }

func (x *Xiaohongshu) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	realURL := rawURL
	if strings.Contains(rawURL, "xhslink.com") {
		realURL = x.meta.finalURL(ctx, http.MethodGet, rawURL, MobileUserAgent)
	}

	noteID := platform.ExtractVideoID(realURL, models.PlatformXiaohongshu)
	if noteID == "" {
		return models.Failed("could not extract a note id from the URL")
	}

	body, err := x.meta.fetch(ctx, MetadataEndpoint(models.PlatformXiaohongshu), realURL)
	if err != nil {
		return x.meta.fail("Xiaohongshu.Resolve", "could not fetch note information", err)
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return models.Failed(err.Error())
	}
	note := env.note()
	if note.NoteID == "" {
		note.NoteID = noteID
	}
	info, err := fromNote(note, realURL, false)
	if err != nil {
		return models.Failed(err.Error())
	}
	info.ID = noteID
	return models.Succeeded(info)
}
