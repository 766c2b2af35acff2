package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

func TestQualityToNumber(t *testing.T) {
	tests := []struct {
		quality string
		want    int
	}{
		{"4K", 2160},
		{"2160p60", 2160},
		{"8k", 4320},
		{"4320p", 4320},
		{"2K", 1440},
		{"1440p", 1440},
		{"1080p", 1080},
		{"720p HD", 720},
		{"128kbps", 128},
		{"HLS", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityToNumber(tt.quality), tt.quality)
	}
}

func TestNormalizeCodec(t *testing.T) {
	assert.Equal(t, CodecAuto, NormalizeCodec(""))
	assert.Equal(t, CodecH264, NormalizeCodec("avc1.640028"))
	assert.Equal(t, CodecH264, NormalizeCodec("h264"))
	assert.Equal(t, CodecH265, NormalizeCodec("hev1.1.6.L120"))
	assert.Equal(t, CodecH265, NormalizeCodec("HEVC"))
	assert.Equal(t, CodecVP9, NormalizeCodec("vp9"))
	assert.Equal(t, CodecAV1, NormalizeCodec("av01.0.08M.08"))
	assert.Equal(t, "OPUS", NormalizeCodec("opus"))
}

func sampleFormats() []models.VideoFormat {
	return []models.VideoFormat{
		{ID: "v720", Quality: "720p", HasVideo: true, Size: 100, Codec: "avc1"},
		{ID: "m1080", Quality: "1080p", HasVideo: true, HasAudio: true, Size: 300, Codec: "avc1"},
		{ID: "v1080", Quality: "1080p", HasVideo: true, Size: 500, Codec: "vp9"},
		{ID: "a128", Quality: "128kbps", HasAudio: true, Bitrate: 128000},
		{ID: "a320", Quality: "320kbps", HasAudio: true, Bitrate: 320000},
		{ID: "broken", Quality: "1080p"},
	}
}

func ids(formats []models.VideoFormat) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, f.ID)
	}
	return out
}

func TestClassify(t *testing.T) {
	views := Classify(sampleFormats())

	assert.Equal(t, []string{"m1080", "v1080", "v720"}, ids(views.AllVideo))
	assert.Equal(t, []string{"v1080", "v720"}, ids(views.VideoOnly))
	assert.Equal(t, []string{"a320", "a128"}, ids(views.AudioOnly))
	require.NotNil(t, views.BestAudio)
	assert.Equal(t, "a320", views.BestAudio.ID)

	for _, list := range [][]models.VideoFormat{views.AllVideo, views.VideoOnly, views.AudioOnly} {
		for _, f := range list {
			assert.True(t, f.Valid(), f.ID)
		}
	}
}

func TestClassify_NoAudio(t *testing.T) {
	views := Classify([]models.VideoFormat{{ID: "v", Quality: "480p", HasVideo: true}})
	assert.Nil(t, views.BestAudio)
	assert.Empty(t, views.AudioOnly)
}

func TestDedupe(t *testing.T) {
	formats := []models.VideoFormat{
		{ID: "a", Quality: "1080p", HasVideo: true, FPS: 30, Codec: "avc1"},
		{ID: "b", Quality: "1080p", HasVideo: true, FPS: 24, Codec: "vp9"},
		{ID: "c", Quality: "1080p60", HasVideo: true, FPS: 60, Codec: "vp9"},
		{ID: "d", Quality: "720p", HasVideo: true, Codec: "avc1"},
		{ID: "e", Quality: "720p"},
	}

	unique := Dedupe(formats, CodecAuto)
	assert.Equal(t, []string{"a", "c", "d"}, ids(unique))

	assert.Equal(t, ids(unique), ids(Dedupe(unique, CodecAuto)))

	vp9 := Dedupe(formats, CodecVP9)
	assert.Equal(t, []string{"b", "c"}, ids(vp9))
}

func TestAvailableCodecs(t *testing.T) {
	assert.Equal(t, []string{CodecH264, CodecVP9}, AvailableCodecs(sampleFormats()))
}

func TestPrepare(t *testing.T) {
	info := &models.VideoInfo{
		Duration: 125,
		Formats: []models.VideoFormat{
			{ID: "v", Quality: "720p", HasVideo: true, HasAudio: true, Bitrate: 8000},
			{ID: "s", Quality: "480p", HasVideo: true, HasAudio: true, Size: 2048},
			{ID: "x", Quality: "360p"},
		},
	}

	normalized := Prepare(info)

	require.Len(t, info.Formats, 2)
	assert.Equal(t, int64(125000), info.Formats[0].Size)
	assert.Equal(t, "122.07 KB", info.Formats[0].SizeText)
	assert.Equal(t, "2 KB", info.Formats[1].SizeText)
	assert.Equal(t, "2:05", info.DurationText)
	assert.Equal(t, []string{"v", "s"}, ids(normalized.Merged))
	assert.Empty(t, normalized.VideoDeduped)
}

func TestEstimateTrimSize(t *testing.T) {
	assert.Equal(t, int64(250), EstimateTrimSize(1000, 100, 10, 35))
	assert.Equal(t, int64(0), EstimateTrimSize(1000, 100, 35, 10))
	assert.Equal(t, int64(0), EstimateTrimSize(0, 100, 0, 10))
	assert.Equal(t, int64(0), EstimateTrimSize(1000, 100, 0, 100))
}
