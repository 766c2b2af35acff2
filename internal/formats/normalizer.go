package formats

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const (
	CodecAuto = "auto"
	CodecH264 = "H264"
	CodecH265 = "H265"
	CodecVP9  = "VP9"
	CodecAV1  = "AV1"

	// baseFPSBucket groups every frame rate up to 30 into one dedup bucket.
	baseFPSBucket = 30
)

var digits = regexp.MustCompile(`(\d+)`)

// QualityToNumber turns a free-text quality label into a vertical resolution.
// Unrecognized labels sort as 0.
func QualityToNumber(quality string) int {
	if quality == "" {
		return 0
	}
	upper := strings.ToUpper(quality)
	switch {
	case strings.Contains(upper, "4K") || strings.Contains(upper, "2160"):
		return 2160
	case strings.Contains(upper, "8K") || strings.Contains(upper, "4320"):
		return 4320
	case strings.Contains(upper, "2K") || strings.Contains(upper, "1440"):
		return 1440
	}
	m := digits.FindStringSubmatch(quality)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func NormalizeCodec(codec string) string {
	if codec == "" {
		return CodecAuto
	}
	c := strings.ToLower(codec)
	switch {
	case strings.Contains(c, "h264") || strings.Contains(c, "avc"):
		return CodecH264
	case strings.Contains(c, "h265") || strings.Contains(c, "hevc"):
		return CodecH265
	case strings.Contains(c, "vp9"):
		return CodecVP9
	case strings.Contains(c, "av1") || strings.Contains(c, "av01"):
		return CodecAV1
	}
	return strings.ToUpper(codec)
}

// Views are the three filtered and ordered projections of a format list.
type Views struct {
	AllVideo  []models.VideoFormat `json:"allVideo"`
	VideoOnly []models.VideoFormat `json:"videoOnly"`
	AudioOnly []models.VideoFormat `json:"audioOnly"`
	BestAudio *models.VideoFormat  `json:"bestAudio,omitempty"`
}

// DropInvalid removes formats that carry neither video nor audio.
func DropInvalid(formats []models.VideoFormat) []models.VideoFormat {
	valid := make([]models.VideoFormat, 0, len(formats))
	for _, f := range formats {
		if f.Valid() {
			valid = append(valid, f)
		}
	}
	return valid
}

func Classify(formats []models.VideoFormat) Views {
	formats = DropInvalid(formats)

	var views Views
	for _, f := range formats {
		if f.HasVideo {
			views.AllVideo = append(views.AllVideo, f)
			if !f.HasAudio {
				views.VideoOnly = append(views.VideoOnly, f)
			}
		} else if f.HasAudio {
			views.AudioOnly = append(views.AudioOnly, f)
		}
	}

	SortAllVideo(views.AllVideo)
	SortVideoOnly(views.VideoOnly)
	SortAudioOnly(views.AudioOnly)

	if len(views.AudioOnly) > 0 {
		best := views.AudioOnly[0]
		views.BestAudio = &best
	}
	return views
}

// SortAllVideo orders by resolution desc, then formats with audio first, then size desc.
func SortAllVideo(formats []models.VideoFormat) {
	sort.SliceStable(formats, func(i, j int) bool {
		a, b := formats[i], formats[j]
		qa, qb := QualityToNumber(a.Quality), QualityToNumber(b.Quality)
		if qa != qb {
			return qa > qb
		}
		if a.HasAudio != b.HasAudio {
			return a.HasAudio
		}
		return a.Size > b.Size
	})
}

func SortVideoOnly(formats []models.VideoFormat) {
	sort.SliceStable(formats, func(i, j int) bool {
		return QualityToNumber(formats[i].Quality) > QualityToNumber(formats[j].Quality)
	})
}

func SortAudioOnly(formats []models.VideoFormat) {
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].Bitrate > formats[j].Bitrate
	})
}

func fpsBucket(fps int) int {
	if fps > baseFPSBucket {
		return fps
	}
	return baseFPSBucket
}

type dedupKey struct {
	resolution int
	fps        int
}

// Dedupe applies the optional codec filter, then keeps the first format per
// (resolution, fps bucket). Input order decides which format wins.
func Dedupe(formats []models.VideoFormat, codec string) []models.VideoFormat {
	filtered := formats
	if codec != "" && codec != CodecAuto {
		filtered = make([]models.VideoFormat, 0, len(formats))
		for _, f := range formats {
			if NormalizeCodec(f.Codec) == codec {
				filtered = append(filtered, f)
			}
		}
	}

	seen := make(map[dedupKey]struct{}, len(filtered))
	unique := make([]models.VideoFormat, 0, len(filtered))
	for _, f := range filtered {
		if !f.Valid() {
			continue
		}
		key := dedupKey{resolution: QualityToNumber(f.Quality), fps: fpsBucket(f.FPS)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, f)
	}
	return unique
}

// AvailableCodecs lists the distinct normalized codecs in first-seen order.
func AvailableCodecs(formats []models.VideoFormat) []string {
	seen := make(map[string]struct{})
	var codecs []string
	for _, f := range formats {
		c := NormalizeCodec(f.Codec)
		if c == CodecAuto {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		codecs = append(codecs, c)
	}
	return codecs
}

// Normalized is what the resolve endpoint returns next to the VideoInfo.
type Normalized struct {
	Views
	Merged       []models.VideoFormat `json:"merged"`
	VideoDeduped []models.VideoFormat `json:"videoDeduped"`
	Codecs       []string             `json:"codecs,omitempty"`
}

// Prepare drops invalid formats, infers missing sizes from bitrate and duration,
// fills the display texts and builds the views.
func Prepare(info *models.VideoInfo) Normalized {
	info.Formats = DropInvalid(info.Formats)
	for i := range info.Formats {
		f := &info.Formats[i]
		if f.Size == 0 {
			f.Size = EstimateSize(f.Bitrate, info.Duration)
		}
		if f.Size > 0 && f.SizeText == "" {
			f.SizeText = utils.FormatFileSize(f.Size)
		}
	}
	if info.DurationText == "" && info.Duration > 0 {
		info.DurationText = utils.FormatDuration(info.Duration)
	}

	return Summarize(info.Formats)
}

// Summarize builds the classified and deduplicated views of an already prepared list.
func Summarize(list []models.VideoFormat) Normalized {
	views := Classify(list)
	return Normalized{
		Views:        views,
		Merged:       Dedupe(views.AllVideo, CodecAuto),
		VideoDeduped: Dedupe(views.VideoOnly, CodecAuto),
		Codecs:       AvailableCodecs(views.AllVideo),
	}
}

// EstimateSize approximates a stream size in bytes from bits per second and seconds.
func EstimateSize(bitrate, durationSeconds int) int64 {
	if bitrate <= 0 || durationSeconds <= 0 {
		return 0
	}
	return int64(bitrate) * int64(durationSeconds) / 8
}

// EstimateTrimSize scales a full size down to the kept [start, end) window.
// It returns 0 when the estimate is not meaningful.
func EstimateTrimSize(size int64, durationSeconds int, start, end float64) int64 {
	if size <= 0 || durationSeconds <= 0 || end <= start {
		return 0
	}
	kept := end - start
	if kept >= float64(durationSeconds) {
		return 0
	}
	return int64(float64(size)*kept/float64(durationSeconds) + 0.5)
}
