package instantube

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ProgressFunc receives the running byte count of a stream download. expected is 0 if the size is unknown.
type ProgressFunc func(downloaded int64, expected int64)

// A Handle is an opaque reference to one downloadable stream. Implementations must be comparable, usually a pointer.
type Handle interface {
	// Ext is the file extension to use for a saved copy of the stream, e.g. "webm".
	Ext() string
	// Download saves the whole stream to path, overwriting anything already there.
	Download(ctx context.Context, path string, progress ProgressFunc) error
}

type StreamKind int

const (
	StreamUnknown StreamKind = iota
	// StreamVideo is an adaptive video-only stream.
	StreamVideo
	// StreamAudio is an adaptive audio-only stream.
	StreamAudio
	// StreamMuxed carries both audio and video, and is never offered as a variant.
	StreamMuxed
)

func (k StreamKind) String() string {
	switch k {
	case StreamVideo:
		return "video"
	case StreamAudio:
		return "audio"
	case StreamMuxed:
		return "muxed"
	default:
		return "unknown"
	}
}

// StreamInfo describes one stream as reported by a Source.
type StreamInfo struct {
	Kind StreamKind
	// MimeType without codec parameters, e.g. "video/webm".
	MimeType  string
	Height    int
	FrameRate int
	// Bitrate in bits per second, used to rank audio streams.
	Bitrate int
	Handle  Handle
}

// Listing is everything a Source knows about a video after resolving it.
type Listing struct {
	Title   string
	Streams []StreamInfo
}

// VideoVariant is one selectable resolution and frame rate.
type VideoVariant struct {
	ResolutionLabel string
	Height          int
	FrameRate       int
	Handle          Handle
}

func (v VideoVariant) String() string {
	return fmt.Sprintf("%s-%dfps", v.ResolutionLabel, v.FrameRate)
}

// AudioVariant is the audio track shared by every VideoVariant of a Catalog.
type AudioVariant struct {
	Bitrate int
	Handle  Handle
}

// Catalog is the immutable result of one successful fetch.
type Catalog struct {
	url      string
	title    string
	variants []VideoVariant
	audio    AudioVariant
}

// NewCatalog selects the adaptive streams of the given container family (e.g. "webm") from a Listing, orders the
// video variants and picks the best audio stream. ErrNoStreamsAvailable is returned if either kind is missing.
func NewCatalog(url string, listing *Listing, family string) (*Catalog, error) {
	family = strings.ToLower(family)
	var videos []VideoVariant
	var audios []AudioVariant
	for _, s := range listing.Streams {
		switch {
		case s.Kind == StreamVideo && s.MimeType == "video/"+family:
			videos = append(videos, VideoVariant{
				ResolutionLabel: fmt.Sprintf("%dp", s.Height),
				Height:          s.Height,
				FrameRate:       s.FrameRate,
				Handle:          s.Handle,
			})
		case s.Kind == StreamAudio && s.MimeType == "audio/"+family:
			audios = append(audios, AudioVariant{Bitrate: s.Bitrate, Handle: s.Handle})
		}
	}
	if len(videos) == 0 || len(audios) == 0 {
		return nil, fmt.Errorf("%w (%d video, %d audio in %q)", ErrNoStreamsAvailable, len(videos), len(audios), family)
	}
	SortVideoVariants(videos)
	return &Catalog{
		url:      url,
		title:    listing.Title,
		variants: videos,
		audio:    SelectAudio(audios),
	}, nil
}

// SortVideoVariants orders by resolution ascending, then frame rate descending.
func SortVideoVariants(variants []VideoVariant) {
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].Height != variants[j].Height {
			return variants[i].Height < variants[j].Height
		}
		return variants[i].FrameRate > variants[j].FrameRate
	})
}

// SelectAudio returns the highest-bitrate candidate; the first one encountered wins a tie. candidates must not be
// empty.
func SelectAudio(candidates []AudioVariant) AudioVariant {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Bitrate > best.Bitrate {
			best = c
		}
	}
	return best
}

func (c *Catalog) URL() string {
	return c.url
}

func (c *Catalog) Title() string {
	return c.title
}

// Variants returns a copy of the ordered video variants.
func (c *Catalog) Variants() []VideoVariant {
	return append([]VideoVariant(nil), c.variants...)
}

// Variant returns the i-th video variant (0-based).
func (c *Catalog) Variant(i int) (VideoVariant, bool) {
	if i < 0 || i >= len(c.variants) {
		return VideoVariant{}, false
	}
	return c.variants[i], true
}

func (c *Catalog) Audio() AudioVariant {
	return c.audio
}

// Contains reports whether v is one of this catalog's video variants.
func (c *Catalog) Contains(v VideoVariant) bool {
	for _, candidate := range c.variants {
		if candidate.Height == v.Height && candidate.FrameRate == v.FrameRate && candidate.Handle == v.Handle {
			return true
		}
	}
	return false
}

func (c *Catalog) String() string {
	return fmt.Sprintf("Catalog{Title:%q, Variants:%d}", c.title, len(c.variants))
}
