package youtube

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/generic"
	"github.com/alanbriolat/instantube/util"
)

// Client is the part of *youtube.Client used here.
type Client interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

var _ Client = (*youtube.Client)(nil)

type source struct {
	client  Client
	videoID string
}

func (s *source) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", s.videoID)
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Resolve(ctx context.Context) (*instantube.Listing, error) {
	log := instantube.Logger(ctx).Sugar().Named("youtube")
	video, err := s.client.GetVideoContext(ctx, s.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	listing := &instantube.Listing{Title: video.Title}
	for i := range video.Formats {
		format := &video.Formats[i]
		listing.Streams = append(listing.Streams, instantube.StreamInfo{
			Kind:      classify(format),
			MimeType:  util.MimeBase(format.MimeType),
			Height:    formatHeight(format),
			FrameRate: format.FPS,
			Bitrate:   formatBitrate(format),
			Handle:    &formatHandle{client: s.client, video: video, format: format},
		})
	}
	log.Debugf("resolved %q [%s] with %d formats", video.Title, video.ID, len(video.Formats))
	return listing, nil
}

func classify(f *youtube.Format) instantube.StreamKind {
	mimeType := util.MimeBase(f.MimeType)
	switch {
	case strings.HasPrefix(mimeType, "video/") && f.AudioChannels > 0:
		return instantube.StreamMuxed
	case strings.HasPrefix(mimeType, "video/"):
		return instantube.StreamVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return instantube.StreamAudio
	default:
		return instantube.StreamUnknown
	}
}

// formatHeight falls back to the leading digits of labels like "720p60" when Height isn't reported.
func formatHeight(f *youtube.Format) int {
	if f.Height > 0 {
		return f.Height
	}
	label, _, _ := strings.Cut(f.QualityLabel, "p")
	height, _ := strconv.Atoi(label)
	return height
}

func formatBitrate(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

type formatHandle struct {
	client Client
	video  *youtube.Video
	format *youtube.Format
}

func (h *formatHandle) Ext() string {
	return util.MimeExt(h.format.MimeType)
}

func (h *formatHandle) Download(ctx context.Context, path string, progress instantube.ProgressFunc) error {
	stream, size, err := h.client.GetStreamContext(ctx, h.video, h.format)
	if err != nil {
		return fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()
	if size <= 0 {
		size = h.format.ContentLength
	}
	return instantube.SaveStream(ctx, path, stream, size, progress)
}

func (h *formatHandle) String() string {
	return fmt.Sprintf("%s [itag %d, %s]", h.video.Title, h.format.ItagNo, h.format.MimeType)
}

// Matcher returns a MatchFunc whose sources resolve through client.
func Matcher(client Client) instantube.MatchFunc {
	return func(s string) (instantube.Source, error) {
		if parsedURL, err := url.Parse(s); err != nil {
			return nil, err
		} else if videoID, err := extractVideoID(parsedURL); err != nil {
			return nil, err
		} else {
			return &source{client: client, videoID: videoID}, nil
		}
	}
}

func New() instantube.Provider {
	return instantube.Provider{Name: "youtube", Match: Matcher(&youtube.Client{})}
}

var schemes = generic.NewSet("http", "https")

// Extract video ID from YouTube URL.
//
// Allowed URL formats:
//
//	http(s?)://(www|m).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m).youtube.com/(v|shorts)/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(u *url.URL) (string, error) {
	if !schemes.Contains(u.Scheme) {
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	var id string
	switch u.Hostname() {
	case "www.youtube.com", "youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/v/") || strings.HasPrefix(u.Path, "/shorts/") {
			id = strings.SplitN(u.Path, "/", 4)[2]
		} else if u.Path == "/watch" || u.Path == "/details" {
			if !u.Query().Has("v") {
				return "", fmt.Errorf("missing ?v= query parameter")
			}
			id = u.Query().Get("v")
		}
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname")
	}
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("could not extract video ID")
	}
	return id, nil
}

func init() {
	instantube.DefaultProviderRegistry.MustAdd(New())
}
