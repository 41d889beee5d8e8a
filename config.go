package instantube

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/alanbriolat/instantube/util"
)

const AppName = "instantube"

// DefaultStemTemplate gives names like "Some Title_720p_60fps".
const DefaultStemTemplate = "{{.Title}}_{{.Resolution}}_{{.FrameRate}}fps"

// OutputExt is the container of every merged output file.
const OutputExt = "mp4"

type OutputConfig struct {
	Dir          string
	StemTemplate *template.Template
}

// DefaultDownloadDir is ~/Downloads/instantube.
func DefaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Downloads", AppName), nil
}

func NewOutputConfig(dir string) OutputConfig {
	return OutputConfig{
		Dir:          dir,
		StemTemplate: template.Must(template.New("stem").Parse(DefaultStemTemplate)),
	}
}

// ParseStemTemplate validates a user-supplied stem template.
func ParseStemTemplate(text string) (*template.Template, error) {
	return template.New("stem").Option("missingkey=error").Parse(text)
}

// JobPaths are the deterministic files of one download: the merged output and the two temporary tracks.
type JobPaths struct {
	Dir    string
	Output string
	Video  string
	Audio  string
}

type stemTemplateArgs struct {
	Title      string
	Resolution string
	Height     int
	FrameRate  int
}

// Paths computes where a download of the given variant will be written. Temp tracks share the output's stem.
func (c OutputConfig) Paths(title string, video VideoVariant, audio AudioVariant) (JobPaths, error) {
	args := stemTemplateArgs{
		Title:      util.SanitizeFilename(title),
		Resolution: video.ResolutionLabel,
		Height:     video.Height,
		FrameRate:  video.FrameRate,
	}
	builder := strings.Builder{}
	if err := c.StemTemplate.Execute(&builder, &args); err != nil {
		return JobPaths{}, fmt.Errorf("failed to render output name: %w", err)
	}
	stem := builder.String()
	if stem == "" || filepath.Base(stem) != stem {
		return JobPaths{}, fmt.Errorf("invalid output name %q", stem)
	}
	return JobPaths{
		Dir:    c.Dir,
		Output: filepath.Join(c.Dir, stem+"."+OutputExt),
		Video:  filepath.Join(c.Dir, stem+"_video."+video.Handle.Ext()),
		Audio:  filepath.Join(c.Dir, stem+"_audio."+audio.Handle.Ext()),
	}, nil
}
