package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ErrProbeUnavailable indicates ffprobe is not installed
var ErrProbeUnavailable = errors.New("ffprobe not found in PATH")

// FFprobeInfo represents the output from ffprobe
type FFprobeInfo struct {
	Streams []FFprobeStream `json:"streams"`
	Format  *FFprobeFormat  `json:"format"`
}

// IntOrString can unmarshal both integers and strings from JSON
type IntOrString struct {
	Value int
}

// UnmarshalJSON accepts 25, "25", "" and "N/A"; anything unparsable is 0
func (i *IntOrString) UnmarshalJSON(data []byte) error {
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		i.Value = intVal
		return nil
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err != nil {
		return err
	}
	parsed, err := strconv.Atoi(strVal)
	if err != nil {
		i.Value = 0
		return nil
	}
	i.Value = parsed
	return nil
}

// FFprobeStream is one audio or video stream
type FFprobeStream struct {
	Index      int         `json:"index"`
	CodecName  string      `json:"codec_name"`
	CodecType  string      `json:"codec_type"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	FrameRate  string      `json:"avg_frame_rate"`
	SampleRate IntOrString `json:"sample_rate"`
	Channels   int         `json:"channels"`
	Duration   string      `json:"duration"`
	BitRate    IntOrString `json:"bit_rate"`
}

// FFprobeFormat represents container format metadata
type FFprobeFormat struct {
	Filename       string            `json:"filename"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	Size           IntOrString       `json:"size"`
	BitRate        IntOrString       `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

// ProbeInfo is the part of ffprobe's answer worth showing for a video
type ProbeInfo struct {
	Container   string
	Duration    time.Duration
	VideoCodec  string
	Width       int
	Height      int
	FrameRate   float64
	AudioCodec  string
	BitrateKbps int
}

// Resolution formats the frame size as WxH, or "" when unknown
func (p *ProbeInfo) Resolution() string {
	if p.Width == 0 || p.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// RunFFprobe executes ffprobe and parses the JSON output
func RunFFprobe(ctx context.Context, path string) (*FFprobeInfo, error) {
	if !CheckFFprobeAvailable() {
		return nil, ErrProbeUnavailable
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info FFprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &info, nil
}

// Probe runs ffprobe on path and summarizes the result
func Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	info, err := RunFFprobe(ctx, path)
	if err != nil {
		return nil, err
	}
	return summarize(info), nil
}

// summarize picks the first video and audio stream
func summarize(info *FFprobeInfo) *ProbeInfo {
	p := &ProbeInfo{}
	if info.Format != nil {
		p.Container = info.Format.FormatName
		p.Duration = parseSeconds(info.Format.Duration)
		p.BitrateKbps = info.Format.BitRate.Value / 1000
	}

	for _, s := range info.Streams {
		switch s.CodecType {
		case "video":
			if p.VideoCodec != "" {
				continue
			}
			p.VideoCodec = s.CodecName
			p.Width, p.Height = s.Width, s.Height
			p.FrameRate = parseRate(s.FrameRate)
			if p.Duration == 0 {
				p.Duration = parseSeconds(s.Duration)
			}
		case "audio":
			if p.AudioCodec == "" {
				p.AudioCodec = s.CodecName
			}
		}
	}
	return p
}

func parseSeconds(s string) time.Duration {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second)).Round(time.Millisecond)
}

// parseRate reads ffprobe's "30000/1001" style rates
func parseRate(s string) float64 {
	var num, den float64
	if _, err := fmt.Sscanf(s, "%f/%f", &num, &den); err != nil || den == 0 {
		return 0
	}
	return num / den
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// FFprobeVersion returns the first line of `ffprobe -version`
func FFprobeVersion(ctx context.Context) (string, error) {
	if !CheckFFprobeAvailable() {
		return "", ErrProbeUnavailable
	}
	out, err := exec.CommandContext(ctx, "ffprobe", "-version").Output()
	if err != nil {
		return "", err
	}
	line := string(out)
	for i, c := range line {
		if c == '\n' {
			line = line[:i]
			break
		}
	}
	return line, nil
}
