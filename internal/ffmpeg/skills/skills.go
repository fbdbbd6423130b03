// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package skills

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Codec represents a codec with encoders and decoders
type Codec struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	Encoders []string `json:"encoders"`
	Decoders []string `json:"decoders"`
}

// Library represents a linked av library
type Library struct {
	Name     string `json:"name"`
	Compiled string `json:"compiled"`
	Linked   string `json:"linked"`
}

// Info describes the ffmpeg build
type Info struct {
	Version       string    `json:"version"`
	Compiler      string    `json:"compiler"`
	Configuration string    `json:"configuration"`
	Libraries     []Library `json:"libraries"`
}

// Skills are the detected capabilities of FFmpeg that matter for muxing a
// still image with an audio track
type Skills struct {
	FFmpeg Info `json:"ffmpeg"`
	Codecs struct {
		Audio []Codec `json:"audio"`
		Video []Codec `json:"video"`
	} `json:"codecs"`
}

// CanEncodeAudio reports whether an encoder exists for the audio codec id
func (s Skills) CanEncodeAudio(id string) bool {
	return hasEncoder(s.Codecs.Audio, id)
}

// CanEncodeVideo reports whether an encoder exists for the video codec id
func (s Skills) CanEncodeVideo(id string) bool {
	return hasEncoder(s.Codecs.Video, id)
}

func hasEncoder(codecs []Codec, id string) bool {
	for _, c := range codecs {
		if c.Id == id {
			return len(c.Encoders) > 0
		}
	}
	return false
}

// New probes the binary for its version and codecs
func New(ctx context.Context, binary string) (Skills, error) {
	s := Skills{}

	out, err := run(ctx, binary, "-version")
	if err != nil {
		return Skills{}, fmt.Errorf("can't run ffmpeg: %w", err)
	}
	s.FFmpeg = parseVersion(out)
	if s.FFmpeg.Version == "" {
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}

	out, err = run(ctx, binary, "-hide_banner", "-codecs")
	if err != nil {
		return Skills{}, fmt.Errorf("can't list codecs: %w", err)
	}
	s.Codecs.Audio, s.Codecs.Video = parseCodecs(out)

	return s, nil
}

func run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}

var (
	reVersion       = regexp.MustCompile(`^ffmpeg version n?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler      = regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
	reCodec         = regexp.MustCompile(`^\s([D.])([E.])([VAS]).{3} ([0-9A-Za-z_]+)\s+(.*?)(?:\(decoders:([^\)]+)\))?\s?(?:\(encoders:([^\)]+)\))?$`)
)

func parseVersion(data []byte) Info {
	f := Info{}

	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	}
	if m := reCompiler.FindSubmatch(data); m != nil {
		f.Compiler = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

// parseCodecs reads `ffmpeg -codecs`. Subtitle codecs are dropped.
func parseCodecs(data []byte) (audio, video []Codec) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reCodec.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		c := Codec{Id: m[4], Name: strings.TrimSpace(m[5])}
		if m[1] == "D" {
			c.Decoders = codecList(m[6], m[4])
		}
		if m[2] == "E" {
			c.Encoders = codecList(m[7], m[4])
		}
		switch m[3] {
		case "V":
			video = append(video, c)
		case "A":
			audio = append(audio, c)
		}
	}
	return audio, video
}

// codecList splits "(encoders: a b)" contents, falling back to the codec id
func codecList(list, id string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return []string{id}
	}
	return strings.Fields(list)
}
