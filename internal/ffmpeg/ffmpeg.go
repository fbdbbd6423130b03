// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ZSC714725/lithographer/internal/ffmpeg/parse"
	"github.com/ZSC714725/lithographer/internal/ffmpeg/skills"
	"github.com/ZSC714725/lithographer/internal/process"
)

// FFmpeg knows where the encoder binary lives and how to drive it
type FFmpeg interface {
	Binary() string
	New(config ProcessConfig) (process.Process, error)
	NewParser(sink func(line string)) parse.Parser
	ValidateInput(path string) bool
	ValidateOutput(path string) bool
	Skills() (skills.Skills, bool)
	Probe(ctx context.Context) (skills.Skills, error)
}

// ProcessConfig for creating a process
type ProcessConfig struct {
	Args          []string
	Parser        process.Parser
	Logger        process.Logger
	OnStateChange func(from, to string)
}

// Config for FFmpeg
type Config struct {
	// Binary overrides the executable. Empty means ffmpeg beside the
	// application executable.
	Binary          string
	ValidatorInput  Validator
	ValidatorOutput Validator
	// Sample enables CPU/memory sampling of running encoders
	Sample bool
}

type ffmpeg struct {
	binary       string
	validatorIn  Validator
	validatorOut Validator
	sample       bool

	skills     skills.Skills
	probed     bool
	skillsLock sync.RWMutex
}

// New creates FFmpeg. The binary is not required to exist yet; a missing
// binary surfaces when a process is started or probed.
func New(config Config) (FFmpeg, error) {
	binary, err := resolveBinary(config.Binary)
	if err != nil {
		return nil, err
	}

	f := &ffmpeg{
		binary: binary,
		sample: config.Sample,
	}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn, _ = NewValidator(nil, nil)
	}
	if config.ValidatorOutput != nil {
		f.validatorOut = config.ValidatorOutput
	} else {
		f.validatorOut, _ = NewValidator(nil, nil)
	}

	return f, nil
}

func resolveBinary(binary string) (string, error) {
	if binary == "" {
		dir, err := InstallDir()
		if err != nil {
			return "", err
		}
		return Resolve(dir, runtime.GOOS), nil
	}
	// A bare name is looked up in PATH, anything else is used as given.
	if !strings.ContainsRune(binary, os.PathSeparator) && !strings.ContainsRune(binary, '/') {
		if path, err := exec.LookPath(binary); err == nil {
			return path, nil
		}
	}
	return binary, nil
}

// BinaryName returns the encoder executable name for goos
func BinaryName(goos string) string {
	if goos == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// Resolve returns the encoder path inside dir for goos
func Resolve(dir, goos string) string {
	return filepath.Join(dir, BinaryName(goos))
}

// InstallDir returns the directory holding the running executable
func InstallDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Args builds the fixed argument list that loops a still image over an
// audio track and stops with the shorter of the two
func Args(image, audio, output string) []string {
	return []string{
		"-y",
		"-loglevel", "warning",
		"-stats",
		"-loop", "1",
		"-i", image,
		"-i", audio,
		"-shortest",
		"-acodec", "aac",
		"-b:a", "320k",
		"-vcodec", "h264",
		"-preset", "veryslow",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		output,
	}
}

func (f *ffmpeg) Binary() string {
	return f.binary
}

func (f *ffmpeg) New(config ProcessConfig) (process.Process, error) {
	sampler := process.NewNullSampler()
	if f.sample {
		sampler = process.NewSysSampler()
	}
	return process.New(process.Config{
		Binary:        f.binary,
		Args:          config.Args,
		Parser:        config.Parser,
		Sampler:       sampler,
		Logger:        config.Logger,
		OnStateChange: config.OnStateChange,
	})
}

func (f *ffmpeg) NewParser(sink func(line string)) parse.Parser {
	return parse.New(parse.Config{Sink: sink})
}

func (f *ffmpeg) ValidateInput(path string) bool {
	return !Blank(path) && f.validatorIn.IsValid(path)
}

func (f *ffmpeg) ValidateOutput(path string) bool {
	return !Blank(path) && f.validatorOut.IsValid(path)
}

// Skills returns the result of the last successful Probe
func (f *ffmpeg) Skills() (skills.Skills, bool) {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills, f.probed
}

func (f *ffmpeg) Probe(ctx context.Context) (skills.Skills, error) {
	s, err := skills.New(ctx, f.binary)
	if err != nil {
		return skills.Skills{}, fmt.Errorf("probe ffmpeg: %w", err)
	}
	f.skillsLock.Lock()
	f.skills = s
	f.probed = true
	f.skillsLock.Unlock()
	return s, nil
}
