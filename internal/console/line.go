// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package console

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity of a console line
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalJSON encodes the severity as its name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "Info":
		*s = Info
	case "Warning":
		*s = Warning
	case "Error":
		*s = Error
	default:
		return fmt.Errorf("unknown severity %q", name)
	}
	return nil
}

// Line is one console entry. Lines are values and are never modified after
// Append returns them.
type Line struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"time"`
	Prefix   string    `json:"prefix"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// String formats the line the way it is written to the log file
func (l Line) String() string {
	return Format(l.Prefix, l.Severity, l.Message)
}

// Format renders "[prefix] (Severity) message"
func Format(prefix string, severity Severity, message string) string {
	return "[" + prefix + "] (" + severity.String() + ") " + message
}
