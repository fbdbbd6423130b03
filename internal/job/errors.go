// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package job

import "errors"

var (
	ErrBusy        = errors.New("an encode is already running")
	ErrInvalidPath = errors.New("invalid path: image, audio and output are required")
)
