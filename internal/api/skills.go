// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/lithographer/internal/ffmpeg/skills"
)

// EncoderResponse describes the ffmpeg binary and whether it can produce
// the AAC + H.264 output the encode needs
type EncoderResponse struct {
	Binary   string         `json:"binary"`
	Skills   *skills.Skills `json:"skills,omitempty"`
	AAC      bool           `json:"aac"`
	H264     bool           `json:"h264"`
	Ready    bool           `json:"ready"`
	ProbeErr string         `json:"probe_error,omitempty"`
}

func (h *Handler) encoderResponse(s skills.Skills, err error) EncoderResponse {
	resp := EncoderResponse{Binary: h.ffmpeg.Binary()}
	if err != nil {
		resp.ProbeErr = err.Error()
		return resp
	}
	resp.Skills = &s
	resp.AAC = s.CanEncodeAudio("aac")
	resp.H264 = s.CanEncodeVideo("h264")
	resp.Ready = resp.AAC && resp.H264
	return resp
}

// Encoder GET /api/v1/encoder
func (h *Handler) Encoder(c *gin.Context) {
	if s, ok := h.ffmpeg.Skills(); ok {
		c.JSON(http.StatusOK, h.encoderResponse(s, nil))
		return
	}
	h.ProbeEncoder(c)
}

// ProbeEncoder POST /api/v1/encoder/probe
func (h *Handler) ProbeEncoder(c *gin.Context) {
	s, err := h.ffmpeg.Probe(c.Request.Context())
	if err != nil {
		h.logger.Warn("%v", err)
	}
	c.JSON(http.StatusOK, h.encoderResponse(s, err))
}
