// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package api

import (
	"io"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/lithographer/internal/logger"
)

// NewRouter wires the handler into a gin engine. Requests are logged through
// access, nil leaves them out. A panicking handler is logged and answered
// with 500; the server keeps running.
func NewRouter(h *Handler, access logger.Logger) *gin.Engine {
	r := gin.New()
	if access != nil {
		r.Use(AccessLog(access))
	}
	r.Use(RequestID(), gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		h.logger.Error("request %s %s [%s] panicked: %v", c.Request.Method, c.Request.URL.Path, GetRequestID(c), recovered)
		errResp(c, http.StatusInternalServerError, "Internal error", GetRequestID(c))
		c.Abort()
	}), Secure(), cors.Default(), LimitBody())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/job", h.GetJob)
		v1.POST("/job", h.StartJob)

		v1.GET("/console", h.Console)
		v1.POST("/console/last", h.ConsumeLast)

		v1.GET("/encoder", h.Encoder)
		v1.POST("/encoder/probe", h.ProbeEncoder)
	}

	return r
}
