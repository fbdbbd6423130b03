// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ZSC714725/lithographer/internal/logger"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

const maxBodyBytes = 1 << 20

// RequestID keeps a client supplied X-Request-ID (up to 64 bytes) or
// generates one, echoes it back and stores it in the context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if l := len(id); l < 1 || l > 64 {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set(RequestIDKey, id)
		c.Next()
	}
}

// GetRequestID returns the request ID stored by RequestID, or ""
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// Secure sets the browser hardening headers. The API is bound to
// localhost and served over plain HTTP, so no SSL redirect.
func Secure() gin.HandlerFunc {
	return secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
	})
}

// LimitBody caps request bodies; job requests are three paths.
func LimitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	}
}

// logWriter turns gin's line oriented output into logger lines
type logWriter func(format string, args ...interface{})

func (w logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w("%s", line)
		}
	}
	return len(p), nil
}

// LogWriter adapts a logger method for gin.DefaultWriter and
// gin.DefaultErrorWriter, one log line per output line.
func LogWriter(logf func(format string, args ...interface{})) io.Writer {
	return logWriter(logf)
}

// polled routes are hit every frame by the control surface
var polled = map[string]bool{
	"GET /api/v1/console":       true,
	"GET /api/v1/job":           true,
	"POST /api/v1/console/last": true,
}

func accessLine(p gin.LogFormatterParams) string {
	path, _, _ := strings.Cut(p.Path, "?")
	if polled[p.Method+" "+path] && p.StatusCode < http.StatusBadRequest {
		return ""
	}
	line := fmt.Sprintf("%3d %s %s %v %s", p.StatusCode, p.Method, p.Path, p.Latency.Round(time.Microsecond), p.ClientIP)
	if p.ErrorMessage != "" {
		line += " " + strings.TrimSpace(p.ErrorMessage)
	}
	return line + "\n"
}

// AccessLog logs one line per request, except successful polls
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: accessLine,
		Output:    LogWriter(log.Info),
	})
}
