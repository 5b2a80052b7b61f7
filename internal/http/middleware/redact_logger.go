// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. It attaches a
// request-scoped logger to the Gin context and writes one structured line per
// request with obvious PII scrubbed from the query string and headers.
//
// Design goals:
//   - Never log request or response bodies
//   - Redact emails and phone numbers; participant and meeting UUIDs stay
//     visible because they are the primary debugging handle
//   - Mask credentials: Authorization, Cookie, Set-Cookie, the access_token
//     query parameter, plus any configured headers or parameters
//   - Log long-lived event streams as streams, so their duration does not read
//     as a slow request
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders:     []string{"X-Api-Key"},
//	    MaskQueryParams: []string{"guest_name"},
//	}))
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
type RedactOptions struct {
	// MaskHeaders lists extra header names (case-insensitive) whose values are
	// replaced with "[REDACTED]".
	MaskHeaders []string
	// MaskQueryParams lists extra query parameters whose values are replaced.
	MaskQueryParams []string
}

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactPII scrubs emails and phone numbers from s.
func redactPII(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger returns a Gin middleware that attaches a request-scoped
// logger and writes a scrubbed access log line once the handler returns.
// Level follows the outcome: error for 5xx or recorded Gin errors, warn for
// 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	maskParams := map[string]struct{}{QueryAccessToken: {}}
	for _, p := range opts.MaskQueryParams {
		if p = strings.TrimSpace(p); p != "" {
			maskParams[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("user_id", UserID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		if id := c.Param("id"); id != "" {
			l = l.With().Str("resource_id", id).Logger()
		}
		c.Set(loggerKey, &l)

		safeQuery := scrubQuery(c.Request.URL.Query(), maskParams)
		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redactPII(strings.Join(vv, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}
		if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream") {
			ev = ev.Bool("stream", true)
		}
		ev.
			Str("query", safeQuery).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}

// scrubQuery re-encodes q with masked parameters replaced and PII redacted.
func scrubQuery(q url.Values, mask map[string]struct{}) string {
	if len(q) == 0 {
		return ""
	}
	out := make(url.Values, len(q))
	for k, vv := range q {
		if _, ok := mask[k]; ok {
			out[k] = []string{"[REDACTED]"}
			continue
		}
		for _, v := range vv {
			out[k] = append(out[k], redactPII(v))
		}
	}
	return out.Encode()
}
