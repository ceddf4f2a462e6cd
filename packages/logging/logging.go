// Package logging builds the zap logger used for htup's debug output.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/snptkdn/htup/packages/core/parser"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Debug  bool
	Writer io.Writer
}

// New returns a console logger at debug level when opts.Debug is set and a
// no-op logger otherwise. Output defaults to stderr so it never mixes with
// response output.
func New(opts Options) *zap.Logger {
	if !opts.Debug {
		return zap.NewNop()
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

var sensitive = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
}

// IsSensitive reports whether a header value must not appear in logs or recordings.
func IsSensitive(name string) bool {
	_, ok := sensitive[strings.ToLower(name)]
	return ok
}

func redactHeaderValue(k, v string) string {
	if v == "" {
		return ""
	}
	if IsSensitive(k) {
		return "<redacted>"
	}
	return v
}

// SafeHeaders renders headers as "k=v; k=v" with sensitive values redacted.
func SafeHeaders(headers parser.Headers) string {
	parts := make([]string, 0, len(headers))
	for _, h := range headers {
		parts = append(parts, h.Key+"="+redactHeaderValue(h.Key, h.Value))
	}
	return strings.Join(parts, "; ")
}

// Request returns the fields logged for an outgoing request.
func Request(req *parser.Request) []zap.Field {
	return []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.String("headers", SafeHeaders(req.Headers)),
		zap.Int("body_bytes", len(req.BodyString())),
	}
}
