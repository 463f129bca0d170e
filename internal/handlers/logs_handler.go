package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogsHandler records what the site's browser code reports, mostly sections
// that rendered from fallback content and client-side errors
type LogsHandler struct {
	sink *zap.Logger
}

type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level" binding:"omitempty,oneof=debug info warn error"`
	Message   string         `json:"message" binding:"required,max=2000"`
	Page      string         `json:"page,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

type LogBatchRequest struct {
	Logs []LogEntry `json:"logs" binding:"required,min=1,max=100,dive"`
}

// NewLogsHandler writes browser logs to site.log in logDir, rotated like the
// service's own logs. An empty logDir sends them to w instead.
func NewLogsHandler(logDir string, w io.Writer) *LogsHandler {
	var out zapcore.WriteSyncer
	if logDir != "" {
		out = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logDir, "site.log"),
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
	} else {
		out = zapcore.AddSync(w)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "received_at"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), out, zapcore.DebugLevel)
	return &LogsHandler{
		sink: zap.New(core).With(zap.String("service", "site")),
	}
}

func (h *LogsHandler) ReceiveSiteLogs(c *gin.Context) {
	var req LogBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	for _, entry := range req.Logs {
		fields := []zap.Field{
			zap.String("client_ts", entry.Timestamp),
			zap.String("client_ip", c.ClientIP()),
		}
		if entry.Page != "" {
			fields = append(fields, zap.String("page", entry.Page))
		}
		if len(entry.Context) > 0 {
			fields = append(fields, zap.Any("context", entry.Context))
		}
		h.sink.Log(parseLevel(entry.Level), entry.Message, fields...)
	}

	logger.Debug("Received site logs", zap.Int("count", len(req.Logs)))
	c.JSON(http.StatusOK, gin.H{"success": true, "received": len(req.Logs)})
}

// Sync flushes buffered entries
func (h *LogsHandler) Sync() {
	_ = h.sink.Sync() //nolint:errcheck
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
