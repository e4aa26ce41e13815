package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with the booking engine's log vocabulary.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout. Text output in gin debug mode, JSON otherwise.
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter creates a logger writing to w at the given level name.
func NewWithWriter(w io.Writer, levelName string) *Logger {
	level := getLogLevel(levelName)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used by tests and tools.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds a request ID to every record.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("request_id", requestID))}
}

// WithComponent tags records with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", name))}
}

// WithError adds err to every record.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// HTTP

func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Booking lifecycle

// LogBookingCreated logs a new draft booking.
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, tripID, ref string) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("trip_id", tripID),
		slog.String("booking_ref", ref),
	)
}

// LogBookingTransition logs a committed booking state change.
func (l *Logger) LogBookingTransition(ctx context.Context, bookingID, tripID, from, to string) {
	l.Logger.InfoContext(ctx,
		"Booking Transition",
		slog.String("booking_id", bookingID),
		slog.String("trip_id", tripID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogAdmissionDenied logs a rejected admission check.
func (l *Logger) LogAdmissionDenied(ctx context.Context, tripID, reason string) {
	l.Logger.WarnContext(ctx,
		"Admission Denied",
		slog.String("trip_id", tripID),
		slog.String("reason", reason),
	)
}

func (l *Logger) LogTripTransition(ctx context.Context, tripID, from, to string, cascaded int) {
	l.Logger.InfoContext(ctx,
		"Trip Transition",
		slog.String("trip_id", tripID),
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("bookings_cascaded", cascaded),
	)
}

func (l *Logger) LogPaymentRecorded(ctx context.Context, bookingID, transactionRef string, amount, amountDue int64) {
	l.Logger.InfoContext(ctx,
		"Payment Recorded",
		slog.String("booking_id", bookingID),
		slog.String("transaction_ref", transactionRef),
		slog.Int64("amount", amount),
		slog.Int64("amount_due", amountDue),
	)
}

// LogExpirySweep logs the outcome of one reservation expiry pass.
func (l *Logger) LogExpirySweep(ctx context.Context, expired int, duration time.Duration) {
	l.Logger.InfoContext(ctx,
		"Reservation Expiry Sweep",
		slog.Int("expired", expired),
		slog.Duration("duration", duration),
	)
}

// LogSideEffectFailed logs a best-effort side effect that did not complete.
func (l *Logger) LogSideEffectFailed(ctx context.Context, effect, bookingID string, err error) {
	l.Logger.WarnContext(ctx,
		"Side Effect Failed",
		slog.String("effect", effect),
		slog.String("booking_id", bookingID),
		slog.String("error", err.Error()),
	)
}

// Security

func (l *Logger) LogAuthSuccess(ctx context.Context, userID, method string) {
	l.Logger.InfoContext(ctx,
		"Authentication Success",
		slog.String("user_id", userID),
		slog.String("method", method),
	)
}

func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

func (l *Logger) LogRateLimitExceeded(ctx context.Context, key, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("key", key),
		slog.String("endpoint", endpoint),
	)
}

var defaultLogger = New()

// GetDefault returns the process-wide logger.
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
