package database

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	applog "busline/pkg/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newBufferedGormLogger(level gormlogger.LogLevel) (*gormLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &gormLogger{
		log:           applog.NewWithWriter(&buf, "debug"),
		level:         level,
		slowThreshold: 100 * time.Millisecond,
	}, &buf
}

func TestGormLoggerTrace(t *testing.T) {
	query := func() (string, int64) { return `SELECT * FROM "trips"`, 3 }
	ctx := context.Background()

	tests := []struct {
		name  string
		level gormlogger.LogLevel
		begin time.Time
		err   error
		want  string
	}{
		{"failed query", gormlogger.Warn, time.Now(), errors.New("boom"), "query failed"},
		{"not found is quiet", gormlogger.Warn, time.Now(), gorm.ErrRecordNotFound, ""},
		{"slow query", gormlogger.Warn, time.Now().Add(-time.Second), nil, "slow query"},
		{"fast query at warn", gormlogger.Warn, time.Now(), nil, ""},
		{"fast query at info", gormlogger.Info, time.Now(), nil, "query"},
		{"silent", gormlogger.Silent, time.Now().Add(-time.Second), errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufferedGormLogger(tt.level)
			l.Trace(ctx, tt.begin, query, tt.err)

			out := buf.String()
			if tt.want == "" {
				if out != "" {
					t.Fatalf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.want) || !strings.Contains(out, "trips") {
				t.Fatalf("expected %q with the SQL, got %q", tt.want, out)
			}
		})
	}
}

func TestGormLoggerLogModeCopies(t *testing.T) {
	l, _ := newBufferedGormLogger(gormlogger.Warn)
	quiet := l.LogMode(gormlogger.Silent).(*gormLogger)
	if quiet.level != gormlogger.Silent || l.level != gormlogger.Warn {
		t.Fatal("LogMode should not mutate the receiver")
	}
}
