package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Level is a record severity on the syslog-derived numeric scale stored in
// the level column.
type Level int

const (
	LevelDebug     Level = 100
	LevelInfo      Level = 200
	LevelNotice    Level = 250
	LevelWarning   Level = 300
	LevelError     Level = 400
	LevelCritical  Level = 500
	LevelAlert     Level = 550
	LevelEmergency Level = 600
)

// MaxLevel is the largest numeric level accepted. The level column is a
// 32-bit integer on every supported database.
const MaxLevel = math.MaxInt32

var levelNames = map[Level]string{
	LevelDebug:     "DEBUG",
	LevelInfo:      "INFO",
	LevelNotice:    "NOTICE",
	LevelWarning:   "WARNING",
	LevelError:     "ERROR",
	LevelCritical:  "CRITICAL",
	LevelAlert:     "ALERT",
	LevelEmergency: "EMERGENCY",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return strconv.Itoa(int(l))
}

// ParseLevel accepts a level name (case-insensitive, "warn" and "fatal"
// included) or its numeric value between 0 and MaxLevel.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "NOTICE":
		return LevelNotice, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL", "DPANIC":
		return LevelCritical, nil
	case "ALERT", "PANIC":
		return LevelAlert, nil
	case "EMERGENCY", "FATAL":
		return LevelEmergency, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative log level %d", n)
	}
	if n > MaxLevel {
		return 0, fmt.Errorf("log level %d exceeds %d", n, MaxLevel)
	}
	return Level(n), nil
}
