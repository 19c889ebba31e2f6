package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go-dblog/internal/logging"
	"go-dblog/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	viaDirect = "direct"
	viaLogrus = "logrus"
	viaSlog   = "slog"
)

func newWriteCommand(ctx *commandContext) *cobra.Command {
	var channel string
	var levelName string
	var contextPairs []string
	var via string

	cmd := &cobra.Command{
		Use:   "write <message>",
		Short: "Write one record to the log table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := models.ParseLevel(levelName)
			if err != nil {
				return err
			}
			recordContext, err := parseContextPairs(contextPairs)
			if err != nil {
				return err
			}
			_, handler, err := ctx.ensureSink()
			if err != nil {
				return err
			}
			if !handler.IsHandling(level) {
				fmt.Fprintf(cmd.OutOrStdout(), "Level %s is below the configured minimum, record skipped\n", level)
				return nil
			}

			message := strings.Join(args, " ")
			switch via {
			case viaDirect:
				record := models.NewLogRecord(channel, level, message, time.Now())
				for k, v := range recordContext {
					record.Context[k] = v
				}
				record.Formatted = logging.FormatLine(record)
				_, err = handler.Handle(cmd.Context(), record)
			case viaLogrus:
				err = writeViaLogrus(handler, channel, level, message, recordContext)
			case viaSlog:
				err = writeViaSlog(cmd, handler, channel, level, message, recordContext)
			default:
				return fmt.Errorf("unknown --via %q (want %s, %s or %s)", via, viaDirect, viaLogrus, viaSlog)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s record in %s\n", level, handler.Table())
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "cli", "Record channel")
	cmd.Flags().StringVar(&levelName, "level", "info", "Record level name or number")
	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Context entry as key=value (repeatable)")
	cmd.Flags().StringVar(&via, "via", viaDirect, "Logging front-end: direct, logrus or slog")

	return cmd
}

func parseContextPairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --context %q (want key=value)", p)
		}
		out[key] = value
	}
	return out, nil
}

// writeViaLogrus logs through a logrus logger whose only output is the hook.
// logrus panics after firing hooks for PanicLevel entries; that panic is
// recovered once the record is stored.
func writeViaLogrus(handler logging.RecordHandler, channel string, level models.Level, message string, fields map[string]any) (err error) {
	hook := logging.NewLogrusHook(handler, channel)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.TraceLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	var fired error
	logger.AddHook(&errorCapturingHook{LogrusHook: hook, err: &fired})
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*logrus.Entry); !ok {
				panic(r)
			}
		}
		err = fired
	}()
	logger.WithFields(logrus.Fields(fields)).Log(toLogrusLevel(level), message)
	return nil
}

// errorCapturingHook keeps the hook error that logrus would otherwise only
// print to stderr.
type errorCapturingHook struct {
	*logging.LogrusHook
	err *error
}

func (h *errorCapturingHook) Fire(entry *logrus.Entry) error {
	err := h.LogrusHook.Fire(entry)
	if err != nil {
		*h.err = err
	}
	return err
}

func writeViaSlog(cmd *cobra.Command, handler logging.RecordHandler, channel string, level models.Level, message string, fields map[string]any) error {
	h := logging.NewSlogHandler(handler, channel)
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	r := slog.NewRecord(time.Now(), toSlogLevel(level), message, 0)
	r.AddAttrs(attrs...)
	if !h.Enabled(cmd.Context(), r.Level) {
		return nil
	}
	return h.Handle(cmd.Context(), r)
}

func toLogrusLevel(l models.Level) logrus.Level {
	switch {
	case l >= models.LevelEmergency:
		return logrus.FatalLevel
	case l >= models.LevelAlert:
		return logrus.PanicLevel
	case l >= models.LevelError:
		return logrus.ErrorLevel
	case l >= models.LevelWarning:
		return logrus.WarnLevel
	case l >= models.LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

func toSlogLevel(l models.Level) slog.Level {
	switch {
	case l >= models.LevelCritical:
		return slog.LevelError + 4
	case l >= models.LevelError:
		return slog.LevelError
	case l >= models.LevelWarning:
		return slog.LevelWarn
	case l >= models.LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
