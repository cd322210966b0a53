package archive

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Skryldev/photo-archive/core"
)

// eventLogWriter buffers writes to one of the three per-run log files
// (CMP/IGN/ERR).
type eventLogWriter struct {
	f *os.File
	w *bufio.Writer
}

func openEventLog(archiveBase, runStamp, sourceID, suffix string) (*eventLogWriter, error) {
	name := fmt.Sprintf("%s_%s_%s.log", runStamp, sourceID, suffix)
	f, err := os.OpenFile(filepath.Join(archiveBase, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &eventLogWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (w *eventLogWriter) writeLine(line string) {
	w.w.WriteString(line)
	w.w.WriteByte('\n')
}

func (w *eventLogWriter) close() {
	w.w.Flush()
	w.f.Close()
}

// RunEventLog creates the three timestamped per-run log files (C7), writes
// one human-readable line per event as it arrives, and logs one Debug-level
// structured line per event through logger. Scan events are dropped by the
// file writer but still forwarded to out and to logger.
func RunEventLog(ctx context.Context, logger core.Logger, archiveBase, sourceID string, runStamp string, in <-chan core.Event, out chan<- core.Event) error {
	cmp, err := openEventLog(archiveBase, runStamp, sourceID, "CMP")
	if err != nil {
		return err
	}
	defer cmp.close()
	ign, err := openEventLog(archiveBase, runStamp, sourceID, "IGN")
	if err != nil {
		return err
	}
	defer ign.close()
	errLog, err := openEventLog(archiveBase, runStamp, sourceID, "ERR")
	if err != nil {
		return err
	}
	defer errLog.close()

	for ev := range in {
		switch ev.Kind {
		case core.EventScanProgress:
			logDebug(logger, "event.scan_progress", "count", ev.Count)
		case core.EventScanCompleted:
			logDebug(logger, "event.scan_completed", "count", ev.Count, "elapsed", ev.Elapsed.String())
		case core.EventStored:
			cmp.writeLine(fmt.Sprintf("STORED %s -> %s generated=%v partial=%v", ev.Src, ev.Dst, ev.Generated, ev.Partial))
			logDebug(logger, "event.stored", "src", ev.Src, "dst", ev.Dst, "generated", ev.Generated, "partial", ev.Partial)
		case core.EventSkipped:
			ign.writeLine(fmt.Sprintf("SKIPPED %s existing=%s", ev.Src, ev.Existing))
			logDebug(logger, "event.skipped", "src", ev.Src, "existing", ev.Existing)
		case core.EventIgnored:
			ign.writeLine(fmt.Sprintf("IGNORED %s cause=%s", ev.Src, ev.Cause))
			logDebug(logger, "event.ignored", "src", ev.Src, "cause", ev.Cause)
		case core.EventErrored:
			errLog.writeLine(fmt.Sprintf("ERRORED %s cause=%s", ev.Src, ev.Cause))
			logDebug(logger, "event.errored", "src", ev.Src, "cause", ev.Cause)
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// RunStamp formats the timestamp prefix used by per-run log file names:
// YYYYMMDD-HHMM.
func RunStamp(t time.Time) string {
	return t.Format("20060102-1504")
}

func logDebug(logger core.Logger, msg string, fields ...interface{}) {
	if logger != nil {
		logger.Debug(msg, fields...)
	}
}
