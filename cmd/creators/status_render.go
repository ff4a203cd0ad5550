package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"creators/internal/pipeline"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
	timeLayout       = "2006-01-02 15:04:05 MST"
)

// statusView is what the status command renders.
type statusView struct {
	Status       pipeline.Status
	DatabaseSize int64
	Now          time.Time
}

func renderStatus(v statusView, colorize bool) []string {
	st := v.Status
	lines := renderSectionHeader("Creators", colorize)

	if st.Running != "" {
		lines = append(lines, renderStatusLine("Run", statusWarn, st.Running+" in progress", colorize))
	} else {
		lines = append(lines, renderStatusLine("Run", statusOK, "Idle", colorize))
	}

	if st.LastUpdate != nil {
		when := fmt.Sprintf("%s (%s)", st.LastUpdate.UTC().Format(timeLayout), humanize.RelTime(*st.LastUpdate, v.Now, "ago", "from now"))
		lines = append(lines, renderStatusLine("Last update", statusInfo, when, colorize))
	} else {
		lines = append(lines, renderStatusLine("Last update", statusWarn, "Never", colorize))
	}

	if run := st.LastRun; run != nil {
		if run.Error != "" {
			lines = append(lines, renderStatusLine("Last run", statusError, run.Kind+" failed: "+run.Error, colorize))
		} else {
			lines = append(lines, renderStatusLine("Last run", statusOK,
				fmt.Sprintf("%s finished, %s names", run.Kind, humanize.Comma(int64(run.Names))), colorize))
		}
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Storage", colorize)...)
	db := st.Database
	if v.DatabaseSize > 0 {
		db = fmt.Sprintf("%s (%s)", db, humanize.Bytes(uint64(v.DatabaseSize)))
	}
	lines = append(lines,
		renderStatusLine("Database", statusInfo, db, colorize),
		renderStatusLine("Packages", statusInfo, humanize.Comma(int64(st.Counts.Packages)), colorize),
		renderStatusLine("Observations", statusInfo, fmt.Sprintf("raw %s, working %s",
			humanize.Comma(int64(st.Counts.RawObservations)), humanize.Comma(int64(st.Counts.Observations))), colorize),
		renderStatusLine("Canonical names", countKind(st.Counts.CanonicalNames), humanize.Comma(int64(st.Counts.CanonicalNames)), colorize),
		renderStatusLine("Archived EML", statusInfo, humanize.Comma(int64(st.Archived)), colorize),
		renderStatusLine("Snapshots", statusInfo, humanize.Comma(int64(st.Snapshots)), colorize),
	)
	return lines
}

func countKind(n int) statusKind {
	if n == 0 {
		return statusWarn
	}
	return statusInfo
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
