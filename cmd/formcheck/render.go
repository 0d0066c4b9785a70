package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"formcheck/internal/analysis"
	"formcheck/internal/narrative"
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
	statusLabelWidth = 24
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
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

// heading title-cases a label for section headers and field names.
func heading(label string) string {
	return cases.Title(language.English).String(strings.TrimSpace(label))
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", heading(title))
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

// renderRecord formats one analysis for the terminal. Angles under the danger
// threshold are highlighted.
func renderRecord(r analysis.Record, dangerAngle float64, colorize bool) string {
	angle := narrative.FormatAngle(r.MinKneeAngle) + "°"
	if colorize && r.MinKneeAngle < dangerAngle {
		angle = ansiRed + angle + ansiReset
	}
	audio := "-"
	if r.AudioURL != nil {
		audio = *r.AudioURL
	}
	fields := [][2]string{
		{"Analysis", r.ID},
		{"Video", r.VideoURL},
		{"Min knee angle", angle},
		{"Frame", fmt.Sprintf("%d of %d", r.FrameIndex, r.TotalFrames)},
		{"Frames processed", strconv.Itoa(r.ProcessedFrames)},
		{"Frame skip", strconv.Itoa(r.FrameSkip)},
		{"Image", r.ImageURL},
		{"Audio", audio},
		{"Narrative fallback", yesNo(r.NarrativeFallback)},
	}
	if !r.CreatedAt.IsZero() {
		fields = append(fields, [2]string{"Created", r.CreatedAt.Local().Format(time.DateTime)})
	}

	var b strings.Builder
	b.WriteString(renderFields(fields))
	b.WriteString("\n")
	sections := []struct{ title, body string }{
		{"summary", r.Summary},
		{"improvements", r.Improvements},
		{"risk factor", r.RiskFactor},
	}
	for _, s := range sections {
		b.WriteString("\n")
		for _, line := range renderSectionHeader(s.title, colorize) {
			b.WriteString(line + "\n")
		}
		b.WriteString(s.body + "\n")
	}
	return b.String()
}
