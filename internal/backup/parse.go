package backup

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	circleLinePattern = regexp.MustCompile(`^ID:\s*([^|]*?)\s*\|\s*名称:\s*(.*?)\s*\|\s*默认:\s*(是|否)\s*$`)

	// The trailing "| ID:<id>" group is only present in older exports.
	recordLinePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*\|\s*([+-]?\d+(?:\.\d+)?)\s*\|\s*(.*?)\s*\|\s*备注:(.*?)(?:\s*\|\s*ID:\s*(\S*))?\s*$`)
)

// CircleLine is a parsed circle table row.
type CircleLine struct {
	ID        string
	Name      string
	IsDefault bool
}

// RecordLine is a parsed record table row. LegacyID is set only for older
// exports and is never used as a record identity.
type RecordLine struct {
	Date       string
	Amount     float64
	CircleName string
	Note       string
	LegacyID   string
}

// Document is the parsed content of a backup file.
type Document struct {
	Circles []CircleLine
	Records []RecordLine

	// SkippedLines counts non-blank lines inside a section that did not parse.
	SkippedLines int
}

type section int

const (
	sectionNone section = iota
	sectionCircles
	sectionRecords
)

// Parse scans backup text. Lines that do not fit the grammar are skipped and
// counted, never fatal.
func Parse(text string) Document {
	var (
		doc     Document
		current = sectionNone
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if line == "" {
			continue
		}

		switch line {
		case CircleSection:
			current = sectionCircles
			continue
		case RecordSection:
			current = sectionRecords
			continue
		}

		switch current {
		case sectionCircles:
			if c, ok := ParseCircleLine(line); ok {
				doc.Circles = append(doc.Circles, c)
			} else {
				doc.SkippedLines++
			}
		case sectionRecords:
			if r, ok := ParseRecordLine(line); ok {
				doc.Records = append(doc.Records, r)
			} else {
				doc.SkippedLines++
			}
		}
	}

	return doc
}

// ParseCircleLine parses "ID:<id> | 名称:<name> | 默认:<是|否>".
func ParseCircleLine(line string) (CircleLine, bool) {
	m := circleLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil || unescapeField(m[2]) == "" {
		return CircleLine{}, false
	}
	return CircleLine{
		ID:        m[1],
		Name:      unescapeField(m[2]),
		IsDefault: m[3] == yes,
	}, true
}

// ParseRecordLine parses "<date> | <±amount> | <circle> | 备注:<note>" with
// an optional trailing "| ID:<id>".
func ParseRecordLine(line string) (RecordLine, bool) {
	m := recordLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return RecordLine{}, false
	}
	amount, err := strconv.ParseFloat(m[2], 64)
	if err != nil || math.IsInf(amount, 0) {
		return RecordLine{}, false
	}
	return RecordLine{
		Date:       m[1],
		Amount:     amount,
		CircleName: unescapeField(m[3]),
		Note:       unescapeField(m[4]),
		LegacyID:   m[5],
	}, true
}
