// Package backup reads and writes the line-oriented text backup format and
// merges imported backups into an owner's existing data.
package backup

import (
	"strconv"
	"strings"

	"github.com/dvloznov/mahjong-ledger/internal/domain"
)

// Section headers.
const (
	CircleSection = "[圈子列表]"
	RecordSection = "[记账记录]"
)

const (
	yes = "是"
	no  = "否"
)

// Serialize renders circles and records as backup text. Records are written
// newest first. Record ids are not written. Names and notes are trimmed and
// their line breaks escaped. The output depends only on its inputs.
func Serialize(circles []domain.Circle, records []domain.Record) string {
	names := make(map[string]string, len(circles))
	for _, c := range circles {
		names[c.ID] = c.Name
	}

	var b strings.Builder

	b.WriteString(CircleSection)
	b.WriteString("\n")
	for _, c := range circles {
		def := no
		if c.IsDefault {
			def = yes
		}
		b.WriteString("ID:" + c.ID + " | 名称:" + escapeField(c.Name) + " | 默认:" + def + "\n")
	}

	b.WriteString("\n")
	b.WriteString(RecordSection)
	b.WriteString("\n")
	for _, r := range domain.SortRecords(records) {
		b.WriteString(r.Date + " | " + FormatAmount(r.Amount) + " | " + escapeField(names[r.CircleID]) + " | 备注:" + escapeField(r.Note) + "\n")
	}

	return b.String()
}

// FormatAmount writes a signed amount with an explicit sign. Zero has no sign.
func FormatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', -1, 64)
	if amount > 0 {
		return "+" + s
	}
	if amount == 0 {
		return "0"
	}
	return s
}

var (
	fieldEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)
	fieldUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r")
)

// escapeField trims a name or note and escapes line breaks so the value stays
// on one line and parses back to itself.
func escapeField(s string) string {
	return fieldEscaper.Replace(strings.TrimSpace(s))
}

func unescapeField(s string) string {
	return strings.TrimSpace(fieldUnescaper.Replace(strings.TrimSpace(s)))
}
