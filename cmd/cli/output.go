package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/dvloznov/mahjong-ledger/internal/backup"
	"github.com/dvloznov/mahjong-ledger/internal/domain"
)

var (
	winc  = color.New(color.BgGreen, color.FgBlack).SprintfFunc()
	lossc = color.New(color.BgRed, color.FgWhite).SprintfFunc()
	datec = color.New(color.BgYellow, color.FgBlack).SprintfFunc()
	tagc  = color.New(color.BgBlue, color.FgWhite).SprintfFunc()
	errc  = color.New(color.BgRed, color.FgWhite).FprintfFunc()
)

func printErr(format string, args ...interface{}) {
	errc(os.Stderr, " "+format+" ", args...)
	fmt.Fprintln(os.Stderr)
}

// amountCell renders a signed amount, green for wins and red otherwise.
func amountCell(amount float64) string {
	s := fmt.Sprintf(" %8s ", backup.FormatAmount(amount))
	if amount > 0 {
		return winc("%s", s)
	}
	return lossc("%s", s)
}

func printParsed(w io.Writer, idx, total int, r domain.ParsedRecord) {
	circle := "(selected)"
	if r.HasCircleName() {
		circle = *r.CircleName
	}
	fmt.Fprintf(w, "%s %s %s %-12s %s\n",
		tagc(" [%d of %d] ", idx, total),
		datec(" %10s ", r.Date),
		amountCell(r.SignedAmount()),
		circle,
		r.Note)
}

func printRecords(w io.Writer, records []domain.Record, circles []domain.Circle) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}

	names := make(map[string]string, len(circles))
	for _, c := range circles {
		names[c.ID] = c.Name
	}

	var total float64
	for _, r := range records {
		total += r.Amount
		fmt.Fprintf(w, "%s %s %-12s %s\n",
			datec(" %10s ", r.Date),
			amountCell(r.Amount),
			names[r.CircleID],
			r.Note)
	}
	fmt.Fprintf(w, "\n%d record(s), net %s\n", len(records), amountCell(total))
}

func printCircles(w io.Writer, circles []domain.Circle, records []domain.Record) {
	counts := make(map[string]int, len(circles))
	nets := make(map[string]float64, len(circles))
	for _, r := range records {
		counts[r.CircleID]++
		nets[r.CircleID] += r.Amount
	}

	for _, c := range circles {
		marker := "  "
		if c.IsDefault {
			marker = "* "
		}
		fmt.Fprintf(w, "%s%-12s %4d record(s) %s  %s\n", marker, c.Name, counts[c.ID], amountCell(nets[c.ID]), c.ID)
	}
}

func printImportResult(w io.Writer, res backup.Result) {
	fmt.Fprintf(w, "Circles created:   %d\n", res.CirclesCreated)
	fmt.Fprintf(w, "Records created:   %d\n", res.RecordsCreated)
	fmt.Fprintf(w, "Duplicates:        %d\n", res.DuplicateRecords)
	fmt.Fprintf(w, "Skipped lines:     %d\n", res.SkippedLines)
}
