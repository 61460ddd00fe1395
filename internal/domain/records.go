package domain

import (
	"time"
)

// DateLayout is the calendar date format used for records (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Circle is a named group of players that records are filed under.
type Circle struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Record is one persisted win/loss entry. Amount is signed: positive is a win,
// negative is a loss.
type Record struct {
	ID        string    `json:"id"`
	CircleID  string    `json:"circle_id"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// IsWin reports whether the record is a win.
func (r Record) IsWin() bool {
	return r.Amount > 0
}

// Preferences holds per-owner settings.
type Preferences struct {
	SelectedCircleID string    `json:"selected_circle_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ParsedRecord is a validated extraction result. Amount is never negative;
// IsWin carries the sign. CircleName is nil when the text named no circle,
// which means "use the currently selected circle".
type ParsedRecord struct {
	Amount     float64 `json:"amount"`
	IsWin      bool    `json:"is_win"`
	Date       string  `json:"date"`
	Note       string  `json:"note"`
	CircleName *string `json:"circle_name,omitempty"`
}

// SignedAmount converts the magnitude/flag pair into a signed amount.
func (p ParsedRecord) SignedAmount() float64 {
	return SignedAmount(p.Amount, p.IsWin)
}

// HasCircleName reports whether a circle name was extracted.
func (p ParsedRecord) HasCircleName() bool {
	return p.CircleName != nil && *p.CircleName != ""
}

// Draft is a form prefill produced from a single extraction result.
// It is not persisted until the user saves it.
type Draft struct {
	CircleID string  `json:"circle_id"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Note     string  `json:"note"`
}

// SignedAmount returns amount with the sign implied by isWin.
func SignedAmount(amount float64, isWin bool) float64 {
	if amount < 0 {
		amount = -amount
	}
	if isWin {
		return amount
	}
	return -amount
}
