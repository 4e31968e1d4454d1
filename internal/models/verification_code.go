package models

import "time"

// VerificationCode is one row per issued OTP. A fresh issuance marks
// the previous rows for the mobile as used, so at most one row is ever
// consulted during verification (latest unused by created_at).
type VerificationCode struct {
	ID        int64     `json:"id"`
	Mobile    string    `json:"mobile"`
	Code      string    `json:"-"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

func (v *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// CanTry reports whether the attempt budget is still open. Checked
// before comparing the submitted code, so an exhausted row cannot be
// probed further.
func (v *VerificationCode) CanTry(maxAttempts int) bool {
	return v.Attempts < maxAttempts
}
