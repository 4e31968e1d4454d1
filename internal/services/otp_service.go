package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hooshmetr/internal/models"
	"hooshmetr/internal/repositories"
	"hooshmetr/internal/utils"
)

var (
	ErrInvalidMobile   = errors.New("invalid mobile number")
	ErrSendThrottled   = errors.New("send throttled")
	ErrNoCodeRequested = errors.New("no code requested")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrCodeMismatch    = errors.New("code mismatch")
)

// SMSSender is the delivery collaborator; *utils.TSMSClient in
// production.
type SMSSender interface {
	SendCode(mobile, code string) error
}

// SendCounter counts issuances in a rolling window (redis when
// configured). May be left nil, in which case the database row count
// serves as the throttle.
type SendCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

const (
	defaultCodeTTL     = 2 * time.Minute
	defaultMaxAttempts = 5
	defaultCodeLength  = 5
	defaultMaxSends    = 3
	defaultSendWindow  = 10 * time.Minute
)

// OTPService issues and validates one-time login codes. All state
// lives in the verification_codes table; the service itself holds no
// mutable state, so any number of instances can run side by side.
type OTPService struct {
	verifications repositories.VerificationRepository
	users         UserService
	sms           SMSSender
	counter       SendCounter

	CodeTTL     time.Duration
	MaxAttempts int
	CodeLength  int
	MaxSends    int
	SendWindow  time.Duration
	Debug       bool
	Now         func() time.Time
}

func NewOTPService(
	verifications repositories.VerificationRepository,
	users UserService,
	sms SMSSender,
	counter SendCounter,
) *OTPService {
	return &OTPService{
		verifications: verifications,
		users:         users,
		sms:           sms,
		counter:       counter,
		CodeTTL:       defaultCodeTTL,
		MaxAttempts:   defaultMaxAttempts,
		CodeLength:    defaultCodeLength,
		MaxSends:      defaultMaxSends,
		SendWindow:    defaultSendWindow,
		Now:           time.Now,
	}
}

// SendCode generates a fresh code for the mobile, invalidates any
// previous one and hands the code to the SMS gateway in the
// background. Returns the code lifetime in seconds. Delivery failure
// never fails the call; the code is valid the moment it is stored.
func (s *OTPService) SendCode(mobile string) (int, error) {
	if !utils.ValidMobile(mobile) {
		return 0, ErrInvalidMobile
	}

	if err := s.checkSendBudget(mobile); err != nil {
		return 0, err
	}

	code, err := utils.GenerateCode(s.CodeLength)
	if err != nil {
		return 0, fmt.Errorf("otp send: %w", err)
	}

	now := s.Now()
	rec := &models.VerificationCode{
		Mobile:    mobile,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.CodeTTL),
	}
	if err := s.verifications.SupersedeAndCreate(rec); err != nil {
		return 0, fmt.Errorf("otp send: %w", err)
	}

	if s.Debug {
		log.Printf("[otp][send] mobile=%s code=%s", mobile, code)
	}

	// fire and forget: gateway latency or failure must not delay or
	// fail issuance
	go func() {
		if err := s.sms.SendCode(mobile, code); err != nil {
			log.Printf("[otp][send] sms delivery failed: mobile=%s err=%v", mobile, err)
		}
	}()

	return int(s.CodeTTL.Seconds()), nil
}

func (s *OTPService) checkSendBudget(mobile string) error {
	if s.MaxSends <= 0 {
		return nil
	}

	if s.counter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		n, err := s.counter.IncrWindow(ctx, "otp_send:"+mobile, s.SendWindow)
		if err == nil {
			if n > int64(s.MaxSends) {
				return ErrSendThrottled
			}
			return nil
		}
		log.Printf("[otp][send] counter unavailable, using db count: %v", err)
	}

	since := s.Now().Add(-s.SendWindow)
	sent, err := s.verifications.CountRecentSends(mobile, since)
	if err != nil {
		return fmt.Errorf("otp send budget: %w", err)
	}
	if sent >= s.MaxSends {
		return ErrSendThrottled
	}
	return nil
}

// VerifyCode checks the submitted code against the newest active
// record for the mobile and, on success, consumes it and resolves the
// account (creating it on first login). Order of checks matters:
// expiry, then attempt budget, then comparison. An exhausted record
// is never compared against, so it cannot be probed further.
func (s *OTPService) VerifyCode(mobile, code string) (*models.User, error) {
	rec, err := s.verifications.GetLatestActive(mobile)
	if err != nil {
		return nil, fmt.Errorf("otp verify: %w", err)
	}
	if rec == nil {
		return nil, ErrNoCodeRequested
	}

	now := s.Now()
	if rec.IsExpired(now) {
		return nil, ErrCodeExpired
	}
	if !rec.CanTry(s.MaxAttempts) {
		return nil, ErrTooManyAttempts
	}

	if rec.Code != code {
		if _, err := s.verifications.IncrementAttempts(rec.ID); err != nil {
			// if the attempt cannot be recorded the submission must
			// not count as consumed budget, surface the failure
			return nil, fmt.Errorf("otp verify: %w", err)
		}
		return nil, ErrCodeMismatch
	}

	consumed, err := s.verifications.Consume(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("otp verify: %w", err)
	}
	if !consumed {
		// lost a race against a concurrent verify of the same code
		return nil, ErrNoCodeRequested
	}

	user, err := s.users.GetOrCreateByMobile(mobile, now)
	if err != nil {
		return nil, fmt.Errorf("otp verify: %w", err)
	}
	s.users.TouchLastLogin(user.ID, now)

	return user, nil
}
