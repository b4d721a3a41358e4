package provider

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// OTPTTL is how long a one-time code stays valid.
const OTPTTL = 5 * time.Minute

// OTP verification errors.
var (
	ErrOTPNotFound = errors.New("otp not found or expired")
	ErrOTPMismatch = errors.New("otp code does not match")
)

// OTPStore issues and verifies one-time codes. Codes are stored hashed and
// never returned to any caller after generation; delivery happens out of band
// through an SMS adapter. Verification consumes the code.
type OTPStore struct {
	db    *sql.DB
	clock Clock
}

// NewOTPStore creates the store and its schema. A nil clock uses SystemClock.
func NewOTPStore(db *sql.DB, clock Clock) (*OTPStore, error) {
	if clock == nil {
		clock = SystemClock
	}
	s := &OTPStore{db: db, clock: clock}
	query := `
	CREATE TABLE IF NOT EXISTS otp_codes (
		reference_id TEXT PRIMARY KEY,
		phone TEXT NOT NULL,
		code_hash TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_otp_phone ON otp_codes(phone);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to initialize otp schema: %w", err)
	}
	return s, nil
}

// Issue generates a fresh numeric code for a phone number, stores its hash
// and returns the reference id plus the code for delivery. The code must go
// straight to the SMS adapter and nowhere else.
func (s *OTPStore) Issue(ctx context.Context, phone string, digits int) (referenceID, code string, err error) {
	if digits < 4 || digits > 8 {
		digits = 6
	}
	code, err = generateNumericCode(digits)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate otp: %w", err)
	}

	referenceID = uuid.NewString()
	expiresAt := s.clock.Now().Add(OTPTTL).UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO otp_codes (reference_id, phone, code_hash, expires_at) VALUES (?, ?, ?, ?)`,
		referenceID, phone, hashOTP(code), expiresAt)
	if err != nil {
		return "", "", fmt.Errorf("failed to store otp: %w", err)
	}
	return referenceID, code, nil
}

// Verify checks a submitted code against the stored hash in constant time.
// A successful or mismatched attempt both consume the stored code, so each
// issued code admits exactly one verification attempt.
func (s *OTPStore) Verify(ctx context.Context, referenceID, code string) error {
	var codeHash string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT code_hash, expires_at FROM otp_codes WHERE reference_id = ?`, referenceID).
		Scan(&codeHash, &expiresAt)
	if err == sql.ErrNoRows {
		return ErrOTPNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load otp: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE reference_id = ?`, referenceID); err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}

	if s.clock.Now().After(expiresAt) {
		return ErrOTPNotFound
	}
	if subtle.ConstantTimeCompare([]byte(codeHash), []byte(hashOTP(code))) != 1 {
		return ErrOTPMismatch
	}
	return nil
}

// PurgeExpired removes expired codes and returns how many were removed.
func (s *OTPStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE expires_at < ?`, s.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired otps: %w", err)
	}
	return result.RowsAffected()
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateNumericCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
