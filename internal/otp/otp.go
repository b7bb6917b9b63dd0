package otp

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Store is the slice of database/sql the OTP flow needs, including Begin for
// the verify transaction.
type Store interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Begin() (*sql.Tx, error)
}

type Service struct {
	DB     Store
	Digits int
	TTL    time.Duration
	APIKey string
	From   string
}

func randomDigit(n int) (string, error) {
	res := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		res[i] = byte('0' + v.Int64())
	}
	return string(res), nil
}

func (s *Service) Generate(email, purpose string) (string, error) {
	code, err := randomDigit(s.Digits)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().UTC().Add(s.TTL)

	_, err = s.DB.Exec(
		`INSERT INTO otp_codes (email, code, purpose, expires_at)
         VALUES (?, ?, ?, ?)`,
		email, code, purpose, expiresAt,
	)
	if err != nil {
		return "", err
	}

	from := mail.NewEmail("ChatApp", s.From)
	to := mail.NewEmail("", email)
	subject := fmt.Sprintf("ChatApp %s code", purpose)
	body := fmt.Sprintf("Your verification code for %s is %s", purpose, code)
	msg := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(s.APIKey)
	if _, err := client.Send(msg); err != nil {
		return "", fmt.Errorf("failed to send otp mail: %w", err)
	}

	return code, nil
}

func (s *Service) Verify(email, purpose, code string) (bool, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Expired codes are swept inside the same transaction.
	_, _ = tx.Exec(`DELETE FROM otp_codes WHERE expires_at <= CURRENT_TIMESTAMP`)

	var n int
	row := tx.QueryRow(
		`SELECT COUNT(1) FROM otp_codes
         WHERE email=? AND purpose=? AND code=?
           AND expires_at > CURRENT_TIMESTAMP`,
		email, purpose, code,
	)

	if err := row.Scan(&n); err != nil {
		return false, err
	}

	if n == 1 {
		_, err := tx.Exec(
			`DELETE FROM otp_codes
             WHERE email=? AND purpose=? AND code=?`,
			email, purpose, code,
		)
		if err != nil {
			return false, err
		}
		return true, tx.Commit()
	}

	return false, nil
}
