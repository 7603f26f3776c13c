package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

const certificateSuffixBytes = 6

var certificateNumberPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,15}-\d{4}-[A-Z0-9]{6,32}$`)

// CertificateNumberGenerator produces PREFIX-YEAR-SUFFIX identifiers with a random hex suffix.
type CertificateNumberGenerator struct {
	prefix string
	random io.Reader
}

// NewCertificateNumberGenerator constructs a generator using crypto/rand.
func NewCertificateNumberGenerator(prefix string) *CertificateNumberGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "DRTROY"
	}
	return &CertificateNumberGenerator{prefix: prefix, random: rand.Reader}
}

// Next returns a new certificate number for the year of now.
func (g *CertificateNumberGenerator) Next(now time.Time) (string, error) {
	buf := make([]byte, certificateSuffixBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("generate certificate suffix: %w", err)
	}
	return fmt.Sprintf("%s-%04d-%s", g.prefix, now.UTC().Year(), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// NormalizeCertificateNumber trims and upper-cases number and validates its format.
func NormalizeCertificateNumber(number string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(number))
	if !certificateNumberPattern.MatchString(normalized) {
		return "", ErrInvalidCertificateNumber
	}
	return normalized, nil
}
