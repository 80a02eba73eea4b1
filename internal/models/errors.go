package models

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError marks a request field the caller must fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RateLimitError is returned when either the per-minute window or the
// monthly ceiling rejects a request. Scope distinguishes the two.
type RateLimitError struct {
	Scope      string // "minute" or "monthly"
	RetryAfter time.Duration
	ResetAt    time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%s), retry after %s", e.Scope, e.RetryAfter)
}

// IsRateLimitError checks if an error is a rate limit rejection.
func IsRateLimitError(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// AbuseBlockedError is returned when the trial guard blocks a signup.
type AbuseBlockedError struct {
	Reason string
	Score  int
}

func (e *AbuseBlockedError) Error() string {
	return fmt.Sprintf("trial blocked: %s (score %d)", e.Reason, e.Score)
}

// IsAbuseBlocked checks if an error is a trial-guard block.
func IsAbuseBlocked(err error) bool {
	var abe *AbuseBlockedError
	return errors.As(err, &abe)
}

// CrawlError marks a failed page fetch. The pipeline treats these as
// degradations, not fatal errors.
type CrawlError struct {
	URL string
	Err error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl failed for %s: %v", e.URL, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// IsCrawlError checks if an error is a failed page fetch.
func IsCrawlError(err error) bool {
	var ce *CrawlError
	return errors.As(err, &ce)
}

// ProviderError marks a failed AI provider call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s returned status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError checks if an error is a failed provider call.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
