package deception

import "errors"

// ErrEmptyText is returned when a request carries no text to classify.
var ErrEmptyText = errors.New("no text provided")

// ErrClassifierUnavailable indicates no classifier backend is configured.
var ErrClassifierUnavailable = errors.New("deception classifier unavailable")

// ErrInvalidDistribution indicates a backend returned something that is not a 2-class distribution.
var ErrInvalidDistribution = errors.New("invalid class distribution")

// ErrQuotaExceeded indicates the classifier provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("classifier quota exceeded")
