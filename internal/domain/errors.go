package domain

import "errors"

var (
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrMissingOperation    = errors.New("missing operation name")
	ErrEmptyResult         = errors.New("no videos generated")
	ErrUnsupportedEncoding = errors.New("unsupported video encoding")
)
