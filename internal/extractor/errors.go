package extractor

import "errors"

var (
	// ErrPasswordRequired is returned for an encrypted document opened without a password.
	ErrPasswordRequired = errors.New("document is password protected")
	// ErrIncorrectPassword is returned when the supplied password does not open the document.
	ErrIncorrectPassword = errors.New("incorrect document password")
	// ErrUnreadable is returned when no readable text could be recovered.
	ErrUnreadable = errors.New("no readable text could be extracted")
	// ErrOCRUnavailable is returned when the OCR tools are not installed.
	ErrOCRUnavailable = errors.New("OCR tools are not installed")
)
