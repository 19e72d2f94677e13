package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDomain        = errors.New("email outside the required domain")
	ErrUnknownRole          = errors.New("role not supported")
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedFileType  = errors.New("only PDF files are allowed")
	ErrRenderingUnavailable = errors.New("pdf rendering unavailable")
	ErrInvalidToken         = errors.New("invalid token")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
)

// InvalidDomainError is returned for logins outside the required email
// domain. Its message is shown to the user as is.
type InvalidDomainError struct {
	Domain string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("Please sign in using your %s account.", e.Domain)
}

func (e *InvalidDomainError) Is(target error) bool { return target == ErrInvalidDomain }
