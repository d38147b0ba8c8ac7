package transfer

import "errors"

var (
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrEmptyUpload  = errors.New("no files provided")
)
