package domain

import "errors"

var (
	ErrNotFound               = errors.New("resource not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrSocialAuthTokenInvalid = errors.New("invalid or expired social auth token")
	ErrSocialAuthEmailMissing = errors.New("social auth token carries no verified email")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy with another request")

	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile           = errors.New("no file provided")
	ErrTooManyPages        = errors.New("document exceeds maximum allowed page count")
	ErrUnreadableDocument  = errors.New("document could not be read")

	ErrMalformedModelOutput = errors.New("model returned output that is not valid JSON")
	ErrModelUnavailable     = errors.New("model request failed")
	ErrEmptyInstruction     = errors.New("instruction must not be empty")

	ErrRowOutOfRange    = errors.New("row index out of range")
	ErrUnknownColumn    = errors.New("column is not part of the table")
	ErrInvalidCellValue = errors.New("cell value must be a string, number, boolean or null")
	ErrInvalidDataset   = errors.New("dataset must be an array of objects")
	ErrEmptyTable       = errors.New("table has no rows")

	ErrStorageDisabled = errors.New("object storage is not configured")
)
