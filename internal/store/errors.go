package store

import (
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
)

// Sentinel errors shared by every backend. They are domain errors so that
// errors.Is matches by code and the API maps them to HTTP statuses directly.
var (
	ErrNotFound      = domainerrors.NotFound("resource not found")
	ErrAlreadyExists = domainerrors.AlreadyExists("resource already exists")
)
