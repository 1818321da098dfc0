package common

import "errors"

var (
	ErrInvalidParam    = errors.New("invalid param")
	ErrObjectNotFound  = errors.New("object not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrBucketNotFound  = errors.New("bucket not found")
	ErrSourceKind      = errors.New("unknown source kind")
	ErrReadOnlySource  = errors.New("source is read only")
	ErrEmptyMeter      = errors.New("empty meter map")
)
