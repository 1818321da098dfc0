package common

import (
	"github.com/satori/go.uuid"
)

// GenUUID returns a random v4 uuid string.
func GenUUID() string {
	return uuid.NewV4().String()
}
