package persistence

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// translateUniqueViolation maps a unique constraint failure to domainErr.
// gorm only reports gorm.ErrDuplicatedKey when TranslateError is enabled,
// so driver messages are matched as well.
func translateUniqueViolation(err error, domainErr error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return domainErr
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
