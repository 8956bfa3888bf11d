package shared

import (
	"github.com/hairline-erp/hairline/internal/platform/db"
	core "github.com/hairline-erp/hairline/internal/shared"
)

// TranslateWriteError turns a unique violation on a code-like column into a validation error.
func TranslateWriteError(err error, entity, field, value string) error {
	if db.IsUniqueViolation(err, "") {
		return core.ValidationFields(map[string]string{field: entity + " " + value + " already exists"})
	}
	return err
}
