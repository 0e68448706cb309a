package opsqueue

import "github.com/milestonehq/milestone/internal/apperr"

func catalogConflict(err error) bool {
	return apperr.CategoryOf(err) == apperr.Conflict
}
