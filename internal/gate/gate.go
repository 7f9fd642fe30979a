// Package gate centralizes the ownership check applied to every record
// access: all business entities belong to exactly one user, and queries are
// already owner-scoped, so the gate is the second line of defence for
// fetch-by-id paths.
package gate

import "github.com/ldelattre/microgest/internal/apperr"

// Ownable is implemented by every owned model.
type Ownable interface {
	GetUserID() uint
}

// CheckOwner returns a PermissionError when the resource belongs to another
// user. entity/id feed the error message only.
func CheckOwner(userID uint, entity string, id uint, resource Ownable) error {
	if resource == nil || resource.GetUserID() != userID {
		return apperr.Permission(entity, id)
	}
	return nil
}
