package types

import "github.com/google/uuid"

// IsID reports whether id is a canonical UUID, the form of every stored
// driver, center, settlement and fare rate id. Anything else cannot match a
// row and is treated as not found.
func IsID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
