package model

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID       int64
	Username     string
	Role         Role
	SupplierName string
}

func (a *Actor) Is(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
