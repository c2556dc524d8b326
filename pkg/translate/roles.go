package translate

import "github.com/chatbridge-dev/chatbridge/pkg/backend"

var validRoles = map[string]bool{
	backend.RoleSystem:    true,
	backend.RoleUser:      true,
	backend.RoleAssistant: true,
	backend.RoleFunction:  true,
}

var roleMapping = map[string]string{
	"developer": backend.RoleSystem,
	"tool":      backend.RoleFunction,
}

// MapRole maps an inbound role onto the backend's role set. The backend
// honors a system message only in first position, so a system (or
// developer) role arriving after one has been seen becomes user. Unknown
// roles become user.
func MapRole(role string, allowSystem bool) string {
	mapped, ok := roleMapping[role]
	if !ok {
		mapped = role
	}

	if mapped == backend.RoleSystem && !allowSystem {
		return backend.RoleUser
	}

	if !validRoles[mapped] {
		return backend.RoleUser
	}

	return mapped
}
