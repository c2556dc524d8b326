package translate

// The backend ships a built-in tool named "web_search". A client tool with
// the same name would collide with it, so the name is rewritten on the way
// out and restored on the way back at every boundary crossing.
var reservedToolNames = map[string]string{
	"web_search": "__chatbridge_user_web_search",
}

var reservedToolNamesReverse = func() map[string]string {
	m := make(map[string]string, len(reservedToolNames))
	for k, v := range reservedToolNames {
		m[v] = k
	}
	return m
}()

// ToBackendToolName maps a client tool name to a name safe to send to the
// backend. Most names pass through unchanged.
func ToBackendToolName(name string) string {
	if mapped, ok := reservedToolNames[name]; ok {
		return mapped
	}
	return name
}

// FromBackendToolName maps a backend function name back to the
// client-visible name.
func FromBackendToolName(name string) string {
	if mapped, ok := reservedToolNamesReverse[name]; ok {
		return mapped
	}
	return name
}
