package chat

// Message roles as used inside the session model. The UI-facing label for
// assistant messages is "ai"; the provider wire format expects "assistant".
// The mapping lives here, at the boundary, instead of being repeated at call
// sites.
const (
	RoleUser   = "user"
	RoleAI     = "ai"
	RoleSystem = "system"
)

// Wire-format roles of the OpenAI-compatible chat API.
const (
	WireRoleUser      = "user"
	WireRoleAssistant = "assistant"
	WireRoleSystem    = "system"
)

// WireRole translates a session role to its wire-format equivalent.
func WireRole(role string) string {
	if role == RoleAI {
		return WireRoleAssistant
	}
	return role
}

// LocalRole translates a wire-format role to its session equivalent.
func LocalRole(role string) string {
	if role == WireRoleAssistant {
		return RoleAI
	}
	return role
}
