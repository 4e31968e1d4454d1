package authz

import "hooshmetr/internal/models"

// Roles are plain strings on the user row; "user" is the default for
// accounts created through OTP login, "admin" is assigned
// administratively.
func IsAdmin(role string) bool {
	return role == models.RoleAdmin
}

func Valid(role string) bool {
	return role == models.RoleUser || role == models.RoleAdmin
}
