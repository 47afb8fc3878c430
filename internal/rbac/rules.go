package rbac

import "github.com/mind-engage/examportal/internal/users"

// RolePermissions is the permission table per profile role.
var RolePermissions = map[users.Role][]string{
	users.RoleStudent: {
		"dashboard:student",
		"profile:view-own",
		"profile:picture",
		"result:view-own",
		"attempt:create",
		"attempt:submit",
	},
	users.RoleTeacher: {
		"dashboard:teacher",
		"exam:create",
		"exam:manage-own",
		"question:manage-own",
		"attempt:view-own-exams",
	},
}

// denyMessages are flashed when a role lacks the permission. Permissions
// without an entry redirect silently.
var denyMessages = map[string]string{
	"attempt:create": "Only students can take exams!",
	"exam:create":    "Only teachers can create exams!",
}
