package analyst

// Role represents the role of a message sender.
type Role string

const (
	RoleUser    Role = "user"
	RoleAnalyst Role = "analyst"
)
