package model

// Role is the coarse authorization role carried by an authenticated principal.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// Principal is the opaque authenticated identity supplied to every engine
// call. The engine scopes sessions by Principal.ID and never inspects
// anything else about the caller.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
