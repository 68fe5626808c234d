package user

// Role values understood by the core.
const (
	RoleNormal = "normal"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User is the read-only view the core needs of a user. Registration and
// profile management live in the user-management subsystem.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ShortID     string `json:"short_id"`
	Verified    bool   `json:"verified"`
	Role        string `json:"role"`

	// ShardID is the home-directory shard assignment. Only the row in the
	// home shard is authoritative; empty means the user lives on the home
	// shard itself.
	ShardID string `json:"shard_id,omitempty"`
}
