package model

// Profile holds the public details of a user.
type Profile struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	About       string `json:"about"`
	HasAvatar   bool   `json:"has_avatar"`
	Verified    bool   `json:"verified"`
}

// Name returns the display name, falling back to the username.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}
