package model

// Badge is a player's avatar description.
type Badge struct {
	Type   any    `json:"type" yaml:"type"`
	Color1 string `json:"color1" yaml:"color1"`
	Color2 string `json:"color2" yaml:"color2"`
	Color3 string `json:"color3" yaml:"color3"`
	Param  int    `json:"param" yaml:"param"`
	Flip   bool   `json:"flip" yaml:"flip"`
}

// User is the public view of a player.
type User struct {
	ID       string `json:"_id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Badge    *Badge `json:"badge,omitempty" yaml:"badge,omitempty"`
	GCL      uint64 `json:"gcl" yaml:"gcl"`
	Power    uint64 `json:"power" yaml:"power"`
}

// MeResponse is returned by GET /auth/me.
type MeResponse struct {
	Envelope        `yaml:",inline"`
	ID              string  `json:"_id" yaml:"id"`
	Email           string  `json:"email" yaml:"email"`
	Username        string  `json:"username" yaml:"username"`
	CPU             int     `json:"cpu" yaml:"cpu"`
	Badge           *Badge  `json:"badge,omitempty" yaml:"badge,omitempty"`
	Password        bool    `json:"password" yaml:"password"`
	GCL             uint64  `json:"gcl" yaml:"gcl"`
	Power           uint64  `json:"power" yaml:"power"`
	Money           float64 `json:"money" yaml:"money"`
	Steam           any     `json:"steam,omitempty" yaml:"steam,omitempty"`
	LastRespawnDate int64   `json:"lastRespawnDate,omitempty" yaml:"last_respawn_date,omitempty"`
}

// UsernameResponse is returned by GET /user/name.
type UsernameResponse struct {
	Envelope `yaml:",inline"`
	Username string `json:"username" yaml:"username"`
}

// UserResponse is returned by GET /user/find.
type UserResponse struct {
	Envelope `yaml:",inline"`
	User     *User `json:"user,omitempty" yaml:"user,omitempty"`
}

// UserRoomsResponse is returned by GET /user/rooms. Shards maps shard names to
// owned room names.
type UserRoomsResponse struct {
	Envelope     `yaml:",inline"`
	Shards       map[string][]string `json:"shards,omitempty" yaml:"shards,omitempty"`
	Reservations map[string][]string `json:"reservations,omitempty" yaml:"reservations,omitempty"`
}
