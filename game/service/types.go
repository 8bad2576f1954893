package service

// UserInfo describes a connected user
type UserInfo struct {
	Username  string   `json:"username"`
	SessionID string   `json:"session_id"`
	Remote    string   `json:"remote"`
	Rooms     []string `json:"rooms"`
}

// Stats summarizes server load
type Stats struct {
	Connections int64 `json:"connections"`
	Users       int   `json:"users"`
	Rooms       int   `json:"rooms"`
	ActiveGames int   `json:"active_games"`
}
