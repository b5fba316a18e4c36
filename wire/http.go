package wire

// HTTP API bodies.

type PeerStats struct {
	TotalPeers int        `json:"total_peers"`
	Peers      []PeerInfo `json:"peers"`
}

type AuthRequest struct {
	Code string `json:"code"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

type ServerStats struct {
	Sessions      int   `json:"sessions"`
	Contents      int   `json:"contents"`
	Messages      int   `json:"messages"`
	Subscribers   int   `json:"subscribers"`
	Published     int64 `json:"published"`
	Unicast       int64 `json:"unicast"`
	Evicted       int64 `json:"evicted"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}
