package api

type ConnectRequest struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Token  string `json:"token"`
}

type ConnectStatus struct {
	Connected bool `json:"connected"`
}

type AssetResponse struct {
	URL string `json:"url"`
}
