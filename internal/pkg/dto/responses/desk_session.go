package responses

type DeskSessionResponse struct {
	Token          string `json:"token"`
	DeskID         string `json:"desk_id"`
	ExpiresInHours int    `json:"expires_in_hours"`
}
