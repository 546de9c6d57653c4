package entity

// AuthTokens is the credential pair issued on sign-in or refresh.
type AuthTokens struct {
	UID          string `json:"uid"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}
