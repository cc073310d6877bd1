package domain

// TokenPair is the access/refresh credential pair issued by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Session is the authentication state of the client. CurrentUser is only set
// while an access token is present.
type Session struct {
	Tokens      TokenPair
	CurrentUser *User
}

func (s Session) Authenticated() bool {
	return s.Tokens.AccessToken != ""
}
