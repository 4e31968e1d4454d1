package models

type SendCodeRequest struct {
	Mobile string `json:"mobile" binding:"required"`
}

type VerifyCodeRequest struct {
	Mobile string `json:"mobile" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// AuthTokens is the verify response. RefreshToken is reserved for a
// later version and is always empty for now.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}
