package auth

import "time"

// Claims are the standard PASETO claims carried by an access token.
type Claims struct {
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// UserID is the user the token was issued to.
func (c *Claims) UserID() string {
	return c.Subject
}
