package oauth

import "fmt"

// AccessCredential is the long-lived pair that signs calls made on behalf of
// the user after login.
type AccessCredential struct {
	Token  string `json:"token" cbor:"token"`
	Secret string `json:"secret" cbor:"secret"`
}

// UserProfile is the normalized view of the authenticated user. Every key of
// the provider's field set is present; unknown values are empty strings.
type UserProfile map[string]string

// Base profile keys shared by every provider.
const (
	FieldID       = "id"
	FieldUsername = "username"
	FieldName     = "name"
	FieldPicture  = "picture"
)

var baseFields = []string{FieldID, FieldUsername, FieldName, FieldPicture}

// DefaultProfile returns the template every lookup is merged over.
func DefaultProfile(extra ...string) UserProfile {
	p := make(UserProfile, len(baseFields)+len(extra))
	for _, k := range baseFields {
		p[k] = ""
	}
	for _, k := range extra {
		p[k] = ""
	}
	return p
}

// LoginState tracks one login attempt through the three-legged handshake.
type LoginState int

const (
	StateUnauthenticated LoginState = iota
	StateRequestTokenObtained
	StateAuthorizationURLIssued
	StateAccessTokenExchanged
	StateProfileFetched
)

func (s LoginState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateRequestTokenObtained:
		return "request_token_obtained"
	case StateAuthorizationURLIssued:
		return "authorization_url_issued"
	case StateAccessTokenExchanged:
		return "access_token_exchanged"
	case StateProfileFetched:
		return "profile_fetched"
	default:
		return fmt.Sprintf("LoginState(%d)", int(s))
	}
}
