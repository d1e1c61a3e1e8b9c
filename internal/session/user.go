package session

import "github.com/Gkemhcs/slidebox/internal/oauth"

// Login records the authenticated user and the credential that signs calls
// on their behalf.
func (s Session) Login(credential oauth.AccessCredential, profile oauth.UserProfile) {
	user := make(map[string]any, len(profile))
	for k, v := range profile {
		user[k] = v
	}
	s[KeyCurrentUser] = user
	s[KeyCredentials] = map[string]any{"token": credential.Token, "secret": credential.Secret}
}

// Logout clears the user and credential.
func (s Session) Logout() {
	s.Clear(KeyCurrentUser, KeyCredentials)
}

// Credential returns the stored access credential. Both token and secret
// must be non-empty.
func (s Session) Credential() (oauth.AccessCredential, bool) {
	m, ok := s.Map(KeyCredentials)
	if !ok {
		return oauth.AccessCredential{}, false
	}
	token, _ := m["token"].(string)
	secret, _ := m["secret"].(string)
	if token == "" || secret == "" {
		return oauth.AccessCredential{}, false
	}
	return oauth.AccessCredential{Token: token, Secret: secret}, true
}

// CurrentUser returns the stored profile, or nil when logged out.
func (s Session) CurrentUser() oauth.UserProfile {
	m, ok := s.Map(KeyCurrentUser)
	if !ok {
		return nil
	}
	profile := make(oauth.UserProfile, len(m))
	for k, v := range m {
		if str, ok := v.(string); ok {
			profile[k] = str
		}
	}
	return profile
}

// Username is the display name shown on pages, empty when logged out.
func (s Session) Username() string {
	return s.CurrentUser()[oauth.FieldName]
}
