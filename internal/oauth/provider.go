package oauth

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// json decodes numbers as json.Number so 64-bit user ids survive intact.
var json = jsoniter.Config{UseNumber: true}.Froze()

// Service names, also used to key pending tokens.
const (
	Dropbox = "dropbox"
	Twitter = "twitter"
)

// Provider is the only provider-specific part of the handshake: its
// endpoints and how its profile document maps onto UserProfile. The
// signature engine, the client and the token store are shared.
type Provider struct {
	Name            string
	RequestTokenURL string
	AccessTokenURL  string
	AuthorizeURL    string
	ProfileURL      string
	// ProfileFields are the keys kept on top of the base profile fields.
	// Anything else the mapping returns is dropped.
	ProfileFields []string
	MapProfile    func(doc map[string]any) UserProfile
}

// NewDropbox returns the Dropbox API v1 provider.
func NewDropbox() Provider {
	return Provider{
		Name:            Dropbox,
		RequestTokenURL: "https://api.dropbox.com/1/oauth/request_token",
		AccessTokenURL:  "https://api.dropbox.com/1/oauth/access_token",
		AuthorizeURL:    "https://www.dropbox.com/1/oauth/authorize",
		ProfileURL:      "https://api.dropbox.com/1/account/info",
		ProfileFields:   []string{"country", "email"},
		MapProfile: func(doc map[string]any) UserProfile {
			return UserProfile{
				FieldID:   stringField(doc, "uid"),
				FieldName: stringField(doc, "display_name"),
				"country": stringField(doc, "country"),
				"email":   stringField(doc, "email"),
			}
		},
	}
}

// NewTwitter returns the Twitter OAuth 1.0a provider.
func NewTwitter() Provider {
	return Provider{
		Name:            Twitter,
		RequestTokenURL: "https://api.twitter.com/oauth/request_token",
		AccessTokenURL:  "https://api.twitter.com/oauth/access_token",
		AuthorizeURL:    "https://api.twitter.com/oauth/authorize",
		ProfileURL:      "https://api.twitter.com/1.1/account/verify_credentials.json",
		ProfileFields:   []string{"location"},
		MapProfile: func(doc map[string]any) UserProfile {
			return UserProfile{
				FieldID:       stringField(doc, "id_str"),
				FieldUsername: stringField(doc, "screen_name"),
				FieldName:     stringField(doc, "name"),
				FieldPicture:  stringField(doc, "profile_image_url_https"),
				"location":    stringField(doc, "location"),
			}
		},
	}
}

// ProviderByName selects a built-in provider.
func ProviderByName(name string) (Provider, error) {
	switch name {
	case Dropbox:
		return NewDropbox(), nil
	case Twitter:
		return NewTwitter(), nil
	default:
		return Provider{}, fmt.Errorf("unknown oauth provider %q", name)
	}
}

// buildProfile decodes the profile document and merges the mapped values over
// the default template, keeping only the provider's declared field set.
func (p Provider) buildProfile(body []byte) (UserProfile, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode %s profile: %w", p.Name, err)
	}

	profile := DefaultProfile(p.ProfileFields...)
	for k, v := range p.MapProfile(doc) {
		if _, ok := profile[k]; ok {
			profile[k] = v
		}
	}
	return profile, nil
}

func stringField(doc map[string]any, key string) string {
	v, ok := doc[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
