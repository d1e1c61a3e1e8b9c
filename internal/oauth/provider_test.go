package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderByName(t *testing.T) {
	p, err := ProviderByName(Dropbox)
	require.NoError(t, err)
	assert.Equal(t, "https://api.dropbox.com/1/oauth/request_token", p.RequestTokenURL)

	p, err = ProviderByName(Twitter)
	require.NoError(t, err)
	assert.Equal(t, Twitter, p.Name)

	_, err = ProviderByName("myspace")
	assert.ErrorContains(t, err, "unknown oauth provider")
}

func TestBuildProfileKeepsDeclaredFieldsOnly(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		body     string
		want     UserProfile
	}{
		{
			name:     "dropbox",
			provider: NewDropbox(),
			body:     `{"uid":"42","display_name":"Ada","referral_link":"https://db.tt/x"}`,
			want:     UserProfile{"id": "42", "username": "", "name": "Ada", "picture": "", "country": "", "email": ""},
		},
		{
			name:     "twitter",
			provider: NewTwitter(),
			body:     `{"id_str":"7","screen_name":"ada","name":"Ada L","profile_image_url_https":"https://p/x.png","location":"London","followers_count":3}`,
			want:     UserProfile{"id": "7", "username": "ada", "name": "Ada L", "picture": "https://p/x.png", "location": "London"},
		},
		{
			name:     "null values become empty",
			provider: NewDropbox(),
			body:     `{"uid":null,"display_name":"Ada"}`,
			want:     UserProfile{"id": "", "username": "", "name": "Ada", "picture": "", "country": "", "email": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.provider.buildProfile([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoginStateString(t *testing.T) {
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "profile_fetched", StateProfileFetched.String())
	assert.Equal(t, "LoginState(9)", LoginState(9).String())
}
