package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

const ProviderGoogle = "google"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const googleAPIBase = "https://www.googleapis.com"

func NewGoogle(c Credentials) Provider {
	return newGoogle(c, googleEndpoint, googleAPIBase)
}

func newGoogle(c Credentials, ep oauth2.Endpoint, apiBase string) *provider {
	return &provider{
		name: ProviderGoogle,
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     ep,
		},
		apiBase: apiBase,
		fetch:   fetchGoogleProfile,
	}
}

type googleUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func fetchGoogleProfile(ctx context.Context, client *http.Client, apiBase string) (*Profile, error) {
	var info googleUserInfo
	if err := getJSON(ctx, client, apiBase+"/oauth2/v3/userinfo", &info); err != nil {
		return nil, err
	}
	return &Profile{Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, nil
}
