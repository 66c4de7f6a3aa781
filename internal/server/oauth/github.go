package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

const ProviderGitHub = "github"

var githubEndpoint = oauth2.Endpoint{
	AuthURL:  "https://github.com/login/oauth/authorize",
	TokenURL: "https://github.com/login/oauth/access_token",
}

const githubAPIBase = "https://api.github.com"

func NewGitHub(c Credentials) Provider {
	return newGitHub(c, githubEndpoint, githubAPIBase)
}

func newGitHub(c Credentials, ep oauth2.Endpoint, apiBase string) *provider {
	return &provider{
		name: ProviderGitHub,
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"user:email"},
			Endpoint:     ep,
		},
		apiBase: apiBase,
		fetch:   fetchGitHubProfile,
	}
}

type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// fetchGitHubProfile falls back to /user/emails when the public profile
// hides the address, preferring the primary verified one.
func fetchGitHubProfile(ctx context.Context, client *http.Client, apiBase string) (*Profile, error) {
	var u githubUser
	if err := getJSON(ctx, client, apiBase+"/user", &u); err != nil {
		return nil, err
	}

	p := &Profile{Email: u.Email, Name: u.Name, AvatarURL: u.AvatarURL}
	if p.Name == "" {
		p.Name = u.Login
	}
	if p.Email != "" {
		return p, nil
	}

	var emails []githubEmail
	if err := getJSON(ctx, client, apiBase+"/user/emails", &emails); err != nil {
		return nil, err
	}
	p.Email = pickGitHubEmail(emails)
	return p, nil
}

func pickGitHubEmail(emails []githubEmail) string {
	var fallback string
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	return fallback
}
