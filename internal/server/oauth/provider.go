// Package oauth exchanges authorization codes with external identity
// providers and turns the provider's user info into a Profile.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/oauth2"
)

// Profile is a provider-verified identity.
type Profile struct {
	Provider  string
	Email     string
	Name      string
	AvatarURL string
}

type Provider interface {
	Name() string
	// AuthCodeURL is where the client sends the user to sign in.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the user's profile. A profile
	// without an email fails with common.ErrMissingProviderEmail.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Credentials are the OAuth client settings registered with a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type fetchFunc func(ctx context.Context, client *http.Client, apiBase string) (*Profile, error)

// provider is the shared authorization-code flow; only the profile fetch
// differs between providers.
type provider struct {
	name    string
	cfg     *oauth2.Config
	apiBase string
	fetch   fetchFunc
}

func (p *provider) Name() string { return p.name }

func (p *provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s code exchange: %w", p.name, err)
	}

	profile, err := p.fetch(ctx, p.cfg.Client(ctx, tok), p.apiBase)
	if err != nil {
		return nil, err
	}
	profile.Provider = p.name
	if profile.Email == "" {
		return nil, common.ErrMissingProviderEmail
	}
	return profile, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// Registry looks providers up by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists the configured providers in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
