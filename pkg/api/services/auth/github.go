package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubConfig configures the GitHub provider. The endpoint fields
// default to the real GitHub URLs and exist so tests can point the
// provider at an httptest server.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// GitHubProvider implements Provider against the GitHub OAuth2 flow.
type GitHubProvider struct {
	cfg        *oauth2.Config
	apiBaseURL string
}

// NewGitHubProvider builds a provider requesting the user:email scope.
func NewGitHubProvider(cfg GitHubConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	return &GitHubProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"user:email"},
			Endpoint:     endpoint,
		},
		apiBaseURL: apiBase,
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthorizeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// githubUser is the subset of GitHub's /user response the flow needs.
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (string, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderExchange, err)
	}
	return token.AccessToken, nil
}

func (p *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	client := p.cfg.Client(ctx, &oauth2.Token{AccessToken: accessToken})

	user, err := p.fetchUser(ctx, client)
	if err != nil {
		return nil, err
	}

	externalID := strconv.FormatInt(user.ID, 10)

	email := user.Email
	if email == "" {
		// The /user payload omits the address for users with a private
		// email; /user/emails needs the user:email scope.
		email = p.fetchPrimaryEmail(ctx, client)
	}
	if email == "" {
		// Synthetic but unique placeholder derived from the external id.
		email = fmt.Sprintf("%s+github@users.noreply.github.com", externalID)
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		ExternalID: externalID,
		Login:      user.Login,
		Name:       name,
		Email:      email,
	}, nil
}

func (p *GitHubProvider) fetchUser(ctx context.Context, client *http.Client) (*githubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderExchange, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: github api returned status %d", ErrProviderExchange, resp.StatusCode)
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderExchange, err)
	}
	return &user, nil
}

// fetchPrimaryEmail prefers the primary verified address, then any
// verified one. Failures fall through to the synthetic placeholder.
func (p *GitHubProvider) fetchPrimaryEmail(ctx context.Context, client *http.Client) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/user/emails", nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return ""
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

var _ Provider = (*GitHubProvider)(nil)
