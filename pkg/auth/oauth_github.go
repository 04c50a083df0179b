package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

// GithubConfig holds the GitHub OAuth application credentials.
type GithubConfig struct {
	ClientID     string `env:"GITHUB_CLIENT_ID,required"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET,required"`
	RedirectURL  string `env:"GITHUB_REDIRECT_URL,required"`
}

// GithubAdapter implements ProviderAdapter for GitHub sign-in. GitHub may
// hide the email on the user object, so the emails endpoint is consulted
// and the primary verified address wins.
type GithubAdapter struct {
	oauth  *oauth2.Config
	client *http.Client
}

func NewGithubAdapter(cfg GithubConfig) *GithubAdapter {
	return &GithubAdapter{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *GithubAdapter) ProviderID() string { return ProviderGithub }

func (a *GithubAdapter) AuthURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

func (a *GithubAdapter) ResolveProfile(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}

	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := a.getJSON(ctx, tok.AccessToken, githubUserURL, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: empty user id", ErrProviderFailure)
	}

	email, verified := user.Email, false
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := a.getJSON(ctx, tok.AccessToken, githubEmailsURL, &emails); err != nil {
		return nil, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			email, verified = e.Email, true
			break
		}
		if email == "" && e.Verified {
			email, verified = e.Email, true
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		EmailVerified:  verified,
		Name:           name,
		AvatarURL:      user.AvatarURL,
	}, nil
}

func (a *GithubAdapter) getJSON(ctx context.Context, accessToken, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrProviderFailure, url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrProviderFailure, err)
	}
	return nil
}
