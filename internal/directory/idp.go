package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrCredentialsRejected is returned when the identity provider refuses the
// email/password pair.
var ErrCredentialsRejected = errors.New("directory: identity provider rejected credentials")

// IDPClient wraps the remote identity provider's credential API. It only
// verifies identities; profile data always comes from the profile store.
type IDPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// IDPConfig holds the essentials for the client.
type IDPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewIDPClient creates a client using an API key.
func NewIDPClient(cfg IDPConfig) (*IDPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("idp: base url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("idp: api key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &IDPClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}, nil
}

// VerifyPassword asks the provider to check the credentials and returns the
// stable subject id of the verified identity.
func (c *IDPClient) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Subject string `json:"subject"`
	}
	err := c.post(ctx, "/v1/credentials:verify", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Subject == "" {
		return "", errors.New("idp: verify response missing subject")
	}
	return out.Subject, nil
}

// RevokeSessions invalidates every provider-side session for a subject.
func (c *IDPClient) RevokeSessions(ctx context.Context, subject string) error {
	return c.post(ctx, "/v1/sessions:revoke", map[string]string{"subject": subject}, nil)
}

func (c *IDPClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return ErrCredentialsRejected
	default:
		return fmt.Errorf("idp: %s returned status %d", path, resp.StatusCode)
	}
}
