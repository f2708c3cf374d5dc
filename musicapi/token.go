package musicapi

import (
	"context"
	"errors"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenManager caches one bearer token. Callers block on the mutex while an
// exchange is in flight, so concurrent first requests authenticate once.
type tokenManager struct {
	mutex      sync.Mutex
	config     *clientcredentials.Config
	httpClient *http.Client
	token      *oauth2.Token
}

func newTokenManager(baseURL string, clientID string, clientSecret string, httpClient *http.Client) *tokenManager {
	return &tokenManager{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     baseURL + "/auth/token",
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
	}
}

// get returns the cached token, exchanging credentials when it is absent or
// expired.
func (m *tokenManager) get(ctx context.Context) (*oauth2.Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.token.Valid() {
		return m.token, nil
	}
	return m.exchange(ctx)
}

// refresh replaces stale with a new token. If another caller already swapped
// it, that token is reused.
func (m *tokenManager) refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.token != stale && m.token.Valid() {
		return m.token, nil
	}
	m.token = nil
	return m.exchange(ctx)
}

func (m *tokenManager) authenticate(ctx context.Context) (*oauth2.Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.exchange(ctx)
}

func (m *tokenManager) exchange(ctx context.Context) (*oauth2.Token, error) {
	logger := log.WithFields(log.Fields{"module": "musicapi", "function": "exchange"})
	logger.Trace("Requesting access token")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	token, err := m.config.Token(ctx)
	if err != nil {
		authErr := &AuthenticationError{Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			authErr.StatusCode = retrieveErr.Response.StatusCode
		}
		logger.Errorf("Token exchange failed: %v", authErr)
		return nil, authErr
	}

	if token.Expiry.IsZero() {
		logger.Debug("Access token issued without expiry")
	} else {
		logger.Debugf("Access token issued, expires at %s", token.Expiry.Format("15:04:05"))
	}
	m.token = token
	return token, nil
}
