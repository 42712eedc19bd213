package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/authorizerdev/authorizer-go"
	"github.com/mascarene/tourdesk/internal/config"
	"github.com/mascarene/tourdesk/internal/utils"
)

var (
	authClient *authorizer.AuthorizerClient
	authOnce   sync.Once
)

// IsAuthorizerInitialized returns true if the Authorizer client is initialized
func IsAuthorizerInitialized() bool {
	return authClient != nil
}

// InitAuthorizer initializes the Authorizer client (singleton pattern)
func InitAuthorizer(cfg *config.Config, requestProtocol, requestHost string) error {
	var initErr error

	authOnce.Do(func() {
		// Ping the Authorizer service first
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
		log.Printf("Initializing Authorizer: authorizerURL=%s, clientID=%s, redirectURL=%s",
			cfg.AuthzURL, cfg.AuthzClientID, redirectURL)

		var err error
		authClient, err = authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
		if err != nil {
			initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
	})

	return initErr
}

// ValidateSession validates a session cookie for the given roles and returns
// the authenticated user
func ValidateSession(cookie string, roles []string) (*authorizer.User, error) {
	if authClient == nil {
		return nil, fmt.Errorf("authorizer client not initialized")
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	// Validate session using the authorizer-go SDK
	res, err := authClient.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}

	// Check if session is valid
	if res == nil || !res.IsValid {
		return nil, fmt.Errorf("session is not valid")
	}

	return res.User, nil
}

// SignupUser registers a new account with the Authorizer service via a raw
// GraphQL mutation and returns the new auth user id. Used by the admin user
// creation flow; the profile document is written separately.
func SignupUser(cfg *config.Config, email, password, name string, roles []string) (string, error) {
	query := `mutation signup($params: SignUpInput!) {
		signup(params: $params) {
			user {
				id
				email
			}
		}
	}`

	params := map[string]interface{}{
		"email":            email,
		"password":         password,
		"confirm_password": password,
		"given_name":       name,
	}
	if len(roles) > 0 {
		params["roles"] = roles
	}

	payload := map[string]interface{}{
		"query":     query,
		"variables": map[string]interface{}{"params": params},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	// Append /graphql to base URL
	graphqlURL := strings.TrimSuffix(cfg.AuthzURL, "/") + "/graphql"
	req, err := http.NewRequest("POST", graphqlURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode JSON: %v, body: %s", err, string(body))
	}

	if errors, ok := result["errors"].([]interface{}); ok && len(errors) > 0 {
		return "", fmt.Errorf("GraphQL error: %v", errors[0])
	}

	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("no data in response, body: %s", string(body))
	}
	signup, ok := data["signup"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("no signup in data, body: %s", string(body))
	}
	user, ok := signup["user"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("no user in signup response, body: %s", string(body))
	}
	id, _ := user["id"].(string)
	if id == "" {
		return "", fmt.Errorf("signup returned no user id")
	}

	return id, nil
}
