package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	IsAdmin bool            `json:"is_admin"`
}

// Login exchanges credentials for the remote API token.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*model.Session, error) {
	var body loginResponse
	err := c.doJSON(ctx, http.MethodPost, c.endpoint(nil, "login"), loginRequest{Username: username, Password: password}, &body)
	if err != nil {
		var apiErr *domainErrors.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return nil, domainErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if body.Token == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}

	user := username
	var name string
	if err := json.Unmarshal(body.User, &name); err == nil && name != "" {
		user = name
	} else if len(body.User) > 0 && string(body.User) != "null" {
		user = string(body.User)
	}
	return &model.Session{User: user, Token: body.Token, IsAdmin: body.IsAdmin}, nil
}
