package client

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/skywings/booking-service/internal/model"
)

// UserClient resolves user accounts from the identity service. Only the
// account email is consumed here, for the admin flight-manifest view.
type UserClient struct {
    base string
    http *http.Client
}

// NewUserClient builds a client for the identity service rooted at base.
func NewUserClient(base string, timeout time.Duration) *UserClient {
    return &UserClient{
        base: strings.TrimRight(base, "/"),
        http: &http.Client{Timeout: timeout},
    }
}

// GetUser fetches a user account by id. Returns ErrNotFound when the
// identity service does not know the user.
func (c *UserClient) GetUser(ctx context.Context, id string) (*model.UserAccount, error) {
    var u model.UserAccount
    if err := getJSON(ctx, c.http, c.base+"/user/id/"+id, &u); err != nil {
        return nil, err
    }
    return &u, nil
}
