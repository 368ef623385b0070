package api

import (
	"context"
	"net/http"
)

// User is an account of the panel.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// CurrentUser returns the account behind the bearer token.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	err := c.getJSON(ctx, "/users/me", nil, &u)
	return u, err
}

// ListUsers fetches all accounts. Admin only upstream.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.getJSON(ctx, "/users", nil, &users)
	return users, err
}

// PasswordChange is the body of a password change.
type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// ChangePassword changes the caller's password.
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) error {
	return c.doJSON(ctx, http.MethodPost, "/users/change-password", change, nil)
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/users/%d", id), nil, nil)
}
