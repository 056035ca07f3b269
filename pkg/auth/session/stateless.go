package session

import "context"

// Stateless is used when no Redis is configured. Sessions then live only in the signed
// token: they end at expiry, sign-out cannot revoke them server-side and refresh is refused.
type Stateless struct{}

func (Stateless) Start(context.Context, string) (string, error) {
	return "", nil
}

func (Stateless) Rotate(context.Context, string, string) (string, string, error) {
	return "", "", ErrInvalidRefreshToken
}

func (Stateless) Revoke(context.Context, string) error {
	return nil
}

func (Stateless) HasSession(context.Context, string) (bool, error) {
	return true, nil
}
