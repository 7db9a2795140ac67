package tokens

import "fmt"

// ErrInvalidToken is returned by Verify for a malformed or badly-signed
// token.
var ErrInvalidToken = fmt.Errorf("invalid token")

// ErrExpiredToken is returned by Verify when exp is in the past.
var ErrExpiredToken = fmt.Errorf("token expired")

// WrongTypeError is returned by Verify when a token's "type" claim does
// not match what the caller expected (e.g. a refresh token presented
// where an access token was required).
type WrongTypeError struct {
	Want TokenType
	Got  TokenType
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("wrong token type: want %s, got %s", e.Want, e.Got)
}
