// Package token issues and reads the session tokens exchanged after a
// successful email verification.
//
// The issuing side (the development backend) signs HS256 tokens carrying the
// verified email. The client side only needs the email for display and reads
// it with [EmailFromUnverified]; it never trusts the token for authorization.
package token
