package platform

// Credentials is the sum type over the two ways into an authenticated
// [Session]: a username/password login or an imported browser cookie set.
// The interface is sealed so downstream code only ever depends on Session.
type Credentials interface {
	credentials()
}

// PasswordLogin authenticates with the platform's login form. The username is
// the account email.
type PasswordLogin struct {
	Username string
	Password string
}

func (PasswordLogin) credentials() {}

// CookieImport wraps an already-authenticated browser cookie set, as a cookie
// name -> value mapping. No network call is made at construction; an invalid
// or expired cookie set is only discovered on first use.
type CookieImport struct {
	Cookies map[string]string
}

func (CookieImport) credentials() {}
