package auth

import "context"

// Profile is the identity tuple a provider resolves from a finished
// authorization-code flow.
type Profile struct {
	// ExternalID is the provider's stable account id, as a string.
	ExternalID string
	Login      string
	Name       string
	// Email may be a synthetic placeholder when the provider withholds
	// the real address; it is still unique per external identity.
	Email string
}

// Provider abstracts an OAuth identity provider behind the three
// capabilities the login flow needs, so the flow's state machine stays
// provider-agnostic.
type Provider interface {
	// Name is the provider key stored on account links ("github").
	Name() string

	// AuthorizeURL builds the browser redirect target carrying the
	// CSRF state nonce.
	AuthorizeURL(state string) string

	// Exchange trades the authorization code for an access token. A
	// rejected code is wrapped in ErrProviderExchange.
	Exchange(ctx context.Context, code string) (string, error)

	// FetchProfile resolves the access token's external identity. Any
	// provider-side failure is wrapped in ErrProviderExchange.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}
