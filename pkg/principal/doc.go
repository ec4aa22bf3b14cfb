// Package principal defines the authenticated identity on whose behalf
// entitlement checks and billing operations run.
//
// A Principal is a value object (user ID plus bearer credential) owned by the
// external identity provider. This package only carries it around: components
// receive a Principal through constructor injection or context, and react to
// it becoming available, changing, or going away. There is no session
// lifecycle logic here.
//
// Basic usage:
//
//	p := principal.Principal{ID: userID, Token: accessToken}
//	ctx = principal.WithContext(ctx, p)
//
//	// later, in a handler or service:
//	p, ok := principal.FromContext(ctx)
//	if !ok {
//		return principal.ErrNoPrincipal
//	}
package principal
