package portal

import "errors"

// ErrUnauthorized is the uniform credential-denial signal. Expired,
// consumed and forged credentials are deliberately indistinguishable in
// responses; internal logs may say more.
var ErrUnauthorized = errors.New("unauthorized")
