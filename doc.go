// Package authkit implements the credential and token lifecycle for the
// contacts platform: login, token refresh, forgot/reset password, and
// email-verified signup.
//
// Tokens:
//   - Every token is a double-sealed credential. TokenClaims are signed
//     into an HS256 JWT by ClaimCodec, then the compact JWT is encrypted
//     by TransportCipher so clients only ever see opaque ciphertext.
//     TokenIssuer and TokenValidator pair the two layers.
//   - Refresh and password-reset tokens embed the account's password
//     hash at issuance as a fingerprint. Changing the password changes
//     the stored hash and every outstanding fingerprinted token stops
//     resolving, which is the only revocation mechanism.
//
// Flows:
//   - Each operation is a message/handler pair (LoginHandler,
//     RefreshHandler, ForgotPasswordHandler, ResetPasswordHandler,
//     SignupVerificationHandler, VerifyEmailHandler,
//     RegisterUserHandler). Handlers honor context cancellation and
//     report results through the message's OnResponse callback.
//   - AuthController maps the flows onto Fiber routes, including the
//     x-app-key header that selects the app audience TTL profile, and
//     NewAuthGuard protects routes behind a valid access token.
package authkit
