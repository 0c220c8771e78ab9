// Package users provides account management and authentication (JWT
// issuance, stateful repositories, HTTP controllers) for a small user
// service.
//
// Credential flows:
//   - Registration, login, email verification, password reset, and
//     password change are exposed both as message handlers and through
//     fiber controllers. Single use verification and reset tokens are
//     random opaque strings with a stored expiry; an expired token is
//     indistinguishable from an unknown one by design of the flows.
//   - Login failures collapse to a single generic error so the API
//     cannot be used to enumerate accounts, and forgot-password always
//     reports success for unknown emails.
//
// Revocation:
//   - Logout blacklists the presented access token until its natural
//     expiry. The middleware consults the denylist before signature
//     validation, and a periodic sweep prunes rows that have expired.
//
// Administration:
//   - UserAdmin implements the role-gated listing, creation, update,
//     and soft deletion of accounts. Deletion flips IsActive rather
//     than removing rows; inactive accounts drop out of every lookup
//     the auth paths use.
package users
