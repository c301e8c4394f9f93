// Package users provisions local user accounts from validated identity
// claims. It contains the account store and the built-in user-mapping
// capabilities that turn a userinfo claim set into a stored user.
package users
