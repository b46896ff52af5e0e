// Package password is the opaque one-way credential primitive: argon2id
// hashing to PHC strings and constant-time verification. Callers never see
// derived keys or salts, only the encoded hash and a boolean match.
package password
