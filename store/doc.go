// Package store provides the storage collaborators consumed by the core:
// Redis-backed implementations for deployments and in-memory ones for
// tests and single-node setups. RedisIdentity and MemoryIdentity satisfy
// identity.Store; RedisPosts and MemoryPosts satisfy content.Store.
//
// Records are JSON values under prefixed keys:
//   - <prefix>:user:<id>           identity record
//   - <prefix>:user:email:<email>  lowercased email -> id index
//   - <prefix>:post:<id>           post record
//   - <prefix>:posts:pending       set of unapproved post ids
//   - <prefix>:posts:approved      set of approved post ids
package store
