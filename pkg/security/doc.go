/*
Package security provides password hashing and the credential store for lookout.

Two capabilities live here: a PBKDF2 hash function that produces and verifies
self-describing hash strings, and an immutable credential store that maps
usernames to those hashes. The store is built once at startup from
configuration; plaintext passwords found there are hashed on the way in.

# Architecture

	┌──────────────── CREDENTIALS ────────────────┐
	│                                              │
	│   config credentials ([]types.Credential)    │
	│              │                               │
	│              ▼                               │
	│   ┌──────────────────────┐                   │
	│   │ BuildCredentialStore │                   │
	│   │  - reject empty user │                   │
	│   │  - skip duplicates   │                   │
	│   │  - hash plaintext    │──► warn log + hash│
	│   └──────────┬───────────┘                   │
	│              ▼                               │
	│   CredentialStore (read-only)                │
	│     Lookup / Authenticate                    │
	└──────────────────────────────────────────────┘

# Hash Format

	PBKDF2-<iterations>-<saltHex>-<hashHex>

  - PBKDF2-HMAC-SHA256
  - 600000 iterations for new hashes
  - 16-byte random salt, 32-byte derived key
  - lower-case hex

The iteration count and salt travel with the hash, so stored hashes keep
verifying after DefaultIterations is raised.

Verification recomputes the key with the stored parameters and compares with
crypto/subtle.ConstantTimeCompare. A string that does not parse returns an
error wrapping ErrMalformedHash; it is never reported as a plain mismatch.

# Migration

When a configured password is not already in canonical form it is hashed with
a fresh salt, the lookout_password_migrations_total counter is incremented and
a warning carrying the new hash is logged:

	WRN Plaintext password found in configuration, replace it with the hash
	    component=security username=admin hash=PBKDF2-600000-...

The hash can also be produced offline with "lookout hash".

# Usage

	store, err := security.BuildCredentialStore(cfg.Credentials)
	if err != nil {
		return err
	}

	switch result, err := store.Authenticate(user, pass); {
	case err != nil:
		// stored hash is malformed
	case result == security.AuthUnknownUser:
	case result == security.AuthIncorrectPassword:
	}
*/
package security
