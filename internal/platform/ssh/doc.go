// Package ssh establishes key-based remote shell access to candidate storage
// hosts.
//
// A [Session] drives the access bootstrap for one host: it first tries the
// local key, and when the host rejects it and a password is known, it logs in
// with the password and installs the local public key into the remote
// authorized_keys file. Every attempt ends in exactly one terminal [Status].
//
// Sessions never retry on their own. Connectivity failures (name resolution,
// refused connections, timeouts) and credential failures are reported through
// distinct sentinel errors so callers can decide what to retry.
//
// Local key material and known_hosts handling live behind [CredentialStore];
// tests substitute an in-memory store and a fake [Transport].
package ssh
