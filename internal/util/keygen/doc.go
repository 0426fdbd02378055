// Package keygen generates and persists the local RSA key pair used to reach
// candidate storage hosts.
//
// Keys are produced in PEM format (private) and OpenSSH authorized_keys
// format (public). [Ensure] creates the pair in a key directory only when it
// is missing, so an operator's existing id_rsa is never replaced.
package keygen
