// Package config loads the readiness check configuration: the run mode, the
// installation source, SSH access settings, probe behavior, the fact source
// and the candidate hosts with their roles.
//
// [LoadFile] applies defaults, then environment overrides, then validates.
// Host entries may use a numeric range, e.g. "ceph-[1-3]".
package config
