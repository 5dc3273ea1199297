// Package updater brings the memory bank in a working directory up to date
// with the upstream repository. A run lists the remote files, compares them
// byte for byte with the local copies, asks before writing each new, missing
// or changed file, and advances the patch version recorded in
// productContext.md when anything was written.
package updater
