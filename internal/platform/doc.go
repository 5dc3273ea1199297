// Package platform hides the filesystem differences between Unix and
// Windows that matter when installing an executable: permission bits,
// the .exe suffix and directory write access.
package platform
