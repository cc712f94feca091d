// Package pfs builds PS4-package-compatible PFS disk images from an in-memory
// filesystem tree: inode tables, directory entries, a flat path table, and
// optional HMAC-SHA256 per-block signing and XTS-AES sector encryption.
//
// The package only builds images; it does not read or verify existing ones.
package pfs
