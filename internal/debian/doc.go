// Package debian renders the packaging metadata that repack-deb writes
// into the alien working tree and checks the package that comes out of
// debian/rules.
//
// # Metadata
//
// The control template receives the release's dependency list as an
// indented, comma separated block. The changelog template receives the
// effective version, the git revision of the release and an RFC 2822 date
// taken from the version marker's modification time.
//
// # Output checks
//
// Inspect reads the produced .deb (an ar archive) and, when the control
// member is gzip-compressed or plain, its control stanza. SignFile writes
// an ASCII-armored detached OpenPGP signature next to the package.
package debian
