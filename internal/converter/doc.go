// Package converter wraps the two external packaging steps of repack-deb:
// alien, which turns the release tarball into a Debian source tree, and
// debian/rules, which builds the binary package from that tree.
//
// alien names its output directory after the archive and the requested
// version in a way that is not documented (drake-latest-focal.tar.gz
// becomes drake-latest-focal-0.0.<ts>, drake-20220512-focal.tar.gz becomes
// drake-0.0.<ts>), so the tree is discovered rather than predicted: the
// conversion directory must contain exactly one subdirectory afterwards.
package converter
