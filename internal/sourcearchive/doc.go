// Package sourcearchive reads the binary release tarball (*.tar.gz) that
// repack-deb converts.
//
// Only two small text entries are extracted: the version marker
// (<product>/share/doc/<product>/VERSION.TXT) and the per-distribution
// dependency list (<product>/share/<product>/setup/packages-<codename>.txt).
// The payload itself is left to the converter.
package sourcearchive
