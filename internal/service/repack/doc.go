// Package repack implements repack-deb: it turns a binary release tarball
// into a Debian package installing under /opt/<product>.
//
// The pipeline is linear and every failure aborts the run:
//
//   - locate the debian/* templates and read the release metadata from the archive;
//   - render debian/control and debian/changelog;
//   - convert the archive with alien inside a temporary directory;
//   - move the payload to opt/<product> and overwrite the generated debian/* files;
//   - build the binary package with debian/rules and move it to the output directory.
//
// The temporary directory is removed on every exit path.
package repack
