package debian

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// SignatureSuffix is appended to the package path to name its signature.
const SignatureSuffix = ".asc"

var (
	// errNoPrivateKey is returned when the key ring holds no private key.
	errNoPrivateKey = errors.New("no private key found")
	// errEncryptedKey is returned for passphrase-protected keys.
	errEncryptedKey = errors.New("private key is passphrase protected")
)

// SignFile writes an ASCII-armored detached signature of path, made with
// the first private key in armoredKey, to path + SignatureSuffix.
func SignFile(path, armoredKey string) (string, error) {
	signer, err := readSigner(armoredKey)
	if err != nil {
		return "", err
	}

	in, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = in.Close()
	}()

	sigPath := path + SignatureSuffix

	out, err := os.Create(filepath.Clean(sigPath))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", sigPath, err)
	}

	if err := openpgp.ArmoredDetachSign(out, signer, in, nil); err != nil {
		_ = out.Close()
		_ = os.Remove(sigPath)

		return "", fmt.Errorf("sign %s: %w", path, err)
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", sigPath, err)
	}

	return sigPath, nil
}

func readSigner(armoredKey string) (*openpgp.Entity, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredKey))
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	for _, e := range entities {
		if e.PrivateKey == nil {
			continue
		}

		if e.PrivateKey.Encrypted {
			return nil, errEncryptedKey
		}

		return e, nil
	}

	return nil, errNoPrivateKey
}
