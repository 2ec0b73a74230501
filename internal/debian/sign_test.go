package debian

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/require"
)

func newArmoredKey(t *testing.T) (string, openpgp.EntityList) {
	t.Helper()

	entity, err := openpgp.NewEntity("Drake Release", "test", "drake-users@mit.edu", &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
	})
	require.NoError(t, err)

	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(w, nil))
	require.NoError(t, w.Close())

	return buf.String(), openpgp.EntityList{entity}
}

// TestSignFile produces a detached signature that verifies against the key.
func TestSignFile(t *testing.T) {
	t.Parallel()

	key, keyring := newArmoredKey(t)

	path := filepath.Join(t.TempDir(), "drake-dev_1.3.0-1_amd64.deb")
	require.NoError(t, os.WriteFile(path, []byte("package bytes"), 0o644))

	sigPath, err := SignFile(path, key)
	require.NoError(t, err)
	require.Equal(t, path+SignatureSuffix, sigPath)

	signed, err := os.Open(path)
	require.NoError(t, err)

	defer signed.Close()

	signature, err := os.Open(sigPath)
	require.NoError(t, err)

	defer signature.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, signed, signature, nil)
	require.NoError(t, err)
}

// TestSignFileRejectsPublicKeyOnly requires a private key in the ring.
func TestSignFileRejectsPublicKeyOnly(t *testing.T) {
	t.Parallel()

	_, keyring := newArmoredKey(t)

	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, keyring[0].Serialize(w))
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "pkg.deb")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err = SignFile(path, buf.String())
	require.ErrorIs(t, err, errNoPrivateKey)

	_, err = SignFile(path, "garbage")
	require.Error(t, err)
}
