package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

const commitSignaturePrefix = "sshsig-v1"

// newSSHCommitSigner loads an SSH private key and returns a signer that
// produces the value carried in a commit's gpgsig header, plus the resolved
// key path.
func newSSHCommitSigner(keyPath string) (func([]byte) (string, error), string, error) {
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, "", fmt.Errorf("read signing key %q: %w", keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, "", fmt.Errorf("parse signing key %q: %w", keyPath, err)
	}
	pubKey := base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal())

	sign := func(payload []byte) (string, error) {
		sig, err := signer.Sign(rand.Reader, payload)
		if err != nil {
			return "", fmt.Errorf("ssh sign: %w", err)
		}
		return encodeSSHSignature(sig.Format, pubKey, sig.Blob), nil
	}
	return sign, keyPath, nil
}

// encodeSSHSignature renders the colon-separated gpgsig value:
// prefix, signature algorithm, signer public key, raw signature bytes.
func encodeSSHSignature(algo, pubKey string, blob []byte) string {
	return strings.Join([]string{
		commitSignaturePrefix,
		algo,
		pubKey,
		base64.StdEncoding.EncodeToString(blob),
	}, ":")
}
