// Command jwtkeys generates an ECDSA P-256 key for signing access tokens.
// Setting the printed JWT_SECRET switches the API from HS256 to ES256.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"strings"
)

func main() {
	out := flag.String("o", "", "also write the PEM key to this file")
	flag.Parse()

	keyPEM, err := generateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Add this line to your .env file:")
	fmt.Println(envLine(keyPEM))

	if *out != "" {
		if err := os.WriteFile(*out, keyPEM, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write private key file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Private key saved to %s\n", *out)
	}
}

func generateKey() ([]byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}

// envLine quotes the key on one line; godotenv expands \n inside double quotes
func envLine(keyPEM []byte) string {
	oneLine := strings.ReplaceAll(strings.TrimSpace(string(keyPEM)), "\n", `\n`)
	return `JWT_SECRET="` + oneLine + `"`
}
