// Command gensecret prints a random hex string suitable for the
// SECRET_KEY setting that signs session tokens.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultKeyBytes = 32

func main() {
	keyBytes := pflag.IntP("bytes", "n", defaultKeyBytes, "Key length in bytes before hex encoding")
	pflag.Parse()

	if *keyBytes <= 0 {
		fmt.Fprintln(os.Stderr, "key length must be positive")
		os.Exit(1)
	}

	b := make([]byte, *keyBytes)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
