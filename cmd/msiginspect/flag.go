package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// keyValue is a flag.Value of a base58 encoded public key.
type keyValue struct {
	key *solana.PublicKey
}

func (v keyValue) String() string {
	if v.key == nil || v.key.IsZero() {
		return ""
	}
	return v.key.String()
}

func (v keyValue) Set(s string) error {
	k, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return err
	}
	*v.key = k
	return nil
}

// flKey returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. This
// function follows Go's flag package convention.
// If given value cannot be deserialized to required type, process is
// terminated.
func flKey(fl *flag.FlagSet, name, defaultVal, usage string) *solana.PublicKey {
	var k solana.PublicKey
	if defaultVal != "" {
		var err error
		k, err = solana.PublicKeyFromBase58(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q public key flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var(keyValue{key: &k}, name, usage)
	return &k
}

// flagDie terminates the process after printing a flag related error message.
func flagDie(description string, args ...interface{}) {
	s := fmt.Sprintf(description, args...)
	fmt.Fprintln(os.Stderr, s)
	os.Exit(2)
}
