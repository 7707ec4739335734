package main

import (
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/x/multisig"
)

func cmdAddress(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Derive the address of an account record together with its bump.

  multisig     parent is the create key, index is ignored
  transaction  parent is the multisig address
  instruction  parent is the transaction address
  authority    parent is the multisig address
`)
		fl.PrintDefaults()
	}
	var (
		programFl = flKey(fl, "program", "", "Program ID the address is derived for. Required.")
		parentFl  = flKey(fl, "parent", "", "Key the address is derived from. Required.")
		kindFl    = fl.String("kind", "multisig", "Kind of the account: multisig, transaction, instruction or authority.")
		indexFl   = fl.Uint64("index", 1, "Index of the transaction, instruction or authority.")
	)
	fl.Parse(args)

	if programFl.IsZero() {
		flagDie("program ID is required")
	}
	if parentFl.IsZero() {
		flagDie("parent key is required")
	}

	var (
		addr solana.PublicKey
		bump uint8
		err  error
	)
	switch *kindFl {
	case "multisig":
		addr, bump, err = multisig.MultisigAddress(*programFl, *parentFl)
	case "transaction":
		if *indexFl > math.MaxUint32 {
			flagDie("transaction index cannot be greater than %d", uint32(math.MaxUint32))
		}
		addr, bump, err = multisig.TransactionAddress(*programFl, *parentFl, uint32(*indexFl))
	case "instruction":
		if *indexFl > math.MaxUint8 {
			flagDie("instruction index cannot be greater than %d", math.MaxUint8)
		}
		addr, bump, err = multisig.InstructionAddress(*programFl, *parentFl, uint8(*indexFl))
	case "authority":
		if *indexFl > math.MaxUint32 {
			flagDie("authority index cannot be greater than %d", uint32(math.MaxUint32))
		}
		addr, bump, err = multisig.AuthorityAddress(*programFl, *parentFl, uint32(*indexFl))
	default:
		flagDie("unknown account kind %q", *kindFl)
	}
	if err != nil {
		return fmt.Errorf("cannot derive address: %s", err)
	}
	_, err = fmt.Fprintf(output, "%s\t%d\n", addr, bump)
	return err
}
