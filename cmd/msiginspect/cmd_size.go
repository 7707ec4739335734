package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/msig/x/multisig"
)

func cmdSize(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Compute the space that must be allocated for account records.

By default, sizes of a multisig record and of a new transaction record are
displayed for given number of members. When -instruction is set, a JSON
encoded instruction payload is read from the input instead and the size of the
instruction record created from it is displayed.
`)
		fl.PrintDefaults()
	}
	var (
		membersFl     = fl.Uint("members", 1, "Number of multisig members.")
		instructionFl = fl.Bool("instruction", false, "Read a JSON instruction payload from the input.")
	)
	fl.Parse(args)

	if *instructionFl {
		var in multisig.IncomingInstruction
		if err := json.NewDecoder(input).Decode(&in); err != nil {
			return fmt.Errorf("cannot decode instruction: %s", err)
		}
		_, err := fmt.Fprintf(output, "instruction\t%d\n", multisig.InstructionAccountSize(in))
		return err
	}

	if *membersFl == 0 {
		flagDie("members must be greater than zero")
	}
	if *membersFl > multisig.MaxMembers {
		flagDie("members cannot be greater than %d", multisig.MaxMembers)
	}
	n := int(*membersFl)
	_, err := fmt.Fprintf(output, "multisig\t%d\ntransaction\t%d\n",
		multisig.MultisigSize(n), multisig.TransactionInitialSize(n))
	return err
}
