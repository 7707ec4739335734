package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/iov-one/msig/x/multisig"
)

func cmdChange(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create a JSON encoded instruction payload that changes the members or the
threshold of a multisig once executed by an approved transaction.

Available kinds are add_member, remove_member, change_threshold,
add_member_and_change_threshold, remove_member_and_change_threshold and
add_authority.
`)
		fl.PrintDefaults()
	}
	var (
		programFl   = flKey(fl, "program", "", "Program ID of the multisig. Required.")
		multisigFl  = flKey(fl, "multisig", "", "Address of the changed multisig. Required.")
		kindFl      = fl.String("kind", "", "Kind of the change. Required.")
		memberFl    = flKey(fl, "member", "", "Member key that is added or removed.")
		thresholdFl = fl.Uint("threshold", 0, "New threshold value.")
	)
	fl.Parse(args)

	if programFl.IsZero() {
		flagDie("program ID is required")
	}
	if multisigFl.IsZero() {
		flagDie("multisig address is required")
	}
	kind, err := multisig.ParseChangeKind(*kindFl)
	if err != nil {
		flagDie("invalid kind: %s", err)
	}
	if *thresholdFl > math.MaxUint16 {
		flagDie("threshold cannot be greater than %d", math.MaxUint16)
	}

	change := multisig.MembershipChange{
		Kind:      kind,
		Member:    *memberFl,
		Threshold: uint16(*thresholdFl),
	}
	in, err := change.Instruction(*programFl, *multisigFl)
	if err != nil {
		return fmt.Errorf("cannot create instruction: %s", err)
	}
	pretty, err := json.MarshalIndent(in, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot JSON serialize: %s", err)
	}
	_, err = output.Write(pretty)
	return err
}
