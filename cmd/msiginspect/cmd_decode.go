package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/iov-one/msig/x/multisig"
)

// accountView is the JSON representation of a decoded account record.
type accountView struct {
	Kind    string      `json:"kind"`
	Size    int         `json:"size"`
	Account interface{} `json:"account"`
}

func cmdDecode(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Decode a stored account record and display it as JSON. The kind of the record
is detected from its discriminator. Input is expected to be hex encoded unless
the -raw flag is set. Allocation padding following the record is ignored.
`)
		fl.PrintDefaults()
	}
	rawFl := fl.Bool("raw", false, "Input is a binary record instead of a hex encoded one.")
	fl.Parse(args)

	raw, err := ioutil.ReadAll(input)
	if err != nil {
		return fmt.Errorf("cannot read record: %s", err)
	}
	if !*rawFl {
		raw, err = hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return fmt.Errorf("cannot hex decode record: %s", err)
		}
	}
	if len(raw) == 0 {
		return errors.New("no input data")
	}

	view, err := decodeAccount(raw)
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(view, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot JSON serialize: %s", err)
	}
	_, err = output.Write(pretty)
	return err
}

// decodeAccount tries every known record kind in turn. Only the kind with a
// matching discriminator can succeed.
func decodeAccount(raw []byte) (*accountView, error) {
	var ms multisig.Multisig
	if err := ms.UnmarshalAccount(raw); err == nil {
		return &accountView{Kind: "multisig", Size: ms.Size(), Account: &ms}, nil
	} else if !multisig.ErrDiscriminator.Is(err) {
		return nil, fmt.Errorf("cannot decode multisig: %s", err)
	}

	var tx multisig.Transaction
	if err := tx.UnmarshalAccount(raw); err == nil {
		return &accountView{Kind: "transaction", Size: tx.Size(), Account: &tx}, nil
	} else if !multisig.ErrDiscriminator.Is(err) {
		return nil, fmt.Errorf("cannot decode transaction: %s", err)
	}

	var ix multisig.Instruction
	if err := ix.UnmarshalAccount(raw); err == nil {
		return &accountView{Kind: "instruction", Size: ix.Size(), Account: &ix}, nil
	} else if !multisig.ErrDiscriminator.Is(err) {
		return nil, fmt.Errorf("cannot decode instruction: %s", err)
	}

	return nil, errors.New("unknown account discriminator")
}
