package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/iov-one/msig"
	"github.com/iov-one/msig/msigtest"
	"github.com/iov-one/msig/msigtest/assert"
	"github.com/iov-one/msig/x/multisig"
	"github.com/stretchr/testify/require"
)

func TestAvailableCmds(t *testing.T) {
	want := []string{"address", "change", "decode", "size", "version"}
	assert.Equal(t, want, availableCmds())
}

func TestCmdVersion(t *testing.T) {
	var output bytes.Buffer
	require.NoError(t, cmdVersion(nil, &output, nil))
	assert.Equal(t, msig.Version()+"\n", output.String())
}

func TestCmdSize(t *testing.T) {
	var output bytes.Buffer
	require.NoError(t, cmdSize(nil, &output, []string{"-members", "3"}))
	want := fmt.Sprintf("multisig\t%d\ntransaction\t%d\n",
		multisig.MultisigSize(3), multisig.TransactionInitialSize(3))
	assert.Equal(t, want, output.String())
	assert.Equal(t, "multisig\t154\ntransaction\t397\n", output.String())
}

func TestCmdChangeAndSize(t *testing.T) {
	program := msigtest.SeqKey(7)
	ms := msigtest.SeqKey(8)
	member := msigtest.SeqKey(9)

	var changeOut bytes.Buffer
	args := []string{
		"-program", program.String(),
		"-multisig", ms.String(),
		"-kind", "add_member_and_change_threshold",
		"-member", member.String(),
		"-threshold", "2",
	}
	require.NoError(t, cmdChange(nil, &changeOut, args))

	var in multisig.IncomingInstruction
	require.NoError(t, json.Unmarshal(changeOut.Bytes(), &in))
	want, err := multisig.MembershipChange{
		Kind:      multisig.ChangeAddMemberAndThreshold,
		Member:    member,
		Threshold: 2,
	}.Instruction(program, ms)
	require.NoError(t, err)
	assert.Equal(t, want, in)

	var sizeOut bytes.Buffer
	require.NoError(t, cmdSize(&changeOut, &sizeOut, []string{"-instruction"}))
	assert.Equal(t, fmt.Sprintf("instruction\t%d\n", multisig.InstructionAccountSize(want)), sizeOut.String())
}

func TestCmdAddress(t *testing.T) {
	program := msigtest.SeqKey(7)
	parent := msigtest.SeqKey(8)

	cases := map[string]struct {
		Args   []string
		Derive func() (string, uint8, error)
	}{
		"multisig": {
			Args: []string{"-kind", "multisig"},
			Derive: func() (string, uint8, error) {
				a, b, err := multisig.MultisigAddress(program, parent)
				return a.String(), b, err
			},
		},
		"transaction": {
			Args: []string{"-kind", "transaction", "-index", "5"},
			Derive: func() (string, uint8, error) {
				a, b, err := multisig.TransactionAddress(program, parent, 5)
				return a.String(), b, err
			},
		},
		"instruction": {
			Args: []string{"-kind", "instruction", "-index", "2"},
			Derive: func() (string, uint8, error) {
				a, b, err := multisig.InstructionAddress(program, parent, 2)
				return a.String(), b, err
			},
		},
		"authority": {
			Args: []string{"-kind", "authority", "-index", "1"},
			Derive: func() (string, uint8, error) {
				a, b, err := multisig.AuthorityAddress(program, parent, 1)
				return a.String(), b, err
			},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			addr, bump, err := tc.Derive()
			require.NoError(t, err)

			args := append([]string{"-program", program.String(), "-parent", parent.String()}, tc.Args...)
			var output bytes.Buffer
			require.NoError(t, cmdAddress(nil, &output, args))
			assert.Equal(t, fmt.Sprintf("%s\t%d\n", addr, bump), output.String())
		})
	}
}

func TestCmdDecode(t *testing.T) {
	ms, err := multisig.NewMultisig(2, msigtest.SeqKey(250), msigtest.SortedKeys(3), 254)
	require.NoError(t, err)
	raw, err := ms.Marshal()
	require.NoError(t, err)

	cases := map[string]struct {
		Input   string
		Args    []string
		WantErr bool
	}{
		"hex record": {
			Input: hex.EncodeToString(raw) + "\n",
		},
		"hex record with allocation padding": {
			Input: hex.EncodeToString(append(raw, make([]byte, 64)...)),
		},
		"binary record": {
			Input: string(raw),
			Args:  []string{"-raw"},
		},
		"empty input": {
			Input:   "",
			WantErr: true,
		},
		"not hex": {
			Input:   "zz",
			WantErr: true,
		},
		"unknown discriminator": {
			Input:   strings.Repeat("01", 64),
			WantErr: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var output bytes.Buffer
			err := cmdDecode(strings.NewReader(tc.Input), &output, tc.Args)
			if tc.WantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			require.NoError(t, err)

			var view struct {
				Kind    string
				Size    int
				Account json.RawMessage
			}
			require.NoError(t, json.Unmarshal(output.Bytes(), &view))
			assert.Equal(t, "multisig", view.Kind)
			assert.Equal(t, multisig.MultisigSize(3), view.Size)

			var got multisig.Multisig
			require.NoError(t, json.Unmarshal(view.Account, &got))
			assert.Equal(t, *ms, got)
		})
	}
}

func TestCmdDecodeTransaction(t *testing.T) {
	members := msigtest.SortedKeys(2)
	ms, err := multisig.NewMultisig(1, msigtest.SeqKey(250), members, 254)
	require.NoError(t, err)
	tx, err := ms.ProposeTransaction(msigtest.SeqKey(251), members[0], 1, 253, 252)
	require.NoError(t, err)
	raw, err := tx.Marshal()
	require.NoError(t, err)

	var output bytes.Buffer
	require.NoError(t, cmdDecode(strings.NewReader(hex.EncodeToString(raw)), &output, nil))

	var view struct {
		Kind    string
		Account struct {
			Status string
		}
	}
	require.NoError(t, json.Unmarshal(output.Bytes(), &view))
	assert.Equal(t, "transaction", view.Kind)
	assert.Equal(t, "draft", view.Account.Status)
}
