package contract_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ardanlabs/dapp/foundation/blockchain/wallet"
	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	chainID  = 91342
)

var (
	contractAddr = common.HexToAddress("0x30bDe02387EA7967b8C75a5189a1b2A61F8F4e22")
	ownerAddr    = common.HexToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
)

// backend answers the handful of calls the contract makes. The embedded
// interface is left nil; anything else panics.
type backend struct {
	bind.ContractBackend
	variant  contract.Variant
	outputs  map[string][]byte
	head     uint64
	logs     []types.Log
	query    ethereum.FilterQuery
	receipts []*types.Receipt
	polls    int
	sent     []*types.Transaction
}

func (b *backend) CallContract(ctx context.Context, msg ethereum.CallMsg, number *big.Int) ([]byte, error) {
	for name, m := range b.variant.ABI.Methods {
		if bytes.Equal(msg.Data[:4], m.ID) {
			return b.outputs[name], nil
		}
	}
	return nil, errors.New("unknown method")
}

func (b *backend) BlockNumber(ctx context.Context) (uint64, error) {
	return b.head, nil
}

func (b *backend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.query = q
	return b.logs, nil
}

func (b *backend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	b.polls++
	if len(b.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	r := b.receipts[0]
	b.receipts = b.receipts[1:]
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *backend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(chainID), nil
}

func (b *backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: new(big.Int).SetUint64(b.head), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (b *backend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return uint64(len(b.sent)), nil
}

func (b *backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 50_000, nil
}

func (b *backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func newContract(t *testing.T, variant string, b *backend) *contract.Contract {
	v, err := contract.LookupVariant(variant)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse the %s variant: %s", failed, variant, err)
	}
	b.variant = v

	return bindContract(t, v, b, nil)
}

func bindContract(t *testing.T, v contract.Variant, b *backend, signer *bind.TransactOpts) *contract.Contract {
	c, err := contract.New(contract.Config{
		Address: contractAddr,
		Variant: v,
		Backend: b,
		Signer:  signer,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to bind the contract: %s", failed, err)
	}

	return c
}

func newWallet(t *testing.T, b *backend, approve *bool) *wallet.Wallet {
	root := t.TempDir()

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to decode the private key: %s", failed, err)
	}

	if err := crypto.SaveECDSA(filepath.Join(root, "kennedy.ecdsa"), pk); err != nil {
		t.Fatalf("\t%s\tShould be able to save the private key: %s", failed, err)
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the name service: %s", failed, err)
	}

	w, err := wallet.New(wallet.Config{
		Chain:   b,
		Names:   ns,
		Account: "kennedy",
		Approve: func(tx *types.Transaction) bool { return *approve },
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the wallet: %s", failed, err)
	}

	return w
}

func pack(t *testing.T, v contract.Variant, method string, args ...any) []byte {
	out, err := v.ABI.Methods[method].Outputs.Pack(args...)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to pack %s output: %s", failed, method, err)
	}
	return out
}

func TestReads(t *testing.T) {
	t.Log("Given the need to read the stored value and owner.")
	{
		b := backend{}
		c := newContract(t, contract.VariantOwned, &b)
		b.outputs = map[string][]byte{
			"retrieve": pack(t, b.variant, "retrieve", big.NewInt(42)),
			"owner":    pack(t, b.variant, "owner", ownerAddr),
		}

		value, err := c.Retrieve(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to retrieve the value: %s", failed, err)
		}
		if value.Cmp(big.NewInt(42)) != 0 {
			t.Logf("\t\tgot: %s", value)
			t.Logf("\t\texp: %d", 42)
			t.Fatalf("\t%s\tShould get back the stored value.", failed)
		}
		t.Logf("\t%s\tShould get back the stored value.", success)

		owner, err := c.Owner(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read the owner: %s", failed, err)
		}
		if owner != ownerAddr {
			t.Logf("\t\tgot: %s", owner)
			t.Logf("\t\texp: %s", ownerAddr)
			t.Fatalf("\t%s\tShould get back the owner.", failed)
		}
		t.Logf("\t%s\tShould get back the owner.", success)
	}
}

func TestBasicVariant(t *testing.T) {
	t.Log("Given a contract without ownership support.")
	{
		b := backend{}
		c := newContract(t, contract.VariantBasic, &b)

		if caps := c.Capabilities(); caps.HasOwner || caps.HasTransfer || caps.HasEvents {
			t.Fatalf("\t%s\tShould report no optional capabilities: %+v", failed, caps)
		}
		t.Logf("\t%s\tShould report no optional capabilities.", success)

		if _, err := c.Owner(context.Background()); !errors.Is(err, contract.ErrUnsupported) {
			t.Fatalf("\t%s\tShould refuse to read the owner: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse to read the owner.", success)

		if _, err := c.StoredEvents(context.Background(), 100); !errors.Is(err, contract.ErrUnsupported) {
			t.Fatalf("\t%s\tShould refuse to query events: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse to query events.", success)

		if _, err := c.Store(context.Background(), big.NewInt(1)); !errors.Is(err, contract.ErrReadOnly) {
			t.Fatalf("\t%s\tShould refuse to write without a signer: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse to write without a signer.", success)
	}
}

func TestWrites(t *testing.T) {
	newOwner := common.HexToAddress("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")

	t.Log("Given the need to send signed writes to the contract.")
	{
		b := backend{head: 10}
		v, err := contract.LookupVariant(contract.VariantOwned)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the owned variant: %s", failed, err)
		}
		b.variant = v

		approve := true
		signer, err := newWallet(t, &b, &approve).Signer(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to get a signer: %s", failed, err)
		}
		c := bindContract(t, v, &b, signer)

		type table struct {
			name  string
			send  func() (common.Hash, error)
			input []byte
		}

		storeData, _ := v.ABI.Pack("store", big.NewInt(42))
		transferData, _ := v.ABI.Pack("transferOwnership", newOwner)

		tt := []table{
			{
				name:  "store",
				send:  func() (common.Hash, error) { return c.Store(context.Background(), big.NewInt(42)) },
				input: storeData,
			},
			{
				name:  "transferOwnership",
				send:  func() (common.Hash, error) { return c.TransferOwnership(context.Background(), newOwner) },
				input: transferData,
			},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen calling %s.", testID, tst.name)
			{
				hash, err := tst.send()
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to send the transaction: %s", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to send the transaction.", success, testID)

				tx := b.sent[len(b.sent)-1]
				if tx.Hash() != hash || tx.To() == nil || *tx.To() != contractAddr {
					t.Fatalf("\t%s\tTest %d:\tShould send to the contract: %s", failed, testID, tx.To())
				}
				t.Logf("\t%s\tTest %d:\tShould send to the contract.", success, testID)

				if !bytes.Equal(tx.Data(), tst.input) {
					t.Logf("\t\tTest %d:\tgot: %x", testID, tx.Data())
					t.Logf("\t\tTest %d:\texp: %x", testID, tst.input)
					t.Fatalf("\t%s\tTest %d:\tShould pack the call data.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould pack the call data.", success, testID)

				if tx.ChainId().Int64() != chainID {
					t.Fatalf("\t%s\tTest %d:\tShould sign for chain %d: %s", failed, testID, chainID, tx.ChainId())
				}

				from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(chainID)), tx)
				if err != nil || from != ownerAddr {
					t.Fatalf("\t%s\tTest %d:\tShould be signed by the active account: %s %v", failed, testID, from, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be signed by the active account for the chain.", success, testID)
			}
		}

		approve = false
		sent := len(b.sent)
		if _, err := c.Store(context.Background(), big.NewInt(7)); !errors.Is(err, wallet.ErrUserRejected) {
			t.Fatalf("\t%s\tShould report the rejected signature: %v", failed, err)
		}
		if len(b.sent) != sent {
			t.Fatalf("\t%s\tShould not send a rejected transaction.", failed)
		}
		t.Logf("\t%s\tShould report the rejected signature without sending.", success)
	}
}

func TestStoredEvents(t *testing.T) {
	type table struct {
		name string
		head uint64
		from uint64
	}

	tt := []table{
		{name: "deep", head: 1000, from: 900},
		{name: "shallow", head: 40, from: 0},
	}

	t.Log("Given the need to list recent NumberStored events.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				b := backend{head: tst.head}
				c := newContract(t, contract.VariantOwned, &b)

				event := b.variant.ABI.Events["NumberStored"]
				for i, v := range []int64{7, 9} {
					data, err := event.Inputs.Pack(big.NewInt(v))
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to pack log data: %s", failed, testID, err)
					}
					b.logs = append(b.logs, types.Log{
						Address:     contractAddr,
						Topics:      []common.Hash{event.ID},
						Data:        data,
						BlockNumber: tst.head - uint64(1-i),
						TxHash:      common.BigToHash(big.NewInt(v)),
					})
				}

				events, err := c.StoredEvents(context.Background(), 100)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to query events: %s", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to query events.", success, testID)

				if b.query.FromBlock.Uint64() != tst.from || b.query.ToBlock.Uint64() != tst.head {
					t.Logf("\t\tTest %d:\tgot: %s-%s", testID, b.query.FromBlock, b.query.ToBlock)
					t.Logf("\t\tTest %d:\texp: %d-%d", testID, tst.from, tst.head)
					t.Fatalf("\t%s\tTest %d:\tShould query the right block window.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould query the right block window.", success, testID)

				if len(events) != 2 || events[0].Value.Int64() != 7 || events[1].Value.Int64() != 9 {
					t.Fatalf("\t%s\tTest %d:\tShould decode the values in chain order: %+v", failed, testID, events)
				}
				t.Logf("\t%s\tTest %d:\tShould decode the values in chain order.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestWaitMined(t *testing.T) {
	hash := common.HexToHash("0x01")

	t.Log("Given the need to wait for a transaction to be mined.")
	{
		b := backend{receipts: []*types.Receipt{nil, nil, {Status: types.ReceiptStatusSuccessful}}}
		c := newContract(t, contract.VariantOwned, &b)

		if err := c.WaitMined(context.Background(), hash); err != nil {
			t.Fatalf("\t%s\tShould wait for the receipt: %s", failed, err)
		}
		if b.polls != 3 {
			t.Fatalf("\t%s\tShould poll until the receipt exists, polled %d.", failed, b.polls)
		}
		t.Logf("\t%s\tShould wait for the receipt.", success)

		b.receipts = []*types.Receipt{{Status: types.ReceiptStatusFailed}}
		if err := c.WaitMined(context.Background(), hash); !errors.Is(err, contract.ErrReverted) {
			t.Fatalf("\t%s\tShould report a reverted transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould report a reverted transaction.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.WaitMined(ctx, hash); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop waiting when cancelled: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop waiting when cancelled.", success)
	}
}

func TestTxURL(t *testing.T) {
	hash := common.HexToHash("0xab")
	exp := "https://sepolia-explorer.giwa.io/tx/" + hash.Hex()

	if got := contract.TxURL("https://sepolia-explorer.giwa.io/", hash); got != exp {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should build the explorer link.")
	}
}
