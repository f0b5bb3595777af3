package blockchain_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/adapters/blockchain"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

const testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var (
	factoryAddress = common.HexToAddress("0x0000000000006396FF2a80c067f99B3d2Ab4Df24")
	deployedTopic  = crypto.Keccak256Hash([]byte("Deployed(address,address,address)"))
)

// fakeClient mines every transaction in the block after it was sent.
// Receipts become visible after receiptDelay polls.
type fakeClient struct {
	mu           sync.Mutex
	chainID      int64
	baseFee      *big.Int
	sent         []*types.Transaction
	revert       map[int]bool
	sendErr      error
	receiptDelay int
	polls        map[common.Hash]int
	neverMine    bool
	closed       bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		chainID: 31337,
		baseFee: big.NewInt(1_000_000_000),
		revert:  map[int]bool{},
		polls:   map[common.Hash]int{},
	}
}

func (c *fakeClient) ChainID(context.Context) (*big.Int, error) { return big.NewInt(c.chainID), nil }

func (c *fakeClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(len(c.sent)), nil
}

func (c *fakeClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: c.baseFee}, nil
}

func (c *fakeClient) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (c *fakeClient) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (c *fakeClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, tx)
	return nil
}

func (c *fakeClient) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls[hash]++
	if c.neverMine || c.polls[hash] <= c.receiptDelay {
		return nil, ethereum.NotFound
	}
	for i, tx := range c.sent {
		if tx.Hash() != hash {
			continue
		}
		receipt := &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			TxHash:      hash,
			BlockNumber: big.NewInt(int64(101 + i)),
			GasUsed:     90_000,
		}
		if c.revert[i] {
			receipt.Status = types.ReceiptStatusFailed
			return receipt, nil
		}
		if tx.To() == nil {
			from, _ := types.Sender(types.NewLondonSigner(big.NewInt(c.chainID)), tx)
			receipt.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
		} else if *tx.To() == factoryAddress {
			receipt.Logs = []*types.Log{{
				Address: factoryAddress,
				Topics: []common.Hash{
					deployedTopic,
					common.BytesToHash(common.HexToAddress("0x00000000000000000000000000000000000000Fe").Bytes()),
					common.BytesToHash(tx.Data()[16:36]),
				},
			}}
		}
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

func (c *fakeClient) Close() { c.closed = true }

func testNetwork() *config.Network {
	return &config.Network{
		Name:           "anvil",
		ChainID:        31337,
		RPCURL:         "http://localhost:8545",
		PrivateKey:     testKey,
		ProxyFactory:   factoryAddress.Hex(),
		ConfirmTimeout: time.Second,
		PollInterval:   time.Millisecond,
	}
}

func newSession(t *testing.T, client *fakeClient, network *config.Network) *blockchain.Session {
	t.Helper()
	s, err := blockchain.NewSession(context.Background(), client, network, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestSession_DeployWithoutProxy(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	s := newSession(t, client, testNetwork())

	handle, err := s.Submit(ctx, &models.TxRequest{
		Component: "Registry",
		ProxyKind: models.ProxyKindNone,
		LogicCode: []byte{0x60, 0x80},
	})
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	assert.Nil(t, client.sent[0].To())
	assert.Equal(t, []byte{0x60, 0x80}, client.sent[0].Data())
	assert.Equal(t, uint64(120_000), client.sent[0].Gas())
	assert.Equal(t, big.NewInt(31337), client.sent[0].ChainId())

	expected := crypto.CreateAddress(s.Signer(), 0)
	assert.Equal(t, expected, handle.LogicAddress)

	conf, err := s.WaitForConfirmation(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, expected, conf.Address)
	assert.Equal(t, expected, conf.LogicAddress)
	assert.Equal(t, uint64(101), conf.BlockNumber)
}

func TestSession_DeployUUPS(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	s := newSession(t, client, testNetwork())

	handle, err := s.Submit(ctx, &models.TxRequest{
		Component:    "Vault",
		ProxyKind:    models.ProxyKindUUPS,
		LogicCode:    []byte{0x60, 0x80},
		InitCalldata: []byte{0x81, 0x29, 0xfc, 0x1c},
		ProxyCode:    []byte{0x60, 0x40},
	})
	require.NoError(t, err)
	require.Len(t, client.sent, 2)
	assert.Equal(t, uint64(0), client.sent[0].Nonce())
	assert.Equal(t, uint64(1), client.sent[1].Nonce())

	logic := crypto.CreateAddress(s.Signer(), 0)
	proxy := crypto.CreateAddress(s.Signer(), 1)

	data := client.sent[1].Data()
	assert.Equal(t, []byte{0x60, 0x40}, data[:2])
	addressType, _ := abi.NewType("address", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	args, err := abi.Arguments{{Type: addressType}, {Type: bytesType}}.Unpack(data[2:])
	require.NoError(t, err)
	assert.Equal(t, logic, args[0])
	assert.Equal(t, []byte{0x81, 0x29, 0xfc, 0x1c}, args[1])

	conf, err := s.WaitForConfirmation(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, proxy, conf.Address)
	assert.Equal(t, logic, conf.LogicAddress)
	assert.Equal(t, client.sent[1].Hash(), conf.TxHash)
}

func TestSession_DeployTransparent(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	s := newSession(t, client, testNetwork())

	handle, err := s.Submit(ctx, &models.TxRequest{
		Component:    "Token",
		ProxyKind:    models.ProxyKindTransparent,
		LogicCode:    []byte{0x60, 0x80},
		InitCalldata: []byte{0x01},
	})
	require.NoError(t, err)
	require.Len(t, client.sent, 2)
	require.NotNil(t, client.sent[1].To())
	assert.Equal(t, factoryAddress, *client.sent[1].To())
	selector := crypto.Keccak256([]byte("deployAndCall(address,address,bytes)"))[:4]
	assert.Equal(t, hexutil.Encode(selector), hexutil.Encode(client.sent[1].Data()[:4]))
	// admin defaults to the signer
	assert.Equal(t, common.LeftPadBytes(s.Signer().Bytes(), 32), client.sent[1].Data()[36:68])

	conf, err := s.WaitForConfirmation(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000Fe"), conf.Address)
	assert.Equal(t, crypto.CreateAddress(s.Signer(), 0), conf.LogicAddress)
}

func TestSession_RevertIsPermanent(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.revert[0] = true
	s := newSession(t, client, testNetwork())

	handle, err := s.Submit(ctx, &models.TxRequest{ProxyKind: models.ProxyKindNone, LogicCode: []byte{0x60}})
	require.NoError(t, err)

	_, err = s.WaitForConfirmation(ctx, handle)
	var submitErr *domain.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, domain.FailurePermanent, submitErr.Class)
	assert.Equal(t, "reverted", submitErr.Reason)
}

func TestSession_LogicRevertStopsBeforeProxy(t *testing.T) {
	client := newFakeClient()
	client.revert[0] = true
	s := newSession(t, client, testNetwork())

	_, err := s.Submit(context.Background(), &models.TxRequest{ProxyKind: models.ProxyKindTransparent, LogicCode: []byte{0x60}})
	var submitErr *domain.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, domain.FailurePermanent, submitErr.Class)
	assert.Len(t, client.sent, 1)
}

func TestSession_ConfirmationTimeout(t *testing.T) {
	client := newFakeClient()
	client.neverMine = true
	network := testNetwork()
	network.ConfirmTimeout = 20 * time.Millisecond
	s := newSession(t, client, network)

	handle, err := s.Submit(context.Background(), &models.TxRequest{ProxyKind: models.ProxyKindNone, LogicCode: []byte{0x60}})
	require.NoError(t, err)

	_, err = s.WaitForConfirmation(context.Background(), handle)
	var timeout *domain.TimeoutError
	assert.ErrorAs(t, err, &timeout)
}

func TestSession_WaitsForDelayedReceipt(t *testing.T) {
	client := newFakeClient()
	client.receiptDelay = 3
	s := newSession(t, client, testNetwork())

	handle, err := s.Submit(context.Background(), &models.TxRequest{ProxyKind: models.ProxyKindNone, LogicCode: []byte{0x60}})
	require.NoError(t, err)

	_, err = s.WaitForConfirmation(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, 4, client.polls[handle.Hash])
}

func TestSession_SendFailureIsReturned(t *testing.T) {
	client := newFakeClient()
	client.sendErr = errors.New("nonce too low")
	s := newSession(t, client, testNetwork())

	_, err := s.Submit(context.Background(), &models.TxRequest{ProxyKind: models.ProxyKindNone, LogicCode: []byte{0x60}})
	assert.ErrorContains(t, err, "nonce too low")
}

func TestSession_MissingFactory(t *testing.T) {
	client := newFakeClient()
	network := testNetwork()
	network.ProxyFactory = ""
	s := newSession(t, client, network)

	_, err := s.Submit(context.Background(), &models.TxRequest{ProxyKind: models.ProxyKindTransparent, LogicCode: []byte{0x60}})
	assert.ErrorContains(t, err, "no proxy_factory configured")
}

func TestNewSession_Validation(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	network := testNetwork()
	network.ChainID = 1
	_, err := blockchain.NewSession(ctx, newFakeClient(), network, log)
	assert.ErrorContains(t, err, "chain ID mismatch")

	network = testNetwork()
	network.PrivateKey = ""
	_, err = blockchain.NewSession(ctx, newFakeClient(), network, log)
	assert.ErrorContains(t, err, "no private_key")

	network = testNetwork()
	network.ProxyFactory = "0x1234"
	_, err = blockchain.NewSession(ctx, newFakeClient(), network, log)
	assert.ErrorContains(t, err, "invalid proxy_factory")
}

func TestSessionFactory_ClosesOnFailure(t *testing.T) {
	client := newFakeClient()
	client.chainID = 5
	factory := blockchain.NewSessionFactoryWithDialer(func(context.Context, string) (blockchain.Client, error) {
		return client, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := factory.Open(context.Background(), testNetwork())
	assert.Error(t, err)
	assert.True(t, client.closed)

	client.chainID = 31337
	client.closed = false
	session, err := factory.Open(context.Background(), testNetwork())
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), session.ChainID())
	assert.Equal(t, "anvil", session.Network())
}
