package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

const (
	defaultConfirmTimeout = 2 * time.Minute
	defaultPollInterval   = 2 * time.Second
	gasBufferPercent      = 20
)

// factoryABI is the ERC1967Factory surface used for transparent proxies
const factoryABI = `[
  {"type":"function","name":"deployAndCall","stateMutability":"payable",
   "inputs":[{"name":"implementation","type":"address"},{"name":"admin","type":"address"},{"name":"data","type":"bytes"}],
   "outputs":[{"name":"proxy","type":"address"}]},
  {"type":"event","name":"Deployed","anonymous":false,
   "inputs":[{"name":"proxy","type":"address","indexed":true},{"name":"implementation","type":"address","indexed":true},{"name":"admin","type":"address","indexed":true}]}
]`

var (
	proxyFactory = mustParseABI(factoryABI)

	// constructor(address implementation, bytes data) of ERC1967Proxy
	proxyConstructorArgs = abi.Arguments{
		{Name: "implementation", Type: mustNewType("address")},
		{Name: "data", Type: mustNewType("bytes")},
	}
)

// Client is the subset of ethclient.Client a session needs
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Session submits deployment transactions to one network with one signer.
// It performs no retries; a failed call is reported to the caller as is.
type Session struct {
	client  Client
	network *config.Network
	chainID *big.Int
	signer  types.Signer
	key     *ecdsa.PrivateKey
	from    common.Address
	factory common.Address
	timeout time.Duration
	poll    time.Duration
	log     *slog.Logger

	// guards local nonce tracking so concurrent workers never share a nonce
	mu        sync.Mutex
	nextNonce uint64
	haveNonce bool
}

// NewSession verifies the endpoint serves the configured chain and prepares the signer
func NewSession(ctx context.Context, client Client, network *config.Network, log *slog.Logger) (*Session, error) {
	if network.PrivateKey == "" {
		return nil, fmt.Errorf("network %s has no private_key configured", network.Name)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(network.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key for network %s: %w", network.Name, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if network.ChainID != 0 && chainID.Uint64() != network.ChainID {
		return nil, fmt.Errorf("chain ID mismatch for %s: expected %d, got %d", network.Name, network.ChainID, chainID.Uint64())
	}

	var factory common.Address
	if network.ProxyFactory != "" {
		if !common.IsHexAddress(network.ProxyFactory) {
			return nil, fmt.Errorf("invalid proxy_factory address %q for network %s", network.ProxyFactory, network.Name)
		}
		factory = common.HexToAddress(network.ProxyFactory)
	}

	s := &Session{
		client:  client,
		network: network,
		chainID: chainID,
		signer:  types.NewLondonSigner(chainID),
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		factory: factory,
		timeout: network.ConfirmTimeout,
		poll:    network.PollInterval,
		log:     log.With("network", network.Name),
	}
	if s.timeout <= 0 {
		s.timeout = defaultConfirmTimeout
	}
	if s.poll <= 0 {
		s.poll = defaultPollInterval
	}

	s.log.Debug("session opened", "chainId", chainID.Uint64(), "signer", s.from.Hex())
	return s, nil
}

func (s *Session) Network() string { return s.network.Name }

func (s *Session) ChainID() uint64 { return s.chainID.Uint64() }

// Signer returns the address transactions are sent from
func (s *Session) Signer() common.Address { return s.from }

// Close releases the RPC connection
func (s *Session) Close() error {
	s.client.Close()
	return nil
}

// Submit creates the logic contract and, for proxied components, the proxy
// in front of it. The proxy constructor delegates into the logic contract,
// so the logic creation must be mined before the proxy is sent. The returned
// handle refers to the last transaction sent.
func (s *Session) Submit(ctx context.Context, req *models.TxRequest) (*models.TxResult, error) {
	logic, err := s.send(ctx, nil, req.LogicCode, req.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("logic creation: %w", err)
	}
	s.log.Debug("logic creation sent", "component", req.Component, "tx", logic.hash.Hex(), "nonce", logic.nonce)

	result := &models.TxResult{
		Hash:         logic.hash,
		LogicHash:    logic.hash,
		LogicAddress: logic.created,
		ProxyKind:    req.ProxyKind,
		Nonce:        logic.nonce,
	}
	if !req.ProxyKind.IsProxied() {
		result.ProxyAddress = logic.created
		return result, nil
	}

	if _, err := s.confirmed(ctx, logic.hash); err != nil {
		return nil, fmt.Errorf("logic creation: %w", err)
	}

	var (
		to   *common.Address
		data []byte
	)
	switch req.ProxyKind {
	case models.ProxyKindUUPS:
		if len(req.ProxyCode) == 0 {
			return nil, domain.Permanent("malformed arguments", errors.New("no proxy creation code for uups component"))
		}
		args, err := proxyConstructorArgs.Pack(logic.created, req.InitCalldata)
		if err != nil {
			return nil, domain.Permanent("malformed arguments", err)
		}
		data = append(append([]byte{}, req.ProxyCode...), args...)

	case models.ProxyKindTransparent:
		if s.factory == (common.Address{}) {
			return nil, domain.Permanent("malformed arguments",
				fmt.Errorf("network %s has no proxy_factory configured", s.network.Name))
		}
		admin := req.Admin
		if admin == (common.Address{}) {
			admin = s.from
		}
		data, err = proxyFactory.Pack("deployAndCall", logic.created, admin, req.InitCalldata)
		if err != nil {
			return nil, domain.Permanent("malformed arguments", err)
		}
		to = &s.factory

	default:
		return nil, domain.Permanent("malformed arguments", fmt.Errorf("unsupported proxy kind %q", req.ProxyKind))
	}

	proxy, err := s.send(ctx, to, data, req.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("proxy creation: %w", err)
	}
	s.log.Debug("proxy creation sent", "component", req.Component, "tx", proxy.hash.Hex(), "nonce", proxy.nonce)

	result.Hash = proxy.hash
	result.Nonce = proxy.nonce
	if to == nil {
		result.ProxyAddress = proxy.created
	}
	return result, nil
}

// WaitForConfirmation polls for the receipt of the handle's transaction
func (s *Session) WaitForConfirmation(ctx context.Context, handle *models.TxResult) (*models.Confirmation, error) {
	receipt, err := s.confirmed(ctx, handle.Hash)
	if err != nil {
		return nil, err
	}

	conf := &models.Confirmation{
		BlockNumber:  receipt.BlockNumber.Uint64(),
		TxHash:       receipt.TxHash,
		Address:      handle.ProxyAddress,
		LogicAddress: handle.LogicAddress,
		GasUsed:      receipt.GasUsed,
	}
	if receipt.ContractAddress != (common.Address{}) {
		conf.Address = receipt.ContractAddress
	}
	if handle.ProxyKind == models.ProxyKindTransparent {
		proxy, err := s.deployedProxy(receipt)
		if err != nil {
			return nil, domain.Permanent("unknown", err)
		}
		conf.Address = proxy
	}
	if conf.Address == (common.Address{}) {
		return nil, domain.Permanent("unknown", fmt.Errorf("no contract address in receipt of %s", receipt.TxHash.Hex()))
	}
	return conf, nil
}

// confirmed waits for a receipt and turns a failed status into a revert
func (s *Session) confirmed(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := s.waitReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, domain.Permanent("reverted",
			fmt.Errorf("transaction %s reverted in block %s", hash.Hex(), receipt.BlockNumber))
	}
	return receipt, nil
}

func (s *Session) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			s.log.Debug("receipt poll failed", "tx", hash.Hex(), "error", err)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &domain.TimeoutError{TxHash: hash.Hex()}
		case <-ticker.C:
		}
	}
}

func (s *Session) deployedProxy(receipt *types.Receipt) (common.Address, error) {
	event := proxyFactory.Events["Deployed"]
	for _, l := range receipt.Logs {
		if l.Address != s.factory || len(l.Topics) < 2 || l.Topics[0] != event.ID {
			continue
		}
		return common.BytesToAddress(l.Topics[1].Bytes()), nil
	}
	return common.Address{}, fmt.Errorf("no Deployed event in receipt of %s", receipt.TxHash.Hex())
}

type sentTx struct {
	hash    common.Hash
	nonce   uint64
	created common.Address
}

// send signs and broadcasts an EIP-1559 transaction. A nil to creates a contract.
func (s *Session) send(ctx context.Context, to *common.Address, data []byte, gasLimit uint64) (*sentTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	nonce := pending
	if s.haveNonce && s.nextNonce > pending {
		nonce = s.nextNonce
	}

	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip: %w", err)
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get latest header: %w", err)
	}
	if head.BaseFee == nil {
		return nil, domain.Permanent("malformed arguments", fmt.Errorf("network %s does not support EIP-1559", s.network.Name))
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	if gasLimit == 0 {
		estimate, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:      s.from,
			To:        to,
			GasFeeCap: feeCap,
			GasTipCap: tip,
			Data:      data,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		gasLimit = estimate + estimate*gasBufferPercent/100
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        to,
		Data:      data,
	})
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return nil, domain.Permanent("signer", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "nonce") {
			s.haveNonce = false
		}
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	s.nextNonce = nonce + 1
	s.haveNonce = true

	sent := &sentTx{hash: signed.Hash(), nonce: nonce}
	if to == nil {
		sent.created = crypto.CreateAddress(s.from, nonce)
	}
	return sent, nil
}

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var _ usecase.NetworkSession = (*Session)(nil)
