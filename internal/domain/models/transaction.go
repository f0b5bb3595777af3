package models

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Artifact is the compiled interface descriptor of a logic contract
type Artifact struct {
	Name            string
	Path            string
	ABI             *abi.ABI
	Bytecode        []byte
	CompilerVersion string
}

// Method returns the named ABI method, or nil
func (a *Artifact) Method(name string) *abi.Method {
	if a.ABI == nil {
		return nil
	}
	if m, ok := a.ABI.Methods[name]; ok {
		return &m
	}
	return nil
}

// TxRequest describes one deployment operation for the network session: the
// logic creation and, for proxied components, the proxy creation whose
// constructor (or factory call) runs the initializer.
type TxRequest struct {
	Component string
	ProxyKind ProxyKind

	// LogicCode is creation bytecode with constructor arguments appended.
	LogicCode []byte

	// ConstructorArgs is the encoded constructor argument suffix of LogicCode.
	ConstructorArgs []byte

	// InitCalldata is the ABI encoded initializer call, empty for ProxyKind none.
	InitCalldata []byte

	// ProxyCode is the ERC1967Proxy creation bytecode used for UUPS proxies.
	ProxyCode []byte

	// Admin is the proxy admin passed to the factory for transparent proxies.
	Admin common.Address

	GasLimit uint64
}

// TxResult is the handle returned by a successful submission
type TxResult struct {
	Hash         common.Hash
	LogicHash    common.Hash
	LogicAddress common.Address
	// ProxyAddress is set when the address is known before confirmation (CREATE of a proxy).
	ProxyAddress common.Address
	ProxyKind    ProxyKind
	Nonce        uint64
}

// Confirmation is the observed on-chain outcome of a submission
type Confirmation struct {
	BlockNumber  uint64
	TxHash       common.Hash
	Address      common.Address
	LogicAddress common.Address
	GasUsed      uint64
}
