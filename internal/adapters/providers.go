package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/catapult/internal/adapters/abi"
	"github.com/trebuchet-org/catapult/internal/adapters/blockchain"
	internalconfig "github.com/trebuchet-org/catapult/internal/adapters/config"
	"github.com/trebuchet-org/catapult/internal/adapters/interactive"
	"github.com/trebuchet-org/catapult/internal/adapters/manifest"
	"github.com/trebuchet-org/catapult/internal/adapters/repository/artifacts"
	"github.com/trebuchet-org/catapult/internal/adapters/repository/ledger"
	"github.com/trebuchet-org/catapult/internal/adapters/verification"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// StorageSet provides the ledger and compiled artifacts
var StorageSet = wire.NewSet(
	ledger.NewFileLedgerFromConfig,
	wire.Bind(new(usecase.DeploymentLedger), new(*ledger.Ledger)),

	artifacts.NewRepositoryFromConfig,
	wire.Bind(new(usecase.ArtifactProvider), new(*artifacts.Repository)),
)

// ManifestSet provides manifest loading and calldata encoding
var ManifestSet = wire.NewSet(
	manifest.NewParser,
	wire.Bind(new(usecase.ManifestLoader), new(*manifest.Parser)),

	abi.NewEncoder,
	wire.Bind(new(usecase.CalldataEncoder), new(*abi.Encoder)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.SelectorAdapter)),
	wire.Bind(new(usecase.ComponentSelector), new(*interactive.SelectorAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	internalconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*internalconfig.NetworkResolverAdapter)),

	internalconfig.NewConstantsSource,
	wire.Bind(new(usecase.ConfigSource), new(*internalconfig.ConstantsSource)),
)

// BlockchainSet provides network sessions and explorer verification
var BlockchainSet = wire.NewSet(
	blockchain.NewSessionFactory,
	wire.Bind(new(usecase.SessionFactory), new(*blockchain.SessionFactory)),

	verification.NewForgeVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.ForgeVerifier)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	StorageSet,
	ManifestSet,
	InteractiveSet,
	ConfigSet,
	BlockchainSet,
)
