package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

const tokenAddress = "0x00000000000000000000000000000000000000aA"

func TestResolveArgs(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	ledger.seed(confirmedRecord("Token", tokenAddress))
	ledger.seed(&models.DeploymentRecord{
		Component: "Broken",
		Network:   testNetwork,
		Status:    models.DeploymentStatusFailed,
	})
	env := fakeEnv{"OWNER": "0x00000000000000000000000000000000000000Bb", "FEE": 30}
	resolver := usecase.NewResolveArgs(ledger, env)

	t.Run("literal env and ref", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent,
			models.Literal("Vault Shares"),
			models.EnvConstant("OWNER"),
			ref("Token"),
			models.EnvConstant("FEE"),
		)
		args, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{})
		require.NoError(t, err)
		require.Len(t, args, 4)
		assert.Equal(t, "Vault Shares", args[0].Value)
		assert.Equal(t, "0x00000000000000000000000000000000000000Bb", args[1].Value)
		assert.Equal(t, common.HexToAddress(tokenAddress), args[2].Value)
		assert.Equal(t, 30, args[3].Value)
		assert.Equal(t, models.ArgComponentRef, args[2].Source.Kind)
	})

	t.Run("refs inside lists", func(t *testing.T) {
		spec := component("Registry", models.ProxyKindTransparent,
			models.List(ref("Token"), models.Literal("0x00000000000000000000000000000000000000cc")),
		)
		args, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []any{common.HexToAddress(tokenAddress), "0x00000000000000000000000000000000000000cc"}, args[0].Value)
	})

	t.Run("network override replaces position", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent, models.Literal("base"), models.Literal(1))
		spec.Overrides = map[string]map[int]models.ArgValue{
			testNetwork: {1: models.EnvConstant("FEE")},
			"mainnet":   {0: models.Literal("ignored")},
		}
		args, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []any{"base", 30}, args.Values())
	})

	t.Run("override beyond arity", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent, models.Literal("base"))
		spec.Overrides = map[string]map[int]models.ArgValue{testNetwork: {3: models.Literal(1)}}
		_, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{})
		var override *domain.InvalidOverrideError
		require.True(t, errors.As(err, &override))
		assert.Equal(t, 3, override.Index)
		assert.Equal(t, 1, override.Arity)
	})

	t.Run("missing env constant", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent, models.EnvConstant("TREASURY"))
		_, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{})
		var missing *domain.MissingConfigError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "TREASURY", missing.Key)
		assert.Equal(t, "Vault", missing.Component)
	})

	t.Run("undeployed dependency", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent, ref("Oracle"))
		_, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{})
		var notReady *domain.DependencyNotReadyError
		require.True(t, errors.As(err, &notReady))
		assert.Equal(t, "Oracle", notReady.Dependency)
		assert.Empty(t, notReady.Status)
	})

	t.Run("failed dependency", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent, ref("Broken"))
		_, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{})
		var notReady *domain.DependencyNotReadyError
		require.True(t, errors.As(err, &notReady))
		assert.Equal(t, "FAILED", notReady.Status)
	})

	t.Run("ref on another network is not visible", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent, ref("Token"))
		_, err := resolver.Resolve(ctx, spec, "mainnet", usecase.ResolveOptions{})
		var notReady *domain.DependencyNotReadyError
		assert.True(t, errors.As(err, &notReady))
	})

	t.Run("dry run placeholder", func(t *testing.T) {
		spec := component("Vault", models.ProxyKindTransparent, ref("Oracle"), ref("Token"))
		args, err := resolver.Resolve(ctx, spec, testNetwork, usecase.ResolveOptions{DryRun: true})
		require.NoError(t, err)
		assert.True(t, args[0].Pending)
		assert.Equal(t, "<pending:Oracle>", args[0].Value)
		assert.False(t, args[1].Pending)
		assert.Equal(t, []string{"<pending:Oracle>", common.HexToAddress(tokenAddress).Hex()}, args.Strings())
	})
}
