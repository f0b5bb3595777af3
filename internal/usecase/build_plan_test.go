package usecase_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

func ref(name string) models.ArgValue { return models.ComponentRef(name) }

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name       string
		components []*models.ComponentSpec
		wantOrder  []string
		wantErr    error
		wantCycle  []string
	}{
		{
			name: "dependency before dependent",
			components: []*models.ComponentSpec{
				component("B", models.ProxyKindTransparent, ref("A")),
				component("A", models.ProxyKindTransparent),
			},
			wantOrder: []string{"A", "B"},
		},
		{
			name: "declaration order breaks ties",
			components: []*models.ComponentSpec{
				component("Zeta", models.ProxyKindNone),
				component("Alpha", models.ProxyKindNone),
				component("Mid", models.ProxyKindNone, ref("Alpha")),
				component("Beta", models.ProxyKindNone),
			},
			wantOrder: []string{"Zeta", "Alpha", "Mid", "Beta"},
		},
		{
			name: "diamond",
			components: []*models.ComponentSpec{
				component("Top", models.ProxyKindUUPS, ref("Left"), ref("Right")),
				component("Left", models.ProxyKindUUPS, ref("Base")),
				component("Right", models.ProxyKindUUPS, ref("Base")),
				component("Base", models.ProxyKindUUPS),
			},
			wantOrder: []string{"Base", "Left", "Right", "Top"},
		},
		{
			name: "refs inside lists count as edges",
			components: []*models.ComponentSpec{
				component("Registry", models.ProxyKindTransparent, models.List(ref("Token"), models.Literal("x"))),
				component("Token", models.ProxyKindTransparent),
			},
			wantOrder: []string{"Token", "Registry"},
		},
		{
			name: "two component cycle",
			components: []*models.ComponentSpec{
				component("A", models.ProxyKindTransparent, ref("B")),
				component("B", models.ProxyKindTransparent, ref("A")),
			},
			wantErr:   domain.ErrGraph,
			wantCycle: []string{"A", "B"},
		},
		{
			name: "cycle members exclude dependents of the cycle",
			components: []*models.ComponentSpec{
				component("Root", models.ProxyKindNone),
				component("Outside", models.ProxyKindNone, ref("X")),
				component("X", models.ProxyKindNone, ref("Y")),
				component("Y", models.ProxyKindNone, ref("Z"), ref("Root")),
				component("Z", models.ProxyKindNone, ref("X")),
			},
			wantErr:   domain.ErrGraph,
			wantCycle: []string{"X", "Y", "Z"},
		},
		{
			name: "self reference",
			components: []*models.ComponentSpec{
				component("Self", models.ProxyKindNone, ref("Self")),
			},
			wantErr:   domain.ErrGraph,
			wantCycle: []string{"Self"},
		},
		{
			name: "unknown reference",
			components: []*models.ComponentSpec{
				component("Vault", models.ProxyKindTransparent, ref("Tokn")),
				component("Token", models.ProxyKindTransparent),
			},
			wantErr: domain.ErrGraph,
		},
		{
			name: "duplicate name",
			components: []*models.ComponentSpec{
				component("Token", models.ProxyKindTransparent),
				component("Token", models.ProxyKindUUPS),
			},
			wantErr: domain.ErrGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := usecase.NewBuildPlan().Build(&models.Manifest{Name: "test", Components: tt.components})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				if tt.wantCycle != nil {
					var cycle *domain.CycleDetectedError
					require.True(t, errors.As(err, &cycle))
					assert.Equal(t, tt.wantCycle, cycle.Members)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, plan.Names())
		})
	}
}

func TestBuildPlan_OrderRespectsEveryReference(t *testing.T) {
	manifest := &models.Manifest{Components: []*models.ComponentSpec{
		component("Governor", models.ProxyKindTransparent, ref("Token"), ref("Timelock")),
		component("Timelock", models.ProxyKindTransparent, models.EnvConstant("MIN_DELAY")),
		component("Treasury", models.ProxyKindUUPS, ref("Governor"), ref("Token")),
		component("Token", models.ProxyKindUUPS, models.Literal("Catapult"), models.Literal("CAT")),
		component("Faucet", models.ProxyKindNone, ref("Token")),
	}}
	manifest.Components[4].Overrides = map[string]map[int]models.ArgValue{
		"sepolia": {0: ref("Treasury")},
	}

	plan, err := usecase.NewBuildPlan().Build(manifest)
	require.NoError(t, err)

	position := make(map[string]int)
	for i, name := range plan.Names() {
		position[name] = i
	}
	for _, c := range manifest.Components {
		for _, dep := range c.References() {
			assert.Less(t, position[dep], position[c.Name], "%s must come after %s", c.Name, dep)
		}
	}
	assert.Equal(t, []string{"Token", "Treasury"}, plan.Step("Faucet").Dependencies)
}

func TestBuildPlan_DeterministicAcrossRuns(t *testing.T) {
	manifest := &models.Manifest{Components: []*models.ComponentSpec{
		component("C", models.ProxyKindNone, ref("A")),
		component("B", models.ProxyKindNone),
		component("A", models.ProxyKindNone),
		component("D", models.ProxyKindNone, ref("B"), ref("C")),
	}}

	first, err := usecase.NewBuildPlan().Build(manifest)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := usecase.NewBuildPlan().Build(manifest)
		require.NoError(t, err)
		assert.Equal(t, first.Names(), again.Names())
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, first.Names())
}

func TestBuildPlan_UnknownReferenceSuggestsName(t *testing.T) {
	manifest := &models.Manifest{Components: []*models.ComponentSpec{
		component("Vault", models.ProxyKindTransparent, ref("Tokn")),
		component("Token", models.ProxyKindTransparent),
	}}

	_, err := usecase.NewBuildPlan().Build(manifest)
	var unknown *domain.UnknownReferenceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Vault", unknown.From)
	assert.Equal(t, "Tokn", unknown.To)
	assert.Contains(t, unknown.Suggestions, "Token")
	assert.Contains(t, err.Error(), "did you mean Token")
}

func TestBuildPlan_EmptyManifest(t *testing.T) {
	_, err := usecase.NewBuildPlan().Build(&models.Manifest{})
	assert.ErrorIs(t, err, domain.ErrGraph)
}
