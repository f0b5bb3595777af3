package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{
		out: out,
	}
}

// RenderNetworksList renders the list of configured networks
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in catapult.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, network := range result.Networks {
		if network.Error != nil {
			fmt.Fprintf(r.out, "  ❌ %s - Error: %v\n", network.Name, network.Error)
			continue
		}

		fmt.Fprintf(r.out, "  ✅ %s - Chain ID: %d", network.Name, network.ChainID)
		if network.Deployments > 0 {
			faintStyle.Fprintf(r.out, " (%d deployments)", network.Deployments)
		}
		fmt.Fprintln(r.out)

		if !network.HasFactory {
			faintStyle.Fprintln(r.out, "     no proxy_factory, transparent proxies unavailable")
		}
		if len(network.Unset) > 0 {
			fmt.Fprintf(r.out, "     %s\n", FormatWarning("unset: "+strings.Join(network.Unset, ", ")))
		}
	}

	return nil
}
