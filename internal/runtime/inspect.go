package runtime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
)

// dockerInspect is the subset of `docker inspect` output we read.
type dockerInspect struct {
	State struct {
		Status     string `json:"Status"`
		Running    bool   `json:"Running"`
		Paused     bool   `json:"Paused"`
		Restarting bool   `json:"Restarting"`
		Dead       bool   `json:"Dead"`
	} `json:"State"`
	Config struct {
		Image string `json:"Image"`
	} `json:"Config"`
	NetworkSettings struct {
		Networks orderedNetworks `json:"Networks"`
	} `json:"NetworkSettings"`
}

type networkEndpoint struct {
	IPAddress string `json:"IPAddress"`
}

type namedNetwork struct {
	Name     string
	Endpoint networkEndpoint
}

// orderedNetworks keeps networks in the order the runtime reported them,
// which a map would lose.
type orderedNetworks []namedNetwork

func (n *orderedNetworks) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*n = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("networks: expected object, got %v", tok)
	}

	var out orderedNetworks
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var ep networkEndpoint
		if err := dec.Decode(&ep); err != nil {
			return fmt.Errorf("network %s: %w", name, err)
		}
		out = append(out, namedNetwork{Name: name, Endpoint: ep})
	}
	*n = out
	return nil
}

// ip prefers the default bridge, then the first network with an address.
func (n orderedNetworks) ip() string {
	for _, net := range n {
		if net.Name == "bridge" && net.Endpoint.IPAddress != "" {
			return net.Endpoint.IPAddress
		}
	}
	for _, net := range n {
		if net.Endpoint.IPAddress != "" {
			return net.Endpoint.IPAddress
		}
	}
	return ""
}

func (d *dockerInspect) status() devenv.Status {
	switch {
	case d.State.Running:
		return devenv.StatusRunning
	case d.State.Paused, d.State.Restarting:
		return devenv.StatusStopped
	case d.State.Dead:
		return devenv.StatusError
	default:
		return devenv.StatusStopped
	}
}

// parseInspect converts `docker inspect` output. An empty array means the
// container does not exist.
func parseInspect(data []byte) (*Info, error) {
	var containers []dockerInspect
	if err := json.Unmarshal(data, &containers); err != nil {
		return nil, fmt.Errorf("failed to parse inspect output: %w", err)
	}
	if len(containers) == 0 {
		return nil, nil
	}

	c := containers[0]
	return &Info{
		Status: c.status(),
		IP:     c.NetworkSettings.Networks.ip(),
		Distro: c.Config.Image,
	}, nil
}
