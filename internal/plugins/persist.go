package plugins

import (
	"encoding/base64"
	"encoding/json"

	"github.com/wavecraft/wavecraft/internal/logging"
)

const chainFormatVersion = 1

type nodeJSON struct {
	Identifier string `json:"identifier"`
	Bypassed   bool   `json:"bypassed"`
	StateBlob  string `json:"stateBlob"`
}

type chainJSON struct {
	Version int        `json:"version"`
	Nodes   []nodeJSON `json:"nodes"`
}

// Marshal serialises the chain to JSON: an ordered list of
// {identifier, bypassed, stateBlob} plus a format version.
func (c *Chain) Marshal() ([]byte, error) {
	doc := chainJSON{Version: chainFormatVersion}
	for _, n := range c.snapshot() {
		doc.Nodes = append(doc.Nodes, nodeJSON{
			Identifier: n.Descriptor().Identifier,
			Bypassed:   n.Bypassed(),
			StateBlob:  base64.StdEncoding.EncodeToString(n.instance.SaveState()),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Instantiator creates a fresh Instance for a given plugin identifier, used
// when loading a persisted chain. Returning an error for an unrecognised
// identifier causes that single node to be skipped; other nodes still load.
type Instantiator func(identifier string) (Instance, error)

// LoadResult reports which persisted nodes loaded and which were skipped.
type LoadResult struct {
	Loaded  int
	Skipped []string
}

// UnmarshalInto loads a persisted chain, instantiating each node via create.
// Unknown identifiers are skipped individually; everything else loads.
func (c *Chain) UnmarshalInto(data []byte, create Instantiator) (LoadResult, error) {
	var doc chainJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return LoadResult{}, err
	}

	var result LoadResult
	var nodes []*Node
	for _, nj := range doc.Nodes {
		instance, err := create(nj.Identifier)
		if err != nil {
			logging.Warn("plugin chain load: skipping unknown plugin", "identifier", nj.Identifier, "error", err)
			result.Skipped = append(result.Skipped, nj.Identifier)
			continue
		}
		state, err := base64.StdEncoding.DecodeString(nj.StateBlob)
		if err == nil && len(state) > 0 {
			_ = instance.LoadState(state)
		}
		node := NewNode(instance)
		node.SetBypassed(nj.Bypassed)
		nodes = append(nodes, node)
		result.Loaded++
	}

	if nodes == nil {
		nodes = []*Node{}
	}
	c.publish(nodes)
	return result, nil
}

// Clone builds an independent Chain from fresh instances created via
// create, matching this chain's node order, bypass flags, and saved state.
// Callers pass the clone as render.Options.Plugins so an offline render
// never shares instances with the live, audio-thread-owned chain; render
// itself does not call Clone.
func (c *Chain) Clone(create Instantiator) (*Chain, error) {
	data, err := c.Marshal()
	if err != nil {
		return nil, err
	}
	clone := New()
	if _, err := clone.UnmarshalInto(data, create); err != nil {
		return nil, err
	}
	return clone, nil
}
