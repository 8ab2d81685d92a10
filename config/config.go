// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the external configuration document:
// participants, meshes, data fields, mappings, M2N channels and
// coupling-scheme nodes, written as XML. Loading follows a struct-tags +
// SetDefault + PostProcess pattern, with PostProcess called right after
// unmarshal, over encoding/xml.
package config

import (
	"encoding/xml"
	"os"

	"github.com/cpmech/gosl/chk"
)

// Config is the root of the configuration document.
type Config struct {
	XMLName      xml.Name       `xml:"gocouple-configuration"`
	Participants []Participant  `xml:"participant"`
	M2Ns         []M2NChannel   `xml:"m2n"`
	Schemes      []SchemeConfig `xml:"coupling-scheme"`
}

// Participant is one simulation code coupling through the configuration.
type Participant struct {
	Name   string       `xml:"name,attr"`
	Meshes []MeshConfig `xml:"mesh"`
}

// MeshConfig binds a named mesh to its data fields.
type MeshConfig struct {
	Name string        `xml:"name,attr"`
	Dim  int           `xml:"dimension,attr"`
	Data []DataConfig  `xml:"data"`
}

// DataConfig declares one field carried by a mesh.
type DataConfig struct {
	Name     string `xml:"name,attr"`
	ValueDim int    `xml:"value-dimension,attr"`
}

// M2NChannel configures one transport between a pair of participants
//.
type M2NChannel struct {
	First     string `xml:"first,attr"`
	Second    string `xml:"second,attr"`
	Transport string `xml:"transport,attr"` // "sockets", "mpi-ports", "mpi-direct"
	Address   string `xml:"address,attr"`
}

// SetDefault applies its implied default transport.
func (o *M2NChannel) SetDefault() {
	if o.Transport == "" {
		o.Transport = "sockets"
	}
}

// PostProcess validates the transport kind after unmarshal.
func (o *M2NChannel) PostProcess() error {
	o.SetDefault()
	switch o.Transport {
	case "sockets", "mpi-ports", "mpi-direct":
	default:
		return chk.Err("m2n %s<->%s: unknown transport kind %q", o.First, o.Second, o.Transport)
	}
	if o.First == "" || o.Second == "" {
		return chk.Err("m2n channel: both first and second participants must be named")
	}
	return nil
}

// ExchangeConfig is one entry in a coupling-scheme's exchange list.
type ExchangeConfig struct {
	Data   string `xml:"data,attr"`
	Mesh   string `xml:"mesh,attr"`
	From   string `xml:"from,attr"`
	To     string `xml:"to,attr"`
}

// PostProcessingConfig is the optional acceleration block of a
// coupling-scheme node.
type PostProcessingConfig struct {
	Kind    string  `xml:"kind,attr"` // "constant", "aitken", "IQN-ILS", "IQN-IMVJ", "manifold-mapping"
	Omega   float64 `xml:"omega,attr"`
	MaxCols int     `xml:"max-columns,attr"`
}

// MeasureConfig is one convergence-measure entry.
type MeasureConfig struct {
	Kind string  `xml:"kind,attr"` // "absolute", "relative", "residual-relative", "wrms"
	Data string  `xml:"data,attr"`
	Tol  float64 `xml:"tolerance,attr"`
	Abs  float64 `xml:"absolute-tolerance,attr"`
}

// SchemeConfig is one coupling-scheme node.
type SchemeConfig struct {
	Type            string               `xml:"type,attr"` // serial-explicit, parallel-explicit, serial-implicit, parallel-implicit, multi
	Participants    []string             `xml:"participant"`
	TimestepLength  float64              `xml:"timestep-length,attr"`
	MaxTime         float64              `xml:"max-time,attr"`
	HasMaxTime      bool                 `xml:"-"`
	MaxIterations   int                  `xml:"max-iterations,attr"`
	MinIterations   int                  `xml:"min-iterations,attr"`
	Exchanges       []ExchangeConfig     `xml:"exchange"`
	PostProcessing  *PostProcessingConfig `xml:"post-processing"`
	Measures        []MeasureConfig      `xml:"convergence-measure"`
	Children        []SchemeConfig       `xml:"coupling-scheme"` // only populated when Type == "multi" or a compositional wrapper
}

// SetDefault applies the scheme-level defaults implied by /§4.5.
func (o *SchemeConfig) SetDefault() {
	if o.PostProcessing != nil && o.PostProcessing.Kind == "constant" && o.PostProcessing.Omega == 0 {
		o.PostProcessing.Omega = 1
	}
}

// PostProcess validates a scheme node and its nested configuration.
func (o *SchemeConfig) PostProcess() error {
	o.SetDefault()
	switch o.Type {
	case "serial-explicit", "parallel-explicit", "serial-implicit", "parallel-implicit", "multi":
	default:
		return chk.Err("coupling-scheme: unknown type %q", o.Type)
	}
	if o.TimestepLength <= 0 {
		return chk.Err("coupling-scheme %s: timestep-length must be positive, got %g", o.Type, o.TimestepLength)
	}
	o.HasMaxTime = o.MaxTime > 0
	for i := range o.Children {
		if err := o.Children[i].PostProcess(); err != nil {
			return err
		}
	}
	return nil
}

// Read parses path and runs the unmarshal-then-PostProcess flow to
// validate it.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, chk.Err("config: cannot read %s: %v", path, err)
	}
	var cfg Config
	if err := xml.Unmarshal(b, &cfg); err != nil {
		return nil, chk.Err("config: cannot parse %s: %v", path, err)
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PostProcess validates every nested section after unmarshal.
func (o *Config) PostProcess() error {
	seen := map[string]bool{}
	for _, p := range o.Participants {
		if seen[p.Name] {
			return chk.Err("config: duplicate participant name %q", p.Name)
		}
		seen[p.Name] = true
	}
	for i := range o.M2Ns {
		if err := o.M2Ns[i].PostProcess(); err != nil {
			return err
		}
		if !seen[o.M2Ns[i].First] || !seen[o.M2Ns[i].Second] {
			return chk.Err("m2n channel references unknown participant(s) %q/%q", o.M2Ns[i].First, o.M2Ns[i].Second)
		}
	}
	for i := range o.Schemes {
		if err := o.Schemes[i].PostProcess(); err != nil {
			return err
		}
	}
	return nil
}
