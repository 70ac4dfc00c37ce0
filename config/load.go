//go:build !rp2040

package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"beaconcode-go/errcode"
)

// Load reads a YAML board file over the defaults, then validates and
// normalizes it. Keys missing from the file keep their default value.
func Load(path string) (Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Board{}, errcode.Wrap("config.load", err)
	}
	return Parse(data)
}

// Parse is Load without the file. Unknown keys are rejected.
func Parse(data []byte) (Board, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Board{}, &errcode.E{C: errcode.InvalidParams, Op: "config.parse", Msg: err.Error(), Err: err}
	}
	if err := Validate(&cfg); err != nil {
		return Board{}, err
	}
	Normalize(&cfg)
	return cfg, nil
}

// Marshal renders cfg as YAML, e.g. to seed a board file.
func Marshal(cfg Board) ([]byte, error) {
	return yaml.Marshal(cfg)
}
