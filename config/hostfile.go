package config

import "github.com/BurntSushi/toml"

// hostFileDoc is the on-disk shape LoadHostFile parses, one [[peer]]
// table per participating process in index order:
//
//	[[peer]]
//	addr = "10.0.0.1:9000"
//
//	[[peer]]
//	addr = "10.0.0.2:9000"
type hostFileDoc struct {
	Peer []Peer `toml:"peer"`
}

// LoadHostFile parses a host file at path into the ordered peer address
// list a Config's Peers field expects. This is the one piece of parsing
// spec.md §4.3 assigns to the host rather than the core, but every
// pack manifest this module draws from reaches for BurntSushi/toml over
// a hand-rolled line format, so it lives here rather than in cmd/tdworker.
func LoadHostFile(path string) ([]Peer, error) {
	var doc hostFileDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, err
	}
	return doc.Peer, nil
}
