package exprgraph

import (
	"io"
	"sync"

	"exprgraph/internal/clause"
)

var (
	oracleRegistryMu sync.Mutex
	oracleRegistry    = make(map[string]clause.Decoder)
)

// RegisterOracle maps tag to a decode constructor so Deserialize can
// reconstruct Oracle leaves carrying that clause type. Call sites
// typically do this from an init function, the way the teacher wires up
// its named module/function registries.
func RegisterOracle(tag string, decode func(r io.Reader) (Clause, error)) {
	oracleRegistryMu.Lock()
	defer oracleRegistryMu.Unlock()
	oracleRegistry[tag] = clause.Decoder(decode)
}

func lookupOracleDecoder(tag string) (clause.Decoder, bool) {
	oracleRegistryMu.Lock()
	defer oracleRegistryMu.Unlock()
	d, ok := oracleRegistry[tag]
	return d, ok
}
