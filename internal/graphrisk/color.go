package graphrisk

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Node colors used by graph consumers. The queried wallet and blacklisted
// wallets get fixed colors; everything else gets a stable hash-derived one
// so the same address renders the same color across queries.
const (
	colorTarget      = "#0d6efd"
	colorBlacklisted = "#dc3545"
)

func nodeColor(address string) string {
	sum := md5.Sum([]byte(strings.ToLower(address)))
	return "#" + hex.EncodeToString(sum[:])[:6]
}
