package solver

import (
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
)

// CanonicalHash keys a state independently of box order: the box
// positions as "x,y" sorted as strings, joined by ";", then ":" and the
// hero position.
func CanonicalHash(hero engine.Position, boxes []engine.Position) string {
	keys := make([]string, len(boxes))
	for i, b := range boxes {
		keys[i] = b.String()
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(strings.Join(keys, ";"))
	sb.WriteByte(':')
	sb.WriteString(hero.String())
	return sb.String()
}
