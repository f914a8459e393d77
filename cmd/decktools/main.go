// decktools prepares slide decks: it normalizes markdown punctuation,
// inspects and edits images, and serves the rendered deck with live reload.
package main

import (
	"os"

	"github.com/hupe1980/decktools/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
