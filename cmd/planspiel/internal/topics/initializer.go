// Package topics registers and prints the bus topics for the CLI.
package topics

import (
	"github.com/nfrund/planspiel/internal/topicmgr"
	"github.com/nfrund/planspiel/internal/websocket"

	// Module topics register themselves when the package is loaded.
	_ "github.com/nfrund/planspiel/internal/modules/planspiel/topics"
)

// Initialize registers the framework topics with the default manager. Module
// topics are already registered by the imports above.
func Initialize() error {
	return websocket.RegisterTopics(topicmgr.Default())
}
