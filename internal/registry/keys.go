package registry

import (
	"github.com/nfrund/planspiel/internal/pubsub"
	"github.com/nfrund/planspiel/internal/rendering"
	"github.com/nfrund/planspiel/internal/ui"
	"github.com/nfrund/planspiel/internal/websocket"
)

// Core services the server registers before any module runs Register.
var (
	KeyPublisher  = Key[pubsub.Publisher]("core.Publisher")
	KeySubscriber = Key[pubsub.Subscriber]("core.Subscriber")
	KeyRenderer   = Key[rendering.Renderer]("core.Renderer")
	KeyBridge     = Key[*websocket.Bridge]("core.Bridge")
	KeyController = Key[*ui.Controller]("core.Controller")
)
