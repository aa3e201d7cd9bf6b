package planspiel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/modules/planspiel/components"
	"github.com/nfrund/planspiel/internal/modules/planspiel/topics"
	"github.com/nfrund/planspiel/internal/pubsub"
	"github.com/nfrund/planspiel/internal/rendering"
	"github.com/nfrund/planspiel/internal/ui"
	"github.com/nfrund/planspiel/internal/websocket"
)

// ActionStateRequest is the data socket action that asks for the full state.
const ActionStateRequest = "state.request"

// panelsFor names the board panels that change with each notification.
var panelsFor = map[game.EventName][]string{
	game.EventGameStarted:          components.AllPanels,
	game.EventGameEnded:            components.AllPanels,
	game.EventPhaseStarted:         {components.IDStatus, components.IDPhase, components.IDForecast, components.IDDashboard},
	game.EventAnalysisPhaseReady:   {components.IDInvestments, components.IDEvents, components.IDResults, components.IDDashboard},
	game.EventPlanningPhaseReady:   {components.IDInvestments, components.IDDashboard},
	game.EventEventsPhaseReady:     {components.IDEvents, components.IDDashboard},
	game.EventRealityPhaseReady:    {components.IDResults, components.IDDashboard},
	game.EventEvaluationPhaseReady: {components.IDResults, components.IDDashboard},
	game.EventInvestmentMade:       {components.IDDashboard, components.IDStatus},
	game.EventRoundCompleted:       {components.IDDashboard, components.IDStatus},
}

// Subscriber turns planspiel bus traffic into websocket output: panel
// fragments for HTML clients and JSON envelopes for data clients.
type Subscriber struct {
	subscriber pubsub.Subscriber
	publisher  pubsub.Publisher
	renderer   rendering.Renderer
	controller *ui.Controller
	now        func() time.Time
	logger     *slog.Logger
}

func NewSubscriber(sub pubsub.Subscriber, pub pubsub.Publisher, renderer rendering.Renderer, controller *ui.Controller, now func() time.Time, logger *slog.Logger) *Subscriber {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		subscriber: sub,
		publisher:  pub,
		renderer:   renderer,
		controller: controller,
		now:        now,
		logger:     logger,
	}
}

// Start subscribes to every topic the module reacts to.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("Starting planspiel subscriber")

	subs := []func(context.Context) error{
		listen(s, topics.GameStarted, game.EventGameStarted),
		listen(s, topics.PhaseStarted, game.EventPhaseStarted),
		listen(s, topics.RoundCompleted, game.EventRoundCompleted),
		listen(s, topics.GameEnded, game.EventGameEnded),
		listen(s, topics.AnalysisPhaseReady, game.EventAnalysisPhaseReady),
		listen(s, topics.PlanningPhaseReady, game.EventPlanningPhaseReady),
		listen(s, topics.EventsPhaseReady, game.EventEventsPhaseReady),
		listen(s, topics.RealityPhaseReady, game.EventRealityPhaseReady),
		listen(s, topics.EvaluationPhaseReady, game.EventEvaluationPhaseReady),
		listen(s, topics.InvestmentMade, game.EventInvestmentMade),
		listen(s, topics.ForecastMade, game.EventForecastMade),
		func(ctx context.Context) error {
			return pubsub.Subscribe(ctx, s.subscriber, topics.Reset, s.handleReset)
		},
		func(ctx context.Context) error {
			return s.subscriber.Subscribe(ctx, websocket.TopicClientReady.Name(), s.handleClientReady)
		},
		func(ctx context.Context) error {
			return s.subscriber.Subscribe(ctx, websocket.TopicClientMessage.Name(), s.handleClientMessage)
		},
	}
	for _, subscribe := range subs {
		if err := subscribe(ctx); err != nil {
			return fmt.Errorf("planspiel subscriber: %w", err)
		}
	}
	return nil
}

func listen[T any](s *Subscriber, event pubsub.Event[T], name game.EventName) func(context.Context) error {
	return func(ctx context.Context) error {
		return pubsub.Subscribe(ctx, s.subscriber, event, func(ctx context.Context, payload T) error {
			return s.forward(ctx, name, payload)
		})
	}
}

// forward pushes the panels affected by a notification to every HTML
// client and the notification itself to every data client.
func (s *Subscriber) forward(ctx context.Context, name game.EventName, payload any) error {
	if ids := panelsFor[name]; len(ids) > 0 {
		html, err := s.panels(ctx, ids...)
		if err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, pubsub.Message{Topic: websocket.TopicHTMLBroadcast.Name(), Payload: html}); err != nil {
			return err
		}
	}
	data, err := json.Marshal(websocket.NewDataMessage(string(name), payload))
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.publisher.Publish(ctx, pubsub.Message{Topic: websocket.TopicDataBroadcast.Name(), Payload: data})
}

func (s *Subscriber) panels(ctx context.Context, ids ...string) ([]byte, error) {
	return s.renderer.RenderComponent(ctx, components.OOB(s.controller.View(), s.now(), ids...))
}

func (s *Subscriber) handleReset(ctx context.Context, notice topics.ResetNotice) error {
	s.logger.Info("Game reset, refreshing clients", "reason", notice.Reason)
	html, err := s.panels(ctx, components.AllPanels...)
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, pubsub.Message{Topic: websocket.TopicHTMLBroadcast.Name(), Payload: html}); err != nil {
		return err
	}
	cmd, err := json.Marshal(websocket.NewCommand(websocket.CmdReload))
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, pubsub.Message{Topic: websocket.TopicDataBroadcast.Name(), Payload: cmd})
}

type clientLifecycle struct {
	Endpoint string `json:"endpoint"`
	ClientID string `json:"clientID"`
}

// handleClientReady brings a freshly connected client up to date.
func (s *Subscriber) handleClientReady(ctx context.Context, msg pubsub.Message) error {
	var lc clientLifecycle
	if err := json.Unmarshal(msg.Payload, &lc); err != nil {
		return fmt.Errorf("decode client ready: %w", err)
	}
	if lc.ClientID == "" {
		lc.ClientID = msg.UserID
	}
	switch lc.Endpoint {
	case websocket.ConnectionTypeHTML.String():
		html, err := s.panels(ctx, components.AllPanels...)
		if err != nil {
			return err
		}
		return s.direct(ctx, websocket.TopicHTMLDirect.Name(), lc.ClientID, html)
	case websocket.ConnectionTypeData.String():
		return s.sendState(ctx, lc.ClientID)
	}
	return nil
}

func (s *Subscriber) handleClientMessage(ctx context.Context, msg pubsub.Message) error {
	if !strings.EqualFold(msg.Metadata["action"], ActionStateRequest) {
		return nil
	}
	return s.sendState(ctx, msg.UserID)
}

func (s *Subscriber) sendState(ctx context.Context, clientID string) error {
	data, err := json.Marshal(websocket.NewDataMessage("state", s.controller.State()))
	if err != nil {
		return err
	}
	return s.direct(ctx, websocket.TopicDataDirect.Name(), clientID, data)
}

func (s *Subscriber) direct(ctx context.Context, topic, clientID string, payload []byte) error {
	return s.publisher.Publish(ctx, pubsub.Message{
		Topic:    topic,
		Payload:  payload,
		Metadata: map[string]string{websocket.MetaRecipientID: clientID},
	})
}
