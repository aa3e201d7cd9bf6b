package topics

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nfrund/planspiel/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string         `json:"name"`
	Scope       string         `json:"scope"`
	Module      string         `json:"module"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func display(t topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        t.Name(),
		Scope:       string(t.Scope()),
		Module:      t.Module(),
		Description: t.Description(),
		Pattern:     t.Pattern(),
		Example:     t.Example(),
		Metadata:    t.Metadata(),
	}
}

// WriteTable writes topics as an aligned table.
func WriteTable(w io.Writer, topics []topicmgr.Topic) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCOPE\tMODULE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----\t------\t-----------")
	for _, topic := range topics {
		module := topic.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			topic.Name(), topic.Scope(), module, truncate(topic.Description(), 60))
	}
	return tw.Flush()
}

// WriteJSON writes topics as an indented JSON document with a count.
func WriteJSON(w io.Writer, topics []topicmgr.Topic) error {
	out := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{Topics: make([]TopicDisplay, len(topics)), Count: len(topics)}
	for i, t := range topics {
		out.Topics[i] = display(t)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// truncate shortens s to maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
