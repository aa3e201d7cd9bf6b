// Package topicmgr keeps the catalogue of message bus topics.
//
// Topics are declared once, as package-level values, and registered with a
// Manager so they can be discovered at runtime and listed by the CLI:
//
//	var PhaseStarted = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "planspiel.phaseStarted",
//		Module:      "planspiel",
//		Description: "A new game phase began",
//		Pattern:     "planspiel.phaseStarted",
//		Example:     `{"phase":"analysis","name":"Analysephase","duration":300}`,
//	})
//
//	topicmgr.Default().MustRegister(PhaseStarted)
//
// Framework topics belong to shared infrastructure such as the websocket
// bridge and carry no module.
package topicmgr
