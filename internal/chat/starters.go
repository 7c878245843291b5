package chat

// Starters maps the widget's quick-start buttons to the message they send.
var Starters = map[string]string{
	"describe":  "I need help describing my project and figuring out what AI solutions would work",
	"doc-chaos": "Our document handling is chaotic. Can Limbo help us automate and organize it?",
	"site-bot":  "What would it cost to add an AI chatbot to handle customer questions on our website?",
	"ai-site":   "I want to build a website with AI capabilities - personalization, recommendations, etc.",
	"schedule":  "I need an AI system to manage my schedule and handle meeting requests automatically",
}

func StarterMessage(id string) (string, bool) {
	m, ok := Starters[id]
	return m, ok
}
