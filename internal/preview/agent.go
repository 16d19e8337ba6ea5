package preview

// Agent is a crawler identity a template can adapt to through the _ua parameter.
type Agent struct {
	ID    string
	Label string
}

var knownAgents = []Agent{
	{ID: "whatsapp", Label: "WhatsApp"},
	{ID: "telegram", Label: "Telegram"},
	{ID: "twitter", Label: "Twitter"},
	{ID: "facebook", Label: "Facebook"},
	{ID: "linkedin", Label: "LinkedIn"},
	{ID: "slack", Label: "Slack"},
	{ID: "discord", Label: "Discord"},
}

// Agents lists the agents offered in the UI. Any other non-empty value is
// still forwarded as-is.
func Agents() []Agent {
	out := make([]Agent, len(knownAgents))
	copy(out, knownAgents)
	return out
}
