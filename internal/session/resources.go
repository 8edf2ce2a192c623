package session

// DefaultCrisisText is shown verbatim for the help command. The CLI layer
// may override it through Options.
const DefaultCrisisText = `
--- CRISIS RESOURCES ---
If you're in immediate danger, please call emergency services (911 in the US)

Crisis Helplines:
• National Suicide Prevention Lifeline: 1-800-273-8255
• Crisis Text Line: Text HOME to 741741
• Emergency Services: 911
• Domestic Violence Hotline: 1-800-799-7233

You matter, and help is available. These services are confidential and available 24/7.
----------------------------`

// crisisSpokenSummary is the condensed version spoken when voice mode is on.
const crisisSpokenSummary = "I notice you may be in distress. Please consider reaching out to crisis resources. " +
	"The National Suicide Prevention Lifeline is 1-800-273-8255. " +
	"You can text HOME to 741741 for the Crisis Text Line. " +
	"Or call 911 if it's an emergency."
