package escalation

import (
	"fmt"
	"time"
)

type variant struct {
	emoji string
	title string
	hook  string
}

var variants = [...]variant{
	{
		emoji: "🚨",
		title: "This one's above my pay grade!",
		hook:  "Don't worry—we'll bring coffee and way too many sticky notes. 😉",
	},
	{
		emoji: "🎯",
		title: "You've unlocked: Human Expert Mode!",
		hook:  "Our team loves these kinds of challenges—consider them caffeinated and ready. ☕",
	},
	{
		emoji: "🚀",
		title: "Houston, we need a human!",
		hook:  "Your question deserves the full Limbo Studio brain trust (Post-its included). 📝",
	},
}

// Response is the fixed in-chat handoff text shown instead of a model reply.
// The variant is picked from the clock.
func Response(now time.Time) string {
	v := variants[now.UnixMilli()%int64(len(variants))]
	return fmt.Sprintf(`%s %s

I can guide you on many things, but this request is best handled by a human at Limbo Studio. Your question requires the kind of deep expertise and custom judgment that goes beyond what I can provide in this chat.

**Good news**: I've automatically sent this conversation to our team at contact@thelimbostudio.com, so they already have all the context.

Someone will reach out within 24 hours to dive into this with you personally.

%s

In the meantime, is there anything else I can help you explore?`, v.emoji, v.title, v.hook)
}
