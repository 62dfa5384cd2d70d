package agent

import (
	"context"

	"github.com/talgya/ai-town/internal/classify"
	"github.com/talgya/ai-town/internal/town"
)

// cannedThoughts are assigned without invoking the model for the lightweight
// transitions.
var cannedThoughts = map[string]string{
	classify.LabelSleep:       "今天結束了，該睡了...",
	classify.LabelWake:        "新的一天開始了。",
	ActionWaitingInit:         "",
	classify.LabelUnconscious: "",
}

// SetNewAction transitions the agent to a new action heading for destination.
// Identical transitions are no-ops. Lightweight actions get canned thoughts;
// everything else generates a thought and emoji through the model.
func (a *Agent) SetNewAction(ctx context.Context, action, destination string) {
	dest := town.Canonicalize(destination)
	if !town.IsCanonical(dest) && !town.IsPortal(dest) {
		if action == classify.LabelSleep || action == classify.LabelWake {
			dest = a.Home
		}
	}
	if action == a.CurrAction && dest == a.TargetPlace {
		return
	}

	a.InterruptAction()
	a.CurrAction = action
	a.PreviousPlace = a.CurrPlace
	a.TargetPlace = dest
	a.CurrPlace = town.ResolvePath(a.CurrPlace, dest)

	if thought, ok := cannedThoughts[action]; ok {
		a.CurrentThought = thought
		a.Pronunciatio = a.emojiFor(ctx, action)
		return
	}

	a.EnterThinking()
	defer a.ExitThinking()
	a.CurrentThought = a.brain.ActionThought(ctx, a.PersonaSummary, a.CurrPlace, action)
	a.Pronunciatio = a.emojiFor(ctx, action)
}

// emojiFor resolves an action's emoji: the classifier covers the canonical
// vocabulary, the model fills in anything unusual, and results are memoized
// per label.
func (a *Agent) emojiFor(ctx context.Context, action string) string {
	if e, ok := a.emojiCache[action]; ok {
		return e
	}
	label, emoji := classify.Classify(action)
	if label == classify.LabelUnconscious && action != classify.LabelUnconscious {
		emoji = a.brain.Pronunciatio(ctx, action)
	}
	a.emojiCache[action] = emoji
	return emoji
}

// SetLightweightAction assigns an action without any model involvement, for
// the inactive path (sleeping or unconscious agents).
func (a *Agent) SetLightweightAction(action string) {
	a.CurrAction = action
	a.Pronunciatio = classify.Emoji(action)
	if thought, ok := cannedThoughts[action]; ok {
		a.CurrentThought = thought
	}
	if action == classify.LabelSleep {
		a.CurrPlace = a.Home
		a.TargetPlace = a.Home
	}
}
