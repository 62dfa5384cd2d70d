package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/talgya/ai-town/internal/classify"
	"github.com/talgya/ai-town/internal/entropy"
	"github.com/talgya/ai-town/internal/town"
)

// heavyQuakeIntensity separates the heavy reaction table from the light one.
const heavyQuakeIntensity = 0.65

// EventRecorder receives per-agent disaster events for later scoring.
type EventRecorder interface {
	Record(agent, kind string, at time.Time, details map[string]any)
}

// Disaster event kinds.
const (
	EventReaction = "反應"
	EventLoss     = "損失"
	EventCoop     = "合作"
	EventQuarrel  = "爭吵"
)

// QuakeReaction is the outcome of the onset reaction roll.
type QuakeReaction struct {
	Action      string
	MentalState string
	Damage      int
}

// HelpRecord describes one completed act of helping a peer.
type HelpRecord struct {
	Message    string
	Target     string
	OriginalHP int
	Amount     int
	NewHP      int
}

// Details renders the record as disaster event details.
func (h *HelpRecord) Details() map[string]any {
	return map[string]any{
		"message": h.Message,
		"受助者":     h.Target,
		"原始HP":    h.OriginalHP,
		"治療量":     h.Amount,
		"新HP":     h.NewHP,
	}
}

// ReactToEarthquake applies the onset damage roll and picks the agent's
// immediate reaction from personality and intensity. The chosen reaction sets
// the mental state, but the first visible action is always taking cover.
func (a *Agent) ReactToEarthquake(intensity float64, buildings *town.Buildings, peers []*Agent) QuakeReaction {
	place := town.Canonicalize(a.CurrPlace)
	indoor := town.Indoor(place)
	integrity := buildings.Integrity(place)
	d := a.cfg.Damage

	dmg := 0
	switch {
	case indoor && integrity < d.SevereIntegrityBelow:
		dmg = a.rng.Between(int(intensity*d.SevereMinFactor), int(intensity*d.SevereMaxFactor))
	case indoor:
		if a.rng.Float() < intensity*d.IndoorChanceFactor {
			dmg = a.rng.Between(1, int(intensity*d.IndoorMaxFactor))
		}
	default:
		if a.rng.Float() < intensity*d.OutdoorChanceFactor {
			dmg = a.rng.Between(1, int(intensity*d.OutdoorMaxFactor))
		}
	}

	lost := 0
	if dmg > 0 {
		lost = a.Damage(dmg)
		a.logDisaster("地震開始：在 %s 遭受 %d 點傷害 (HP: %d)", place, lost, a.Health())
	} else {
		a.logDisaster("地震開始：在 %s 未受傷", place)
	}
	if !a.Alive() {
		a.logDisaster("因重傷失去意識。")
		return QuakeReaction{Action: classify.LabelUnconscious, MentalState: StateUnconscious, Damage: lost}
	}

	mbti := strings.ToUpper(a.MBTI)
	action, state := classify.LabelSeekCover, StateAlert
	heavy := intensity >= heavyQuakeIntensity
	switch {
	case a.Injured():
		action, state = classify.LabelSeekMedical, StateInjured
	case heavy && strings.HasPrefix(mbti, "E") && strings.HasSuffix(mbti, "TJ"):
		action, state = classify.LabelLeadEvacuation, StateFocused
	case heavy && strings.HasPrefix(mbti, "E") && strings.Contains(mbti, "F"):
		action, state = classify.LabelCalmOthers, StatePanicked
	case heavy && strings.HasPrefix(mbti, "I") && strings.Contains(mbti, "F"):
		action, state = classify.LabelHideUnderDesk, StateFrozen
	case heavy:
		action, state = classify.LabelFindExit, StateAlert
	case strings.Contains(mbti, "J"):
		action, state = classify.LabelAssessArea, StateCalm
	default:
		action, state = classify.LabelSeekCover, StateAlert
	}

	if !a.Injured() && action != classify.LabelHideUnderDesk && a.anyInjuredNearby(peers) {
		p := a.cfg.Cooperation.HelpProbability(a.CooperationInclination())
		protective := action == classify.LabelSeekCover
		if protective && indoor && integrity < d.SevereIntegrityBelow {
			p *= a.cfg.Cooperation.UnsafeAbandonMult
		}
		if a.rng.Float() < p {
			action, state = classify.LabelHelpInjured, StateHelping
		}
	}

	a.MentalState = state
	a.logDisaster("初步反應：%s，精神狀態: %s", action, state)

	// The first visible step of every conscious agent is taking cover; the
	// rolled reaction takes over from the second step on.
	a.InterruptAction()
	a.LastAction = a.CurrAction
	a.CurrAction = classify.LabelSeekCover
	a.Pronunciatio = classify.Emoji(classify.LabelSeekCover)
	a.CurrentThought = "地震！先找掩護！"

	return QuakeReaction{Action: action, MentalState: state, Damage: lost}
}

// PerformEarthquakeStep advances the agent by one earthquake tick:
// minor damage, then cover, then evacuation toward the subway, then free
// model-driven behavior once sheltered. Helping a peer is attempted every
// step and reported as a cooperation event.
func (a *Agent) PerformEarthquakeStep(ctx context.Context, peers []*Agent, buildings *town.Buildings, intensity float64, rec EventRecorder, now time.Time) string {
	if !a.Alive() {
		return ""
	}

	place := town.Canonicalize(a.CurrPlace)
	integrity := buildings.Integrity(place)
	if a.rng.Float() < a.cfg.Damage.StepChanceFactor*intensity*(100-integrity)/100 {
		lost := a.Damage(a.rng.Between(1, a.cfg.Damage.StepMax))
		if lost > 0 {
			a.logDisaster("地震中：受到 %d 點輕微傷害 (HP: %d)", lost, a.Health())
			rec.Record(a.Name, EventLoss, now, map[string]any{
				"傷害": lost,
				"地點": a.CurrPlace,
				"HP": a.Health(),
			})
		}
		if !a.Alive() {
			a.logDisaster("因重傷失去意識。")
			return fmt.Sprintf("%s (%s): 失去意識", a.Name, a.MBTI)
		}
	}

	var note string
	switch {
	case !a.quakeCoverTaken:
		a.quakeCoverTaken = true
		a.CurrAction = classify.LabelSeekCover
		a.Pronunciatio = classify.Emoji(classify.LabelSeekCover)
		a.logDisaster("地震中：%s", a.CurrAction)
		note = a.CurrAction

	case !a.quakeEvacStarted:
		a.quakeEvacStarted = true
		a.TargetPlace = town.Subway
		a.CurrAction = classify.LabelEvacToSubway
		a.Pronunciatio = classify.Emoji(classify.LabelEvacToSubway)
		a.stepTowardSubway()
		a.logDisaster("地震中：開始撤離，目前在 %s", a.CurrPlace)
		note = fmt.Sprintf("%s (%s)", a.CurrAction, a.CurrPlace)

	case town.Canonicalize(a.CurrPlace) != town.Subway:
		a.stepTowardSubway()
		if town.Canonicalize(a.CurrPlace) == town.Subway {
			a.CurrAction = classify.LabelShelterSubway
			a.Pronunciatio = classify.Emoji(classify.LabelShelterSubway)
			a.logDisaster("地震中：抵達地鐵站避難。")
		} else {
			a.logDisaster("地震中：往地鐵撤離，目前在 %s", a.CurrPlace)
		}
		note = fmt.Sprintf("%s (%s)", a.CurrAction, a.CurrPlace)

	default:
		a.EnterThinking()
		action, thought := a.brain.EarthquakeStepAction(ctx, a.PersonaSummary, a.Health(), a.MentalState, a.CurrPlace, intensity, a.DisasterLog)
		a.CurrAction = action
		a.CurrentThought = thought
		a.Pronunciatio = a.emojiFor(ctx, action)
		a.ExitThinking()
		a.logDisaster("地震中：%s", action)
		note = action
	}

	if help := a.PerceiveAndHelp(peers); help != nil {
		a.CurrAction = classify.LabelHelpInjured
		a.Pronunciatio = classify.Emoji(classify.LabelHelpInjured)
		a.MentalState = StateHelping
		rec.Record(a.Name, EventCoop, now, help.Details())
		note = help.Message
	}

	return fmt.Sprintf("%s (%s): %s %s", a.Name, a.MBTI, a.Pronunciatio, note)
}

// PerformRecoveryStep is the post-quake counterpart: tend wounds, help peers,
// or ask the model what this personality does while the town settles down.
func (a *Agent) PerformRecoveryStep(ctx context.Context, peers []*Agent, rec EventRecorder, now time.Time) string {
	if !a.Alive() {
		return fmt.Sprintf("%s 依然昏迷。", a.Name)
	}

	switch {
	case a.Injured():
		a.CurrAction = "尋找醫療資源或休息"
		a.Pronunciatio = classify.Emoji(classify.LabelSeekMedical)
		a.logDisaster("恢復期：%s", a.CurrAction)

	default:
		if help := a.PerceiveAndHelp(peers); help != nil {
			a.CurrAction = classify.LabelHelpInjured
			a.Pronunciatio = classify.Emoji(classify.LabelHelpInjured)
			rec.Record(a.Name, EventCoop, now, help.Details())
			a.logDisaster("恢復期：%s", help.Message)
			break
		}
		a.EnterThinking()
		action := a.brain.RecoveryAction(ctx, a.PersonaSummary, a.MentalState, a.CurrPlace)
		a.CurrAction = action
		a.Pronunciatio = a.emojiFor(ctx, action)
		a.ExitThinking()
		a.logDisaster("恢復期：%s", action)
	}

	return fmt.Sprintf("%s (%s): %s %s", a.Name, a.MBTI, a.Pronunciatio, a.CurrAction)
}

// PerceiveAndHelp heals the worst-off hurt peer at the agent's location, or
// failing that offers one stabilizing boost per disaster to a random survivor.
func (a *Agent) PerceiveAndHelp(peers []*Agent) *HelpRecord {
	if !a.Alive() || a.Injured() {
		return nil
	}

	var hurt []*Agent
	for _, p := range peers {
		if p == a || !p.Alive() || p.CurrPlace != a.CurrPlace {
			continue
		}
		if p.Health() < 90 || p.Injured() {
			hurt = append(hurt, p)
		}
	}

	if len(hurt) > 0 {
		target := hurt[0]
		for _, p := range hurt[1:] {
			if p.Health() < target.Health() {
				target = p
			}
		}
		orig := target.Health()
		restored := target.Heal(a.rng.Between(a.cfg.Cooperation.HealMin, a.cfg.Cooperation.HealMax))
		newHP := target.Health()
		a.logDisaster("協助：幫助了 %s (+%d HP -> %d)", target.Name, restored, newHP)
		return &HelpRecord{
			Message:    fmt.Sprintf("協助 %s 治療 (+%d HP -> %d)", target.Name, restored, newHP),
			Target:     target.Name,
			OriginalHP: orig,
			Amount:     restored,
			NewHP:      newHP,
		}
	}

	if a.supportCommitted {
		return nil
	}
	var alive []*Agent
	for _, p := range peers {
		if p != a && p.Alive() {
			alive = append(alive, p)
		}
	}
	if len(alive) == 0 {
		return nil
	}
	a.supportCommitted = true
	target := entropy.Pick(a.rng, alive)
	orig := target.Health()
	restored := target.Heal(a.rng.Between(a.cfg.Cooperation.SupportMin, a.cfg.Cooperation.SupportMax))
	newHP := target.Health()
	a.logDisaster("協助：為 %s 穩定狀態 (+%d HP)", target.Name, restored)
	return &HelpRecord{
		Message:    fmt.Sprintf("為 %s 穩定狀態 (+%d HP -> %d)", target.Name, restored, newHP),
		Target:     target.Name,
		OriginalHP: orig,
		Amount:     restored,
		NewHP:      newHP,
	}
}

// anyInjuredNearby reports whether a hurt, conscious peer shares the agent's
// location.
func (a *Agent) anyInjuredNearby(peers []*Agent) bool {
	for _, p := range peers {
		if p != a && p.Alive() && p.Injured() && p.CurrPlace == a.CurrPlace {
			return true
		}
	}
	return false
}

// stepTowardSubway advances one hop of the evacuation route: traverse the
// portal the agent is standing on, otherwise resolve the next waypoint.
func (a *Agent) stepTowardSubway() {
	if town.IsPortal(a.CurrPlace) {
		a.Teleport(a.CurrPlace)
		return
	}
	a.PreviousPlace = a.CurrPlace
	a.CurrPlace = town.ResolvePath(a.CurrPlace, town.Subway)
}
