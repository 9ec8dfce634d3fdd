package game

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"gameroom/internal/logger"
)

// NPCBase layers computer-controlled players on top of Base. Each NPC seat
// gets a policy loaded on activation and a background worker that consumes
// the latest game state and submits actions through the full enqueue chain,
// so turn tokens and validity checks apply to NPCs exactly as to humans.
type NPCBase struct {
	Base

	ticksPerAIAction int
	blockForAI       bool

	rosterMu     sync.RWMutex
	npcPlayers   map[string]struct{}
	humanPlayers map[string]struct{}

	policySet *PolicySet
	policies  map[string]Policy
	feeds     map[string]*stateFeed
	workers   *errgroup.Group
}

func (n *NPCBase) initNPC(id int, kind Kind, maxPlayers int, p Params, st Settings, policies *PolicySet) {
	n.initBase(id, kind, maxPlayers, p, st)
	n.ticksPerAIAction = p.Int("ticks_per_ai_action", 4)
	n.blockForAI = p.Bool("block_for_ai", false)
	n.npcPlayers = make(map[string]struct{})
	n.humanPlayers = make(map[string]struct{})
	n.policySet = policies
}

// AddPlayer seats a human.
func (n *NPCBase) AddPlayer(id string) error {
	if err := n.addPlayer(id, -1, 0); err != nil {
		return err
	}
	n.rosterMu.Lock()
	n.humanPlayers[id] = struct{}{}
	n.rosterMu.Unlock()
	return nil
}

// addNPC seats a computer player at a fixed index with a single-action
// queue, so a slow policy can never build up a backlog of moves.
func (n *NPCBase) addNPC(id string, seat int) error {
	if err := n.addPlayer(id, seat, 1); err != nil {
		return err
	}
	n.rosterMu.Lock()
	n.npcPlayers[id] = struct{}{}
	n.rosterMu.Unlock()
	return nil
}

func (n *NPCBase) RemovePlayer(id string) bool {
	removed := n.Base.RemovePlayer(id)
	if removed {
		n.rosterMu.Lock()
		delete(n.humanPlayers, id)
		delete(n.npcPlayers, id)
		n.rosterMu.Unlock()
	}
	return removed
}

// IsNPC reports whether id is a computer-controlled seat.
func (n *NPCBase) IsNPC(id string) bool {
	n.rosterMu.RLock()
	defer n.rosterMu.RUnlock()
	_, ok := n.npcPlayers[id]
	return ok
}

// IsEmpty: an NPC game with no humans left (playing or watching) is dead
// weight and safe to scrap even though NPC seats are still occupied.
func (n *NPCBase) IsEmpty() bool {
	if n.Base.IsEmpty() {
		return true
	}
	n.rosterMu.RLock()
	humans := len(n.humanPlayers)
	n.rosterMu.RUnlock()
	return humans == 0 && len(n.Spectators()) == 0
}

// IsReady additionally requires at least one human present.
func (n *NPCBase) IsReady() bool {
	return n.Base.IsReady() && !n.self.IsEmpty()
}

// Activate checks roster consistency, loads one policy per NPC, and spawns
// the policy workers. On any failure the active flag is rolled back.
func (n *NPCBase) Activate() error {
	if err := n.Base.Activate(); err != nil {
		return err
	}
	if err := n.startNPCs(); err != nil {
		n.Base.Deactivate()
		return err
	}
	return nil
}

func (n *NPCBase) startNPCs() error {
	n.rosterMu.RLock()
	npcs := make([]string, 0, len(n.npcPlayers))
	for id := range n.npcPlayers {
		npcs = append(npcs, id)
	}
	known := len(n.npcPlayers) + len(n.humanPlayers)
	n.rosterMu.RUnlock()

	if known != n.NumPlayers() {
		return fmt.Errorf("inconsistent roster: %d seated players, %d known", n.NumPlayers(), known)
	}

	n.policies = make(map[string]Policy, len(npcs))
	n.feeds = make(map[string]*stateFeed, len(npcs))
	n.workers = &errgroup.Group{}

	for _, npcID := range npcs {
		pol, err := n.policySet.Resolve(n.kind, policyName(npcID), n.seatOf(npcID))
		if err != nil {
			return fmt.Errorf("load policy for %s: %w", npcID, err)
		}
		n.policies[npcID] = pol
		n.feeds[npcID] = newStateFeed()
	}

	for npcID, pol := range n.policies {
		id, p, feed := npcID, pol, n.feeds[npcID]
		n.workers.Go(func() error {
			n.npcWorker(id, feed, p)
			return nil
		})
		p.Reset()
	}
	return nil
}

// npcWorker consumes the freshest state for one NPC and enqueues the
// policy's action under the NPC's own ID. It exits once the game goes
// inactive; deactivation pushes a final state so a blocked receive wakes.
func (n *NPCBase) npcWorker(npcID string, feed *stateFeed, pol Policy) {
	for {
		state := feed.next()
		if !n.IsActive() {
			return
		}
		act, err := pol.Action(state)
		if err != nil {
			logger.Warn("npc policy failed", "game_id", n.id, "npc", npcID, "error", err)
			continue
		}
		if _, err := n.self.EnqueueAction(npcID, act); err != nil {
			logger.Warn("npc enqueue rejected", "game_id", n.id, "npc", npcID, "error", err)
		}
	}
}

// Deactivate stops the workers: flag off first, one wake-up state per feed,
// then wait for every worker before clearing the pending queues.
func (n *NPCBase) Deactivate() {
	if !n.active.CompareAndSwap(true, false) {
		return
	}
	for _, feed := range n.feeds {
		feed.push(n.self.policyState())
	}
	if n.workers != nil {
		_ = n.workers.Wait()
		n.workers = nil
	}
	n.clearPendingActions()
}

// feedNPCs pushes the current policy state to every NPC worker.
func (n *NPCBase) feedNPCs() {
	state := n.self.policyState()
	for _, feed := range n.feeds {
		feed.push(state)
	}
}

// feedNPC pushes the current policy state to a single NPC, if it is one.
func (n *NPCBase) feedNPC(id string) {
	if feed, ok := n.feeds[id]; ok {
		feed.push(n.self.policyState())
	}
}

// maybeFeedNPCs throttles state pushes to one every ticksPerAIAction ticks.
func (n *NPCBase) maybeFeedNPCs(tick int) {
	if n.ticksPerAIAction <= 0 || tick%n.ticksPerAIAction == 0 {
		n.feedNPCs()
	}
}

// policyName strips the trailing seat suffix from an NPC ID:
// "stack_0" → "stack".
func policyName(npcID string) string {
	if i := strings.LastIndex(npcID, "_"); i > 0 {
		return npcID[:i]
	}
	return npcID
}
