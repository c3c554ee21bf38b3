package event

import (
	"sort"
	"time"
)

// Session is a bounded sequence of Events sharing one session identity.
// It is derived, recomputed per run, and never persisted on its own.
type Session struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Usage     TokenUsage `json:"usage"`
	CostUSD   float64    `json:"cost_usd"`

	// Events is the main timeline, ordered by timestamp. Side-thread
	// events live in Side; they never appear in Events.
	Events []Event `json:"-"`
	Side   []Event `json:"-"`
}

// EventCount is the size of the main timeline.
func (s *Session) EventCount() int { return len(s.Events) }

// UserTurns returns the main timeline's user-authored turns.
func (s *Session) UserTurns() []Event {
	var turns []Event
	for _, ev := range s.Events {
		if ev.Kind == KindUserTurn {
			turns = append(turns, ev)
		}
	}
	return turns
}

// Project groups the Sessions sharing one canonical working-directory
// identity, ordered by start time.
type Project struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Sessions []Session `json:"-"`
}

// LastActivity is the end of the project's most recent session.
func (p *Project) LastActivity() time.Time {
	var last time.Time
	for _, s := range p.Sessions {
		if s.End.After(last) {
			last = s.End
		}
	}
	return last
}

// FirstActivity is the start of the project's earliest session.
func (p *Project) FirstActivity() time.Time {
	var first time.Time
	for _, s := range p.Sessions {
		if first.IsZero() || (!s.Start.IsZero() && s.Start.Before(first)) {
			first = s.Start
		}
	}
	return first
}

// Name is the project directory's base name.
func (p *Project) Name() string {
	if p.Path == "" {
		return ""
	}
	for i := len(p.Path) - 1; i >= 0; i-- {
		if p.Path[i] == '/' || p.Path[i] == '\\' {
			return p.Path[i+1:]
		}
	}
	return p.Path
}

// BuildSessions folds a flat event slice into per-session timelines.
// Events inside a session keep their input order when timestamps tie,
// since transcript lines are already append-ordered.
func BuildSessions(events []Event) []Session {
	byID := make(map[string]*Session)
	var order []string

	for _, ev := range events {
		if ev.SessionID == "" {
			continue
		}
		s, ok := byID[ev.SessionID]
		if !ok {
			s = &Session{ID: ev.SessionID}
			byID[ev.SessionID] = s
			order = append(order, ev.SessionID)
		}

		if s.ProjectID == "" && ev.ProjectID != "" {
			s.ProjectID = ev.ProjectID
		}
		if !ev.Timestamp.IsZero() {
			if s.Start.IsZero() || ev.Timestamp.Before(s.Start) {
				s.Start = ev.Timestamp
			}
			if ev.Timestamp.After(s.End) {
				s.End = ev.Timestamp
			}
		}
		if ev.Kind == KindAssistantTurn && ev.Assistant != nil {
			s.Usage.Add(ev.Assistant.Usage)
			s.CostUSD += ev.Assistant.CostUSD
		}

		if ev.Sidechain {
			s.Side = append(s.Side, ev)
		} else {
			s.Events = append(s.Events, ev)
		}
	}

	sessions := make([]Session, 0, len(order))
	for _, id := range order {
		sessions = append(sessions, *byID[id])
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Start.Before(sessions[j].Start)
	})
	return sessions
}

// GroupProjects buckets sessions by canonical project identity, ordered
// by project ID for deterministic output. Sessions without a project
// identity are grouped under the empty ID and typically dropped by the
// caller.
func GroupProjects(sessions []Session) []Project {
	byID := make(map[string]*Project)
	for _, s := range sessions {
		p, ok := byID[s.ProjectID]
		if !ok {
			p = &Project{ID: s.ProjectID, Path: s.ProjectID}
			byID[s.ProjectID] = p
		}
		p.Sessions = append(p.Sessions, s)
	}

	projects := make([]Project, 0, len(byID))
	for _, p := range byID {
		sort.SliceStable(p.Sessions, func(i, j int) bool {
			return p.Sessions[i].Start.Before(p.Sessions[j].Start)
		})
		projects = append(projects, *p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ID < projects[j].ID
	})
	return projects
}
