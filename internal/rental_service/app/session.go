package app

import "sync"

// session is the conversation-scoped scratch state for one subscriber: the
// plan they selected while in the payment funnel and the candidate numbers
// currently offered to them. It lives only in process memory and is lost on
// restart; exclusion of already-shown numbers is deliberately session-scoped.
type session struct {
	selectedPlan       string
	offeredNumbers     []string
	awaitingCredential bool
}

// SessionStore keys conversation state by subscriber Telegram ID. Safe for
// concurrent use by the transport's handler goroutines.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*session)}
}

func (s *SessionStore) get(id int64) *session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

// SetSelectedPlan remembers the plan picked while entering the funnel.
func (s *SessionStore) SetSelectedPlan(id int64, planKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(id).selectedPlan = planKey
}

// SelectedPlan returns the remembered plan key, or empty when none was set.
func (s *SessionStore) SelectedPlan(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id).selectedPlan
}

// ClearSelectedPlan drops the plan selection after approval or denial.
func (s *SessionStore) ClearSelectedPlan(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(id).selectedPlan = ""
}

// SetOffered replaces the set of numbers currently offered to the subscriber.
// A refresh excludes exactly this set when re-querying upstream.
func (s *SessionStore) SetOffered(id int64, numbers []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(id).offeredNumbers = append([]string(nil), numbers...)
}

// Offered returns a copy of the currently offered numbers.
func (s *SessionStore) Offered(id int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.get(id).offeredNumbers...)
}

// SetAwaitingCredential marks that the next text message from the subscriber
// is a credential submission.
func (s *SessionStore) SetAwaitingCredential(id int64, awaiting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(id).awaitingCredential = awaiting
}

// AwaitingCredential reports whether a credential submission is expected.
func (s *SessionStore) AwaitingCredential(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id).awaitingCredential
}

// Clear discards the whole conversation state for a subscriber.
func (s *SessionStore) Clear(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
