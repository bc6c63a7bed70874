// Package chat runs the preference-elicitation conversation. A scripted
// slot-filling flow asks one question at a time in a fixed order and
// parses answers with plain pattern matching; when a language model is
// configured it drives the conversation instead, with the scripted flow
// as the fallback for any model failure. Either way, preferences already
// collected are never overridden by later turns.
package chat

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brandonyuanCS/periph4all/pkg/prefs"
)

// Message is one turn of the conversation history.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Request carries the conversation state for one turn. SessionID is
// optional; a new session is minted when it is empty. Current lets a
// stateless client replay its own preference record.
type Request struct {
	SessionID string                 `json:"session_id,omitempty"`
	Messages  []Message              `json:"messages"`
	Current   *prefs.UserPreferences `json:"current_preferences,omitempty"`
}

// Response is the assistant's reply plus the updated preference record.
type Response struct {
	SessionID    string                `json:"session_id"`
	Message      string                `json:"message"`
	Preferences  prefs.UserPreferences `json:"preferences"`
	Ready        bool                  `json:"ready_for_recommendation"`
	QuestionType string                `json:"question_type,omitempty"`
}

// ModelTurn is one structured reply from a language model.
type ModelTurn struct {
	Message     string                 `json:"message"`
	Preferences *prefs.UserPreferences `json:"preferences"`
	Ready       bool                   `json:"ready_for_recommendation"`
}

// TurnModel produces a structured conversational turn from the history.
type TurnModel interface {
	Turn(ctx context.Context, messages []Message) (*ModelTurn, error)
}

// Service holds per-session preference state and runs turns through the
// model when one is configured, falling back to the scripted flow.
type Service struct {
	model TurnModel // nil means scripted only
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*prefs.UserPreferences
}

func NewService(model TurnModel, log zerolog.Logger) *Service {
	return &Service{
		model:    model,
		log:      log,
		sessions: make(map[string]*prefs.UserPreferences),
	}
}

// Process runs one conversational turn and returns the reply with the
// merged preference record. The session record only ever gains fields.
func (s *Service) Process(ctx context.Context, req Request) (*Response, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	current := s.sessionPrefs(sessionID)
	current.Merge(req.Current)

	resp := s.turn(ctx, req.Messages, current)
	resp.SessionID = sessionID
	resp.Preferences = *current

	s.storeSession(sessionID, current)
	return resp, nil
}

// Reset discards the preference record for a session.
func (s *Service) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *Service) sessionPrefs(id string) *prefs.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.sessions[id]; ok {
		cp := *p
		return &cp
	}
	return &prefs.UserPreferences{}
}

func (s *Service) storeSession(id string, p *prefs.UserPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.sessions[id] = &cp
}

func (s *Service) turn(ctx context.Context, messages []Message, current *prefs.UserPreferences) *Response {
	if s.model != nil {
		if resp, ok := s.modelTurn(ctx, messages, current); ok {
			return resp
		}
	}
	return scriptedTurn(messages, current)
}

// modelTurn asks the configured model for a structured turn. Any failure
// (transport, malformed JSON, invalid preference values) falls back to
// the scripted flow so the conversation never stalls.
func (s *Service) modelTurn(ctx context.Context, messages []Message, current *prefs.UserPreferences) (*Response, bool) {
	turn, err := s.model.Turn(ctx, messages)
	if err != nil {
		s.log.Warn().Err(err).Msg("model turn failed, using scripted flow")
		return nil, false
	}

	merged := *current
	merged.Merge(turn.Preferences)
	if err := merged.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("model returned invalid preferences, using scripted flow")
		return nil, false
	}

	*current = merged
	return &Response{
		Message: turn.Message,
		Ready:   turn.Ready && current.Collected(),
	}, true
}

// scriptedTurn is the deterministic slot-filling flow: extract what the
// last user message answers, merge it, then ask the next question in
// order. Readiness comes one turn after the final check question.
func scriptedTurn(messages []Message, current *prefs.UserPreferences) *Response {
	userText, ok := lastUserMessage(messages)
	if !ok {
		return &Response{Message: fallbackGreeting, QuestionType: questionOrder[0]}
	}

	before := len(current.Missing())
	current.Merge(extractAnswers(userText, current))
	acknowledged := len(current.Missing()) < before

	if !current.Collected() {
		next := current.Missing()[0]
		msg := questions[next]
		if acknowledged {
			msg = "Got it! " + msg
		}
		return &Response{Message: msg, QuestionType: next}
	}

	if !finalCheckAsked(messages) {
		return &Response{Message: finalCheckQuestion, QuestionType: "final_check"}
	}

	if current.AdditionalNotes == "" {
		if notes := strings.TrimSpace(userText); !isDecline(notes) {
			current.AdditionalNotes = notes
		}
	}
	return &Response{Message: readyMessage, Ready: true}
}

func lastUserMessage(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" && strings.TrimSpace(messages[i].Content) != "" {
			return messages[i].Content, true
		}
	}
	return "", false
}

func finalCheckAsked(messages []Message) bool {
	for _, m := range messages {
		if m.Role == "assistant" && strings.Contains(m.Content, "anything else you want me to know") {
			return true
		}
	}
	return false
}

func isDecline(text string) bool {
	switch strings.ToLower(strings.TrimRight(text, ".!")) {
	case "", "no", "nope", "nothing", "nothing else", "no thanks", "that's all", "thats all", "im good", "i'm good":
		return true
	}
	return false
}

var (
	handDimsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*cm\s*(?:x|by)\s*(\d+(?:\.\d+)?)\s*cm`)
	rangeRe    = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)\s*(?:to|-|and)\s*\$?(\d+(?:\.\d+)?)`)
	maxRe      = regexp.MustCompile(`(?:under|below|less than|at most|up to|max(?:imum)?(?: of)?)\s*\$?(\d+(?:\.\d+)?)`)
	minRe      = regexp.MustCompile(`(?:over|above|more than|at least|min(?:imum)?(?: of)?)\s*\$?(\d+(?:\.\d+)?)`)
	amountRe   = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
)

// extractAnswers parses one user message into a partial preference
// record. Unambiguous signals (grip words, genre names, dollar amounts,
// wired/wireless) are picked up anywhere; ambiguous words like "medium"
// only count for the slot currently being asked, or with an explicit
// context word next to them.
func extractAnswers(text string, current *prefs.UserPreferences) *prefs.UserPreferences {
	out := &prefs.UserPreferences{}
	lower := strings.ToLower(text)
	asked := ""
	if missing := current.Missing(); len(missing) > 0 {
		asked = missing[0]
	}

	if g := firstWordOf(lower, prefs.GripPalm, prefs.GripClaw, prefs.GripFingertip, prefs.GripHybrid); g != "" {
		out.GripType = g
	}
	out.Genre = parseGenre(lower)
	if min, max, ok := parseBudget(lower); ok {
		out.BudgetMin, out.BudgetMax = min, max
	}
	if wireless, ok := parseWireless(lower); ok {
		out.WirelessPreference = &wireless
	}

	if m := handDimsRe.FindStringSubmatch(lower); m != nil {
		out.HandSize = m[1] + "cm x " + m[2] + "cm"
	} else if size := firstWordOf(lower, "small", "medium", "large"); size != "" &&
		(asked == "hand_size" || strings.Contains(lower, "hand")) {
		out.HandSize = size
	}

	if level := firstWordOf(lower, "low", "medium", "high"); level != "" &&
		(asked == "sensitivity" || strings.Contains(lower, "sens")) {
		out.Sensitivity = level
	}

	if w := parseWeightWord(lower); w != "" &&
		(asked == "weight_preference" || strings.Contains(lower, "weight") || strings.Contains(lower, "gram")) {
		out.WeightPreference = w
	}

	return out
}

func parseGenre(lower string) string {
	switch {
	case strings.Contains(lower, "battle royale") || strings.Contains(lower, "battle_royale"):
		return prefs.GenreBattleRoyale
	case containsWord(lower, "fps") || containsWord(lower, "shooter"):
		return prefs.GenreFPS
	case containsWord(lower, "moba"):
		return prefs.GenreMOBA
	case containsWord(lower, "mmo"):
		return prefs.GenreMMO
	case strings.Contains(lower, "bit of everything") || containsWord(lower, "general"):
		return prefs.GenreGeneral
	}
	return ""
}

// parseBudget only fires with a money signal in the text so bare numbers
// like hand dimensions are never misread as prices.
func parseBudget(lower string) (min, max *float64, ok bool) {
	moneyContext := strings.Contains(lower, "$") ||
		strings.Contains(lower, "budget") ||
		strings.Contains(lower, "spend") ||
		strings.Contains(lower, "price") ||
		strings.Contains(lower, "dollar")
	if !moneyContext {
		return nil, nil, false
	}

	if m := rangeRe.FindStringSubmatch(lower); m != nil {
		lo, hi := parseFloat(m[1]), parseFloat(m[2])
		if lo != nil && hi != nil && *lo <= *hi {
			return lo, hi, true
		}
	}
	if m := maxRe.FindStringSubmatch(lower); m != nil {
		return nil, parseFloat(m[1]), true
	}
	if m := minRe.FindStringSubmatch(lower); m != nil {
		return parseFloat(m[1]), nil, true
	}
	if m := amountRe.FindStringSubmatch(lower); m != nil {
		return nil, parseFloat(m[1]), true
	}
	return nil, nil, false
}

func parseWireless(lower string) (bool, bool) {
	switch {
	case strings.Contains(lower, "wireless") || strings.Contains(lower, "cordless"):
		return true, true
	case containsWord(lower, "wired") || strings.Contains(lower, "with a cord") || strings.Contains(lower, "cable"):
		return false, true
	}
	return false, false
}

func parseWeightWord(lower string) string {
	switch {
	case strings.Contains(lower, "light"):
		return prefs.WeightLight
	case strings.Contains(lower, "heavy"):
		return prefs.WeightHeavy
	case containsWord(lower, "medium") || containsWord(lower, "mid"):
		return prefs.WeightMedium
	}
	return ""
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func firstWordOf(lower string, words ...string) string {
	for _, w := range words {
		if containsWord(lower, w) {
			return w
		}
	}
	return ""
}

func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
