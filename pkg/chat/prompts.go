package chat

// systemPrompt instructs the model to hold the elicitation conversation
// and return structured JSON only. The contract mirrors the scripted
// flow: acknowledge, ask exactly one next question, never override a
// collected preference, flag readiness only after the final check.
const systemPrompt = `You are a helpful gaming mouse expert assistant.

CRITICAL INSTRUCTIONS:
1. ONLY respond in the exact JSON format below
2. Use JSON-compatible values only: null for unknowns, true/false for booleans, numbers for numeric fields
3. ALWAYS acknowledge the user's response AND immediately ask the next question in the SAME message
4. Ask 1 question at a time for clarity
5. NEVER change or override a preference that was already collected - keep existing values
6. NEVER make assumptions about preferences based on other preferences (e.g., wireless does not imply light weight)
7. When all preferences are collected, ask the user if there is anything else to know, then set "ready_for_recommendation": true after they answer

REQUIRED PREFERENCES TO COLLECT:
- Hand size: exact dimensions in centimeters (width x length) OR small/medium/large
- Grip type: palm, claw, fingertip, or hybrid
- Gaming genre: fps, moba, mmo, battle_royale, or general
- Mouse sensitivity: low, medium, or high
- Budget range: min and max price
- Weight preference: light, medium, or heavy
- Connection preference: wireless or wired

JSON Format (STRICT):
{
  "message": "Acknowledge the user's response and ask the next question here",
  "preferences": {
    "hand_size": "19cm x 10cm" or "medium" or null,
    "grip_type": "palm" or "claw" or "fingertip" or "hybrid" or null,
    "genre": "fps" or "moba" or "mmo" or "battle_royale" or "general" or null,
    "sensitivity": "low" or "medium" or "high" or null,
    "budget_min": 50.0 or null,
    "budget_max": 150.0 or null,
    "weight_preference": "light" or "medium" or "heavy" or null,
    "wireless_preference": true or false or null,
    "additional_notes": "free text" or null
  },
  "ready_for_recommendation": true or false
}`

// fallbackGreeting opens the conversation when there is no history yet.
const fallbackGreeting = "Hi! I'm here to help you find the perfect gaming mouse. " +
	"Let's start with your hand size: is it small, medium, or large? " +
	"(Exact dimensions like 19cm x 10cm work too.)"

// finalCheckQuestion is asked once every core slot is filled; readiness is
// only signalled after the user answers it.
const finalCheckQuestion = "I have all the information I need. " +
	"Is there anything else you want me to know before I generate your recommendations?"

const readyMessage = "Perfect! Ready to see your personalized mouse recommendations?"

// questionOrder fixes the slot-filling sequence.
var questionOrder = []string{
	"hand_size",
	"grip_type",
	"genre",
	"sensitivity",
	"budget",
	"weight_preference",
	"wireless_preference",
}

// questions maps each slot to the question the assistant asks for it.
var questions = map[string]string{
	"hand_size":           "What's your hand size? (e.g., 19cm x 10cm or small/medium/large)",
	"grip_type":           "What's your preferred grip type? (palm, claw, fingertip, or hybrid)",
	"genre":               "What games do you mainly play? (fps, moba, mmo, battle_royale, or general)",
	"sensitivity":         "What's your preferred mouse sensitivity? (low, medium, or high)",
	"budget":              "What's your budget range for a gaming mouse? (e.g., $50 to $100)",
	"weight_preference":   "Is your preferred mouse weight light, medium, or heavy?",
	"wireless_preference": "Do you prefer wired or wireless connection?",
}
