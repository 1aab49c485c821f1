// Package games implements the game settlement engine: dice, slot and
// quiz. Settlement is pure (bet + drawn outcome → verdict + net coin
// delta); applying the delta happens atomically in a ledger Tx.
// models.go describes verdicts, results and the fixed quiz pool.
package games

// Game type keys used for statistics records.
const (
	GameDice = "dice"
	GameSlot = "slot"
	GameQuiz = "quiz"
)

// Verdict classifies a settlement outcome.
type Verdict string

const (
	VerdictWin     Verdict = "WIN"
	VerdictLose    Verdict = "LOSE"
	VerdictDraw    Verdict = "DRAW"
	VerdictJackpot Verdict = "JACKPOT"
)

// SlotSymbols is the 6-symbol reel alphabet.
var SlotSymbols = []string{"🍒", "🍋", "⭐", "7️⃣", "🔔", "💎"}

// DiceResult is the outcome of one dice settlement.
type DiceResult struct {
	PlayerRoll int
	HouseRoll  int
	Verdict    Verdict
	// Net is the applied coin delta: +bet on win, -bet on loss, 0 on draw.
	Net   int64
	Coins int64 // coin balance after settlement
}

// SlotResult is the outcome of one slot spin.
type SlotResult struct {
	Reels   [3]string
	Verdict Verdict
	// Net is the applied coin delta: the stake is debited and the
	// multiplied stake credited, so jackpot nets +9×bet, a pair +bet,
	// no match -bet.
	Net   int64
	Coins int64
}

// Question is one quiz pool entry. The draw phase hands out the question
// and its pool index; the answer phase checks Answer against the chosen
// option. No coins move until the answer phase.
type Question struct {
	Text    string
	Options []string
	Answer  int // index into Options
}

// questionPool is the fixed quiz pool. Indices are part of the two-phase
// contract: a drawn question is referenced by its position here.
var questionPool = []Question{
	{
		Text:    "What is the national bird of Bangladesh?",
		Options: []string{"Doel (magpie-robin)", "Peacock", "Crow", "Myna"},
		Answer:  0,
	},
	{
		Text:    "When is the Independence Day of Bangladesh?",
		Options: []string{"26 March", "16 December", "21 February", "7 March"},
		Answer:  0,
	},
	{
		Text:    "What is the national flower of Bangladesh?",
		Options: []string{"Rose", "Water lily (Shapla)", "Hibiscus", "Jasmine"},
		Answer:  1,
	},
	{
		Text:    "How long is the Padma Bridge?",
		Options: []string{"6.15 km", "5.8 km", "7.2 km", "6.5 km"},
		Answer:  0,
	},
	{
		Text:    "Who was the first Prime Minister of Bangladesh?",
		Options: []string{"Sheikh Mujibur Rahman", "Tajuddin Ahmad", "Khondaker Mostaq Ahmad", "Ziaur Rahman"},
		Answer:  1,
	},
}

// QuizDraw is the result of the draw phase.
type QuizDraw struct {
	QuestionIndex int
	Question      Question
	Reward        int64 // coins credited for a correct answer
}

// QuizResult is the outcome of the answer phase.
type QuizResult struct {
	Correct bool
	Reward  int64 // 0 when wrong
	Coins   int64
}
