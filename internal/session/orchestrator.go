package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sujith-hx/aroha/internal/analysis/emotion"
	"github.com/sujith-hx/aroha/internal/model/conversation"
	"github.com/sujith-hx/aroha/internal/service/ai"
)

// Listener acquires one utterance from the microphone within a timeout.
type Listener interface {
	Listen(ctx context.Context, timeout time.Duration) (string, bool)
}

// Classifier assesses a single utterance.
type Classifier interface {
	Classify(ctx context.Context, utterance string) emotion.Assessment
}

// Generator produces the assistant turn for the rolling history.
type Generator interface {
	Generate(ctx context.Context, history []conversation.Turn, temperature float64) string
}

// Repository persists identities and turn pairs.
type Repository interface {
	FindUser(ctx context.Context, name string) string
	CreateUser(ctx context.Context, name string) string
	AppendTurnPair(ctx context.Context, userID, userText, aiText string) error
	RecentHistory(ctx context.Context, userID string, limit int) []conversation.Turn
}

// Synthesizer speaks a reply with emotion-matched prosody.
type Synthesizer interface {
	SynthesizeAndPlay(ctx context.Context, text string, label emotion.Label, urgency float64, voiceID string) bool
}

// Options carries the process-boundary settings owned by the CLI layer.
type Options struct {
	VoiceMode     bool
	HistoryWindow int
	ListenTimeout time.Duration
	VoiceID       string
	CrisisText    string
	In            io.Reader
	Out           io.Writer
}

// Orchestrator drives one conversation session through its state machine:
// identity resolution, greeting, then the turn loop until termination.
// All session state lives here and is discarded when Run returns.
type Orchestrator struct {
	listener   Listener
	classifier Classifier
	generator  Generator
	repo       Repository
	synth      Synthesizer

	in  *bufio.Scanner
	out io.Writer

	historyWindow int
	listenTimeout time.Duration
	voiceID       string
	crisisText    string

	// session state, owned exclusively by this orchestrator
	userName  string
	userID    string
	voiceMode bool
	history   []conversation.Turn
}

// New wires an Orchestrator. listener, repo, and synth may be nil, which
// puts the corresponding capability into degraded mode (text input only,
// in-memory history only, silent replies).
func New(listener Listener, classifier Classifier, generator Generator, repo Repository, synth Synthesizer, opts Options) *Orchestrator {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 10
	}
	if opts.ListenTimeout <= 0 {
		opts.ListenTimeout = 10 * time.Second
	}
	if opts.CrisisText == "" {
		opts.CrisisText = DefaultCrisisText
	}
	if opts.In == nil {
		opts.In = strings.NewReader("")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	return &Orchestrator{
		listener:      listener,
		classifier:    classifier,
		generator:     generator,
		repo:          repo,
		synth:         synth,
		in:            bufio.NewScanner(opts.In),
		out:           opts.Out,
		historyWindow: opts.HistoryWindow,
		listenTimeout: opts.ListenTimeout,
		voiceID:       opts.VoiceID,
		crisisText:    opts.CrisisText,
		voiceMode:     opts.VoiceMode,
	}
}

// Run executes the session until a termination command, input exhaustion,
// or context cancellation. A failure inside one loop iteration is logged
// and the loop continues; a single turn never ends the conversation.
func (o *Orchestrator) Run(ctx context.Context) {
	o.printBanner()

	o.userName = o.resolveName(ctx)
	o.resolveUser(ctx)
	o.greet(ctx)

	for {
		if ctx.Err() != nil {
			o.println("\nConversation interrupted. Take care of yourself.")
			return
		}
		if o.safeTurn(ctx) {
			return
		}
	}
}

// safeTurn runs one turn-loop iteration with a recovery boundary.
func (o *Orchestrator) safeTurn(ctx context.Context) (terminated bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[session] turn failed, continuing: %v", r)
		}
	}()
	return o.turn(ctx)
}

func (o *Orchestrator) turn(ctx context.Context) bool {
	input, ok := o.acquireInput(ctx)
	if !ok {
		// Input channel is gone; treat as a quiet goodbye.
		o.farewell(ctx)
		return true
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	switch strings.ToLower(input) {
	case "quit", "exit", "bye":
		o.farewell(ctx)
		return true
	case "help":
		o.showCrisisResources(ctx)
		return false
	case "voice on":
		o.voiceMode = true
		o.println("Voice mode turned ON")
		return false
	case "voice off":
		o.voiceMode = false
		o.println("Voice mode turned OFF")
		return false
	}

	assessment := o.classifier.Classify(ctx, input)
	temperature := ai.TemperatureForUrgency(assessment.Urgency)

	o.appendTurn(conversation.Turn{
		Role:    conversation.RoleUser,
		Content: input,
		Emotion: string(assessment.Emotion),
	})

	reply := o.generator.Generate(ctx, o.history, temperature)
	o.appendTurn(conversation.Turn{
		Role:    conversation.RoleAssistant,
		Content: reply,
	})

	if o.repo != nil {
		_ = o.repo.AppendTurnPair(ctx, o.userID, input, reply)
	}

	o.printf("Aroha: %s\n", reply)
	o.speak(ctx, reply, assessment.Emotion, assessment.Urgency)
	return false
}

// acquireInput tries the microphone first when voice mode is on, then
// falls back to typed input. ok=false means the input stream is exhausted.
func (o *Orchestrator) acquireInput(ctx context.Context) (string, bool) {
	if o.voiceMode && o.listener != nil {
		if text, heard := o.listener.Listen(ctx, o.listenTimeout); heard {
			o.printf("You: %s\n", text)
			return text, true
		}
		if ctx.Err() != nil {
			return "", true
		}
		o.println("I didn't catch that. Please type your response:")
	}

	o.printf("> ")
	return o.readLine()
}

func (o *Orchestrator) readLine() (string, bool) {
	if !o.in.Scan() {
		return "", false
	}
	return o.in.Text(), true
}

// resolveName obtains a display name, voice first then text, up to three
// attempts with increasing listen timeouts. Only the first whitespace
// token counts. On exhaustion the placeholder identity is used.
func (o *Orchestrator) resolveName(ctx context.Context) string {
	o.println("Please say or type your name to begin:")

	for attempt := 0; attempt < 3; attempt++ {
		if ctx.Err() != nil {
			break
		}

		if o.voiceMode && o.listener != nil {
			timeout := time.Duration(7+attempt*2) * time.Second
			o.printf("Listening for your name (timeout: %s)...\n", timeout)
			if heard, ok := o.listener.Listen(ctx, timeout); ok {
				name := firstToken(heard)
				if len(name) >= 2 && len(name) <= 20 {
					return name
				}
				o.println("Could you please say just your name?")
			} else {
				o.println("Please type your name:")
			}
		}

		o.printf("> ")
		typed, ok := o.readLine()
		if !ok {
			break
		}
		name := firstToken(typed)
		if len(name) >= 1 && len(name) <= 20 {
			return name
		}
		o.println("Could you please enter your name? (1-20 characters)")
	}

	o.println("I'll call you Friend for now.")
	return "Friend"
}

// resolveUser binds the session to a stored identity, creating one on
// first sighting. When storage is unavailable the session carries on with
// a transient in-memory identity.
func (o *Orchestrator) resolveUser(ctx context.Context) {
	if o.repo == nil {
		return
	}

	o.userID = o.repo.FindUser(ctx, o.userName)
	if o.userID == "" {
		o.userID = o.repo.CreateUser(ctx, o.userName)
	}
	if o.userID == "" {
		log.Printf("[session] storage unavailable, using transient identity for %s", o.userName)
		return
	}

	if stored := o.repo.RecentHistory(ctx, o.userID, o.historyWindow); len(stored) > 0 {
		o.history = stored
		o.trimHistory()
	}
}

// greet emits the welcome line. It joins the in-memory history only; the
// greeting is intentionally never persisted as a stored turn.
func (o *Orchestrator) greet(ctx context.Context) {
	welcome := fmt.Sprintf("Hello %s, I'm Aroha. I'm here to listen and support you. How are you feeling today?", o.userName)
	o.printf("Aroha: %s\n", welcome)
	o.appendTurn(conversation.Turn{Role: conversation.RoleAssistant, Content: welcome})
	o.speak(ctx, welcome, emotion.Neutral, 0.5)
}

func (o *Orchestrator) farewell(ctx context.Context) {
	goodbye := fmt.Sprintf("Take care of yourself, %s. Remember, I'm here whenever you need to talk.", o.userName)
	o.printf("Aroha: %s\n", goodbye)
	o.speak(ctx, goodbye, emotion.Neutral, 0.5)
}

// showCrisisResources displays the fixed resource block without touching
// the generation service.
func (o *Orchestrator) showCrisisResources(ctx context.Context) {
	o.println(o.crisisText)
	o.speak(ctx, crisisSpokenSummary, emotion.Crisis, 0.7)
}

func (o *Orchestrator) speak(ctx context.Context, text string, label emotion.Label, urgency float64) {
	if !o.voiceMode || o.synth == nil {
		return
	}
	o.synth.SynthesizeAndPlay(ctx, text, label, urgency, o.voiceID)
}

func (o *Orchestrator) appendTurn(turn conversation.Turn) {
	o.history = append(o.history, turn)
	o.trimHistory()
}

// trimHistory bounds the in-memory window to historyWindow exchanges.
func (o *Orchestrator) trimHistory() {
	max := o.historyWindow * 2
	if len(o.history) > max {
		o.history = o.history[len(o.history)-max:]
	}
}

func (o *Orchestrator) printBanner() {
	o.println("\n============================================================")
	o.println("           AROHA - AI Crisis Counseling Assistant")
	o.println("============================================================")
	if o.voiceMode {
		o.println("Voice Mode: ON (speak or type your responses)")
	} else {
		o.println("Voice Mode: OFF (type your responses)")
	}
	o.println("Type 'quit', 'exit', or 'bye' to end the conversation")
	o.println("Type 'help' for crisis resources")
	o.println("Type 'voice on' or 'voice off' to toggle voice mode\n")
}

func (o *Orchestrator) printf(format string, args ...any) {
	fmt.Fprintf(o.out, format, args...)
}

func (o *Orchestrator) println(line string) {
	fmt.Fprintln(o.out, line)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
