package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
)

const (
	WelcomeMessageID = "welcome"
	welcomeText      = "Hello! I'm the AI Assistant for Aaditya Building Solution. I can help answer questions about property surveys, valuations, and find relevant locations for you. How can I assist you today?"
	emptyReplyText   = "I didn't get a response. Please try again."
	errorReplyText   = "I'm having trouble connecting to my knowledge base right now. Please try again or contact our office directly."

	chatLockTTL = 2 * time.Minute
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrChatBusy        = errors.New("a reply is already pending for this device")
	ErrFeatureDisabled = errors.New("feature disabled")
)

// SuggestedQuestions are offered as one-tap prompts.
var SuggestedQuestions = []string{
	"Where is your office located?",
	"Find property registration offices nearby",
	"Show me banks near me for valuation",
	"How much does a property valuation cost?",
	"What documents are needed?",
}

const systemInstruction = `You are the knowledgeable and professional AI assistant for Aaditya Building Solution (ABS).

Company Profile:
- Name: Aaditya Building Solution (ABS)
- Leader: Vr. Arpit Agarwal (Chartered Civil Engineer, Authorised Structural Engineer, IBBI Registered Valuer, Govt. Approved Valuer).
- Experience: Over 20 years in surveying and valuation.
- Location: Kashipur, Uttarakhand, India. Head office at Santoshi Mata Mandir Wali Gali, Cheema Chauraha, Ramnagar Road.
- Contact: +91 98371 79179, vr.arpitagarwal@gmail.com.
- Hours: Mon-Sat 10:00 AM - 7:00 PM.

Services:
- Residential & Commercial Property Valuations (IBBI Registered).
- Building Surveys (structural health, defects).
- Land Surveys (digital mapping).
- Expert Witness services for legal disputes.
- Investment Advice.

Empanelment:
- Bank of Baroda, SBI, PNB, Canara Bank, Axis Bank, and many others.

Your Goal:
- Answer user inquiries about services, location, and valuations.
- Be polite, professional, and concise.
- If asked for a quote, encourage them to use the "Get a Quote" form or contact the phone number.
- Use the available tools (Google Search) if the user asks for current information, locations, or general knowledge not in your profile.`

func WelcomeMessage() models.ChatMessage {
	return models.ChatMessage{ID: WelcomeMessageID, Role: models.ChatRoleModel, Text: welcomeText}
}

// ChatService keeps one transcript per device and relays turns to the AI backend.
type ChatService struct {
	ai           Generator
	store        repositories.DeviceStore
	logger       echo.Logger
	replyTimeout time.Duration
	newID        func() string
}

func NewChatService(ai Generator, store repositories.DeviceStore, logger echo.Logger, replyTimeout time.Duration) *ChatService {
	return &ChatService{
		ai:           ai,
		store:        store,
		logger:       logger,
		replyTimeout: replyTimeout,
		newID:        uuid.NewString,
	}
}

// Transcript returns the stored transcript, or the welcome message when none is usable.
func (s *ChatService) Transcript(ctx context.Context, device string) []models.ChatMessage {
	raw, err := s.store.GetTranscript(ctx, device)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warnf("chat transcript for device %s unavailable: %v", device, err)
		}
		return []models.ChatMessage{WelcomeMessage()}
	}
	var msgs []models.ChatMessage
	if err := json.Unmarshal(raw, &msgs); err != nil || len(msgs) == 0 {
		s.logger.Warnf("chat transcript for device %s is malformed, starting over", device)
		return []models.ChatMessage{WelcomeMessage()}
	}
	return msgs
}

// Send appends the user turn, asks the model once and appends its reply.
// The backend call outlives the request so a disconnecting client still finds
// the reply in its transcript.
func (s *ChatService) Send(ctx context.Context, device, text string) ([]models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	locked, err := s.store.AcquireChatLock(ctx, device, chatLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrChatBusy
	}
	detached := context.WithoutCancel(ctx)
	defer func() {
		if err := s.store.ReleaseChatLock(detached, device); err != nil {
			s.logger.Warnf("chat lock for device %s not released: %v", device, err)
		}
	}()

	msgs := s.Transcript(ctx, device)
	history := buildHistory(msgs, text)
	msgs = append(msgs, models.ChatMessage{ID: s.newID(), Role: models.ChatRoleUser, Text: text})
	s.save(detached, device, msgs)

	callCtx, cancel := context.WithTimeout(detached, s.replyTimeout)
	defer cancel()
	res, err := s.ai.Generate(callCtx, GenerateRequest{
		SystemInstruction: systemInstruction,
		History:           history,
		Search:            true,
	})

	reply := models.ChatMessage{ID: s.newID(), Role: models.ChatRoleModel}
	if err != nil {
		s.logger.Errorf("ai reply for device %s failed: %v", device, err)
		reply.Text = errorReplyText
		reply.IsError = true
	} else {
		reply.Text = res.Text
		if strings.TrimSpace(reply.Text) == "" {
			reply.Text = emptyReplyText
		}
		reply.GroundingChunks = usableChunks(res.GroundingChunks)
	}
	msgs = append(msgs, reply)
	s.save(detached, device, msgs)
	return msgs, nil
}

// Clear resets the transcript to the welcome message.
func (s *ChatService) Clear(ctx context.Context, device string) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{WelcomeMessage()}
	if err := s.store.DeleteTranscript(ctx, device); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Export renders the transcript as plain text blocks.
func (s *ChatService) Export(ctx context.Context, device string) string {
	msgs := s.Transcript(ctx, device)
	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		speaker := "User"
		if m.Role == models.ChatRoleModel {
			speaker = "AI Assistant"
		}
		blocks = append(blocks, "["+speaker+"]: "+m.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func (s *ChatService) save(ctx context.Context, device string, msgs []models.ChatMessage) {
	payload, err := json.Marshal(msgs)
	if err != nil {
		s.logger.Errorf("encode chat transcript: %v", err)
		return
	}
	if err := s.store.SaveTranscript(ctx, device, payload); err != nil {
		s.logger.Warnf("chat transcript for device %s not saved: %v", device, err)
	}
}

// buildHistory skips error-marked messages and ends with the new user turn.
func buildHistory(msgs []models.ChatMessage, text string) []Turn {
	history := make([]Turn, 0, len(msgs)+1)
	for _, m := range msgs {
		if m.IsError {
			continue
		}
		history = append(history, Turn{Role: m.Role, Text: m.Text})
	}
	return append(history, Turn{Role: models.ChatRoleUser, Text: text})
}

func usableChunks(chunks []models.GroundingChunk) []models.GroundingChunk {
	var out []models.GroundingChunk
	for _, c := range chunks {
		if usableLink(c.Web) || usableLink(c.Maps) {
			out = append(out, c)
		}
	}
	return out
}

func usableLink(l *models.GroundingLink) bool {
	return l != nil && l.URI != "" && l.Title != ""
}
