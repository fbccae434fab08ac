package services

import (
	"fmt"
	"log"
	"os"

	"github.com/line/line-bot-sdk-go/linebot"
)

// LineMessagingService wraps the LINE Messaging API used for parent notices.
type LineMessagingService struct {
	Bot *linebot.Client
}

// NewLineMessagingService creates a new instance. When the channel secret or
// token is missing the service is created disabled and push calls fail softly.
func NewLineMessagingService() *LineMessagingService {
	channelSecret := os.Getenv("LINE_CHANNEL_SECRET")
	channelToken := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")

	if channelSecret == "" || channelToken == "" {
		log.Println("LINE Messaging API disabled: missing LINE_CHANNEL_SECRET or LINE_CHANNEL_ACCESS_TOKEN")
		return &LineMessagingService{Bot: nil}
	}

	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		log.Printf("Cannot create LINE bot client: %v", err)
		return &LineMessagingService{Bot: nil}
	}

	return &LineMessagingService{Bot: bot}
}

// PushText sends a text message to a LINE user or group ID.
func (s *LineMessagingService) PushText(to string, message string) error {
	if s.Bot == nil {
		return fmt.Errorf("LINE Bot client is not initialized")
	}

	_, err := s.Bot.PushMessage(to, linebot.NewTextMessage(message)).Do()
	if err != nil {
		return fmt.Errorf("LINE Messaging API failed: %v", err)
	}
	return nil
}
